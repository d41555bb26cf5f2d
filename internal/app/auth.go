package app

import (
	"jmap-bridge/internal/auth"
)

func (app *App) initializeAuth() {
	if !app.Config.AuthEnabled() {
		app.Logger.Info("Authentication disabled (no JWT secret provided)")
		return
	}
	app.Auth = auth.New(app.Config.JWTSecret)
	app.Logger.Info("Authentication enabled for /api routes")
}
