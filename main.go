package main

import (
	"fmt"
	"os"

	"jmap-bridge/internal/app"
)

// @title jmap-bridge API
// @version 1.0
// @description Converts vCard and iCalendar records to JSContact and JSCalendar and back.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token signed with JWT_SECRET. Only required when a secret is configured.

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "jmap-bridge: %v\n", err)
		os.Exit(1)
	}
}
