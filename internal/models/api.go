package models

// Request and response bodies of the HTTP API. They follow the JMAP /set
// conventions: successful records are reported under "created", failed ones
// under "notCreated" with a SetError.

// LegacyRecord is one vCard or iCalendar text identified by the caller.
type LegacyRecord struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

// ToJSONRequest is the body of the to-json endpoints.
type ToJSONRequest struct {
	Records []LegacyRecord `json:"records"`
}

// ContactToJSONResponse lists the converted cards in request order.
type ContactToJSONResponse struct {
	List []ContactEntry `json:"list"`
}

// ContactEntry pairs a converted card with the caller's identifier.
type ContactEntry struct {
	ID   string `json:"id"`
	Card *Card  `json:"card" swaggertype:"object"`
}

// CalendarToJSONResponse lists the converted events in request order.
type CalendarToJSONResponse struct {
	List []CalendarEntry `json:"list"`
}

// CalendarEntry pairs converted events with the caller's identifier. One
// iCalendar object can hold several independent events.
type CalendarEntry struct {
	ID     string           `json:"id"`
	Events []*CalendarEvent `json:"events" swaggertype:"array,object"`
}

// ContactFromJSONRequest is the body of POST /api/contacts/from-json.
type ContactFromJSONRequest struct {
	Create []ContactEntry `json:"create"`
}

// CalendarCreate is one event to convert back to iCalendar.
type CalendarCreate struct {
	ID    string         `json:"id"`
	Event *CalendarEvent `json:"event" swaggertype:"object"`
}

// CalendarFromJSONRequest is the body of POST /api/calendars/from-json.
type CalendarFromJSONRequest struct {
	Create []CalendarCreate `json:"create"`
}

// SetResponse reports the legacy text of every converted record and a
// SetError for every record that could not be converted.
type SetResponse struct {
	Created    map[string]string    `json:"created"`
	NotCreated map[string]*SetError `json:"notCreated"`
}

// SetError types
const (
	SetErrorInvalidProperties = "invalidProperties"
)

// SetError describes why a record was not converted.
type SetError struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ErrorResponse is returned for requests that fail as a whole.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}
