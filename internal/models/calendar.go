package models

// JSCalendar object types.
const (
	TypeEvent           = "Event"
	TypeLocation        = "Location"
	TypeLink            = "Link"
	TypeParticipant     = "Participant"
	TypeAlert           = "Alert"
	TypeOffsetTrigger   = "OffsetTrigger"
	TypeAbsoluteTrigger = "AbsoluteTrigger"
	TypeRecurrenceRule  = "RecurrenceRule"
	TypeNDay            = "NDay"
)

// CalendarEvent is a JSCalendar event. Entries of RecurrenceOverrides are
// patches of the master and therefore carry no "@type".
type CalendarEvent struct {
	AtType              string                    `json:"@type,omitempty"`
	UID                 string                    `json:"uid,omitempty"`
	ProdID              string                    `json:"prodId,omitempty"`
	Created             string                    `json:"created,omitempty"`
	Updated             string                    `json:"updated,omitempty"`
	Sequence            int                       `json:"sequence,omitempty"`
	Title               string                    `json:"title,omitempty"`
	Description         string                    `json:"description,omitempty"`
	Start               string                    `json:"start,omitempty"`
	TimeZone            string                    `json:"timeZone,omitempty"`
	Duration            string                    `json:"duration,omitempty"`
	ShowWithoutTime     bool                      `json:"showWithoutTime,omitempty"`
	Status              string                    `json:"status,omitempty"`
	FreeBusyStatus      string                    `json:"freeBusyStatus,omitempty"`
	Privacy             string                    `json:"privacy,omitempty"`
	Priority            int                       `json:"priority,omitempty"`
	Color               string                    `json:"color,omitempty"`
	Keywords            map[string]bool           `json:"keywords,omitempty"`
	Locations           map[string]*Location      `json:"locations,omitempty"`
	Links               map[string]*Link          `json:"links,omitempty"`
	Participants        map[string]*Participant   `json:"participants,omitempty"`
	RecurrenceID        string                    `json:"recurrenceId,omitempty"`
	RecurrenceRule      *RecurrenceRule           `json:"recurrenceRule,omitempty"`
	RecurrenceOverrides map[string]*CalendarEvent `json:"recurrenceOverrides,omitempty"`
	Excluded            bool                      `json:"excluded,omitempty"`
	Alerts              map[string]*Alert         `json:"alerts,omitempty"`
}

// NewCalendarEvent returns an empty event.
func NewCalendarEvent() *CalendarEvent {
	return &CalendarEvent{AtType: TypeEvent}
}

// NewOverride returns an empty recurrence override patch.
func NewOverride() *CalendarEvent {
	return &CalendarEvent{}
}

// Event status values
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"
)

// Location is a place where the event happens.
type Location struct {
	AtType      string `json:"@type"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Coordinates string `json:"coordinates,omitempty"`
}

// NewLocation returns an empty Location.
func NewLocation() *Location {
	return &Location{AtType: TypeLocation}
}

// Link is an external resource attached to the event.
type Link struct {
	AtType      string `json:"@type"`
	Href        string `json:"href"`
	Rel         string `json:"rel,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Title       string `json:"title,omitempty"`
	Size        int    `json:"size,omitempty"`
}

// NewLink returns a link to href.
func NewLink(href string) *Link {
	return &Link{AtType: TypeLink, Href: href}
}

// Participant is an organizer or attendee.
type Participant struct {
	AtType              string            `json:"@type"`
	Name                string            `json:"name,omitempty"`
	Email               string            `json:"email,omitempty"`
	SendTo              map[string]string `json:"sendTo,omitempty"`
	Kind                string            `json:"kind,omitempty"`
	Roles               map[string]bool   `json:"roles,omitempty"`
	ParticipationStatus string            `json:"participationStatus,omitempty"`
	ExpectReply         bool              `json:"expectReply,omitempty"`
	DelegatedTo         map[string]bool   `json:"delegatedTo,omitempty"`
	DelegatedFrom       map[string]bool   `json:"delegatedFrom,omitempty"`
}

// NewParticipant returns an empty Participant.
func NewParticipant() *Participant {
	return &Participant{AtType: TypeParticipant}
}

// Alert is a reminder attached to the event.
type Alert struct {
	AtType  string   `json:"@type"`
	Trigger *Trigger `json:"trigger,omitempty"`
	Action  string   `json:"action,omitempty"`
}

// NewAlert returns an empty Alert.
func NewAlert() *Alert {
	return &Alert{AtType: TypeAlert}
}

// Trigger is either an OffsetTrigger (Offset, RelativeTo) or an
// AbsoluteTrigger (When), told apart by AtType.
type Trigger struct {
	AtType     string `json:"@type"`
	Offset     string `json:"offset,omitempty"`
	RelativeTo string `json:"relativeTo,omitempty"`
	When       string `json:"when,omitempty"`
}

// NewOffsetTrigger returns a trigger relative to the event start or end.
func NewOffsetTrigger(offset, relativeTo string) *Trigger {
	return &Trigger{AtType: TypeOffsetTrigger, Offset: offset, RelativeTo: relativeTo}
}

// NewAbsoluteTrigger returns a trigger at a fixed UTC time.
func NewAbsoluteTrigger(when string) *Trigger {
	return &Trigger{AtType: TypeAbsoluteTrigger, When: when}
}

// RecurrenceRule describes how an event repeats.
type RecurrenceRule struct {
	AtType         string   `json:"@type"`
	Frequency      string   `json:"frequency"`
	Interval       int      `json:"interval,omitempty"`
	RScale         string   `json:"rscale,omitempty"`
	Skip           string   `json:"skip,omitempty"`
	FirstDayOfWeek string   `json:"firstDayOfWeek,omitempty"`
	ByDay          []*NDay  `json:"byDay,omitempty"`
	ByMonthDay     []int    `json:"byMonthDay,omitempty"`
	ByMonth        []string `json:"byMonth,omitempty"`
	ByYearDay      []int    `json:"byYearDay,omitempty"`
	ByWeekNo       []int    `json:"byWeekNo,omitempty"`
	ByHour         []int    `json:"byHour,omitempty"`
	ByMinute       []int    `json:"byMinute,omitempty"`
	BySecond       []int    `json:"bySecond,omitempty"`
	BySetPosition  []int    `json:"bySetPosition,omitempty"`
	Count          int      `json:"count,omitempty"`
	Until          string   `json:"until,omitempty"`
}

// NewRecurrenceRule returns a rule with the given frequency.
func NewRecurrenceRule(frequency string) *RecurrenceRule {
	return &RecurrenceRule{AtType: TypeRecurrenceRule, Frequency: frequency}
}

// NDay is a weekday with an optional ordinal within the period.
type NDay struct {
	AtType      string `json:"@type"`
	Day         string `json:"day"`
	NthOfPeriod int    `json:"nthOfPeriod,omitempty"`
}

// NewNDay returns an NDay.
func NewNDay(day string, nth int) *NDay {
	return &NDay{AtType: TypeNDay, Day: day, NthOfPeriod: nth}
}
