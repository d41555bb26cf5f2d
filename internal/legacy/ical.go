package legacy

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-ical"
	"jmap-bridge/internal/common/errors"
)

// ICalVersion is the only iCalendar version written.
const ICalVersion = "2.0"

// ParseCalendar decodes the first VCALENDAR found in text.
func ParseCalendar(text string) (*ical.Calendar, error) {
	dec := ical.NewDecoder(strings.NewReader(text))
	cal, err := dec.Decode()
	if err == io.EOF {
		return nil, errors.ParseError("no calendar found", nil)
	}
	if err != nil {
		return nil, errors.ParseError("failed to decode iCalendar", err)
	}
	return cal, nil
}

// NewCalendar returns a VCALENDAR carrying VERSION and PRODID.
func NewCalendar(prodID string) *ical.Calendar {
	cal := ical.NewCalendar()
	SetICalValue(cal.Props, "VERSION", ICalVersion)
	SetICalValue(cal.Props, "PRODID", prodID)
	return cal
}

// SerializeCalendar encodes cal as text.
func SerializeCalendar(cal *ical.Calendar) (string, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode iCalendar: %w", err)
	}
	return buf.String(), nil
}

// Events returns the VEVENT children of cal in document order.
func Events(cal *ical.Calendar) []*ical.Component {
	var out []*ical.Component
	for _, child := range cal.Children {
		if strings.EqualFold(child.Name, ical.CompEvent) {
			out = append(out, child)
		}
	}
	return out
}

// Children returns the sub-components of comp with the given name.
func Children(comp *ical.Component, name string) []*ical.Component {
	var out []*ical.Component
	for _, child := range comp.Children {
		if strings.EqualFold(child.Name, name) {
			out = append(out, child)
		}
	}
	return out
}

// ICalProps returns every property stored under name, ignoring case.
func ICalProps(props ical.Props, name string) []ical.Prop {
	if list, ok := props[name]; ok {
		return list
	}
	for key, list := range props {
		if strings.EqualFold(key, name) {
			return list
		}
	}
	return nil
}

// ICalProp returns the first property stored under name, or nil.
func ICalProp(props ical.Props, name string) *ical.Prop {
	list := ICalProps(props, name)
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

// ICalValue returns the raw value of the first property stored under name.
func ICalValue(props ical.Props, name string) string {
	if prop := ICalProp(props, name); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// ICalText returns the unescaped TEXT value of the first property stored
// under name.
func ICalText(props ical.Props, name string) string {
	if prop := ICalProp(props, name); prop != nil {
		return UnescapeText(prop.Value)
	}
	return ""
}

// NewICalProp builds a property with a raw value and parameters.
func NewICalProp(name, value string, params map[string]string) *ical.Prop {
	prop := ical.NewProp(strings.ToUpper(name))
	prop.Value = value
	if prop.Params == nil {
		prop.Params = make(ical.Params)
	}
	for k, v := range params {
		if v != "" {
			prop.Params[strings.ToUpper(k)] = []string{v}
		}
	}
	return prop
}

// AddICalValue appends a property with a raw value.
func AddICalValue(props ical.Props, name, value string, params map[string]string) {
	prop := NewICalProp(name, value, params)
	props[prop.Name] = append(props[prop.Name], *prop)
}

// SetICalValue replaces every property stored under name.
func SetICalValue(props ical.Props, name, value string) {
	prop := NewICalProp(name, value, nil)
	props[prop.Name] = []ical.Prop{*prop}
}

// AddICalText appends a TEXT property, escaping the value.
func AddICalText(props ical.Props, name, text string, params map[string]string) {
	AddICalValue(props, name, EscapeText(text), params)
}

var (
	textEscaper   = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	textUnescaper = strings.NewReplacer(`\\`, `\`, `\;`, ";", `\,`, ",", `\n`, "\n", `\N`, "\n")
)

// EscapeText escapes an RFC 5545 TEXT value.
func EscapeText(text string) string {
	return textEscaper.Replace(strings.ReplaceAll(text, "\r\n", "\n"))
}

// UnescapeText reverses EscapeText.
func UnescapeText(value string) string {
	return textUnescaper.Replace(value)
}

// SplitText splits a multi-valued TEXT property (CATEGORIES, RESOURCES) on
// unescaped commas and unescapes each element.
func SplitText(value string) []string {
	var out []string
	var b strings.Builder
	escaped := false
	flush := func() {
		if s := strings.TrimSpace(UnescapeText(b.String())); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range value {
		switch {
		case escaped:
			b.WriteRune('\\')
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}
