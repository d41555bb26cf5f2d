package values

import (
	"fmt"
	"strconv"
	"strings"
)

// SplitStructured splits a structured vCard value (N, ADR, ORG, GENDER) on
// unescaped semicolons and unescapes "\;" inside each component. The result
// is padded with empty strings up to min components.
func SplitStructured(value string, min int) []string {
	var parts []string
	var b strings.Builder
	escaped := false
	for _, r := range value {
		switch {
		case escaped:
			if r != ';' {
				b.WriteRune('\\')
			}
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ';':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteRune('\\')
	}
	parts = append(parts, b.String())

	for len(parts) < min {
		parts = append(parts, "")
	}
	return parts
}

// JoinStructured is the inverse of SplitStructured. Semicolons inside a
// component stay escaped as "\;" through legacy.SerializeVCard.
func JoinStructured(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = strings.ReplaceAll(p, ";", `\;`)
	}
	return strings.Join(escaped, ";")
}

// Coordinates parsed from a geo: URI or an iCalendar GEO value.
type Coordinates struct {
	Lat float64
	Lon float64
}

// URI renders the coordinates as an RFC 5870 geo: URI.
func (c Coordinates) URI() string {
	return "geo:" + strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// ICal renders the coordinates as an iCalendar GEO value (lat;lon).
func (c Coordinates) ICal() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + ";" + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// ParseGeoURI parses "geo:lat,lon[,alt][;params]".
func ParseGeoURI(value string) (Coordinates, error) {
	value = strings.TrimSpace(value)
	if len(value) < 4 || !strings.EqualFold(value[:4], "geo:") {
		return Coordinates{}, fmt.Errorf("invalid geo URI %q", value)
	}
	body := value[4:]
	if i := strings.IndexByte(body, ';'); i >= 0 {
		body = body[:i]
	}
	return parseLatLon(strings.Split(body, ","), value)
}

// ParseICalGeo parses an iCalendar GEO value "lat;lon".
func ParseICalGeo(value string) (Coordinates, error) {
	return parseLatLon(strings.Split(strings.TrimSpace(value), ";"), value)
}

func parseLatLon(parts []string, raw string) (Coordinates, error) {
	if len(parts) < 2 {
		return Coordinates{}, fmt.Errorf("invalid coordinates %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Coordinates{}, fmt.Errorf("invalid latitude in %q", raw)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lon < -180 || lon > 180 {
		return Coordinates{}, fmt.Errorf("invalid longitude in %q", raw)
	}
	return Coordinates{Lat: lat, Lon: lon}, nil
}
