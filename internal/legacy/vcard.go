// Package legacy wraps the vCard and iCalendar object models. The mapping
// core only sees vcard.Card and ical.Calendar values; everything that reads
// or writes text goes through this package.
package legacy

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
)

// vCard versions written by the dialects
const (
	VCardVersion3 = "3.0"
	VCardVersion4 = "4.0"
)

// ParseVCard decodes the first vCard found in text.
func ParseVCard(text string) (vcard.Card, error) {
	dec := vcard.NewDecoder(strings.NewReader(text))
	card, err := dec.Decode()
	if err == io.EOF {
		return nil, errors.ParseError("no vCard found", nil)
	}
	if err != nil {
		return nil, errors.ParseError("failed to decode vCard", err)
	}
	return card, nil
}

// SplitVCards cuts text holding several vCards into one text per card. Lines
// outside BEGIN:VCARD/END:VCARD are dropped. An unterminated card is a parse
// error.
func SplitVCards(text string) ([]string, error) {
	var (
		cards   []string
		current strings.Builder
		depth   int
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case trimmed == "BEGIN:VCARD":
			depth++
		case depth == 0:
			continue
		}
		current.WriteString(line)
		if trimmed == "END:VCARD" {
			depth--
			if depth == 0 {
				cards = append(cards, current.String())
				current.Reset()
			}
		}
	}
	if depth != 0 {
		return nil, errors.ParseError(fmt.Sprintf("vCard %d is not terminated", len(cards)+1), nil)
	}
	if len(cards) == 0 {
		return nil, errors.ParseError("no vCard found", nil)
	}
	return cards, nil
}

// NewVCard returns an empty card carrying only VERSION.
func NewVCard(version string) vcard.Card {
	card := make(vcard.Card)
	card[vcard.FieldVersion] = []*vcard.Field{{Value: version}}
	return card
}

// escapedSemicolon restores "\;" after encoding. Structured values keep
// component semicolons as "\;" in memory, the form the decoder leaves them in,
// and the encoder would otherwise double the backslash.
var escapedSemicolon = strings.NewReplacer(`\\;`, `\;`)

// SerializeVCard encodes card as text.
func SerializeVCard(card vcard.Card) (string, error) {
	var buf bytes.Buffer
	if err := vcard.NewEncoder(&buf).Encode(card); err != nil {
		return "", fmt.Errorf("failed to encode vCard: %w", err)
	}
	return escapedSemicolon.Replace(buf.String()), nil
}

// VCardField is a vCard property together with the name it was stored under.
type VCardField struct {
	Name string
	*vcard.Field
}

// Fields returns the properties stored under any of names, in the order of
// names and then in card order. Names match case-insensitively.
func Fields(card vcard.Card, names ...string) []VCardField {
	var out []VCardField
	for _, name := range names {
		for _, key := range matchingKeys(card, name) {
			for _, field := range card[key] {
				if field != nil {
					out = append(out, VCardField{Name: strings.ToUpper(name), Field: field})
				}
			}
		}
	}
	return out
}

// matchingKeys finds the card keys equal to name ignoring case. The exact
// spelling comes first.
func matchingKeys(card vcard.Card, name string) []string {
	var keys []string
	if _, ok := card[name]; ok {
		keys = append(keys, name)
	}
	var folded []string
	for key := range card {
		if key != name && strings.EqualFold(key, name) {
			folded = append(folded, key)
		}
	}
	sort.Strings(folded)
	return append(keys, folded...)
}

// HasProperties reports whether card holds anything besides VERSION.
func HasProperties(card vcard.Card) bool {
	for key, fields := range card {
		if !strings.EqualFold(key, vcard.FieldVersion) && len(fields) > 0 {
			return true
		}
	}
	return false
}

// AddField appends a property to card. Empty parameter values are skipped.
func AddField(card vcard.Card, name, value string, params map[string][]string) *vcard.Field {
	field := &vcard.Field{Value: value, Params: make(vcard.Params)}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				field.Params[strings.ToUpper(k)] = append(field.Params[strings.ToUpper(k)], v)
			}
		}
	}
	name = strings.ToUpper(name)
	card[name] = append(card[name], field)
	return field
}

// Version returns the VERSION of card, or an empty string.
func Version(card vcard.Card) string {
	for _, f := range Fields(card, vcard.FieldVersion) {
		return strings.TrimSpace(f.Value)
	}
	return ""
}

// Param returns the first value of the named parameter, ignoring case.
func Param(params map[string][]string, name string) string {
	values := ParamValues(params, name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ParamValues returns every value of the named parameter, ignoring case.
func ParamValues(params map[string][]string, name string) []string {
	var out []string
	for key, values := range params {
		if strings.EqualFold(key, name) {
			out = append(out, values...)
		}
	}
	return out
}

// JoinedParam returns the named parameter with its values joined by ",".
// Decoders split parameter values on commas, which breaks GEO and LABEL.
func JoinedParam(params map[string][]string, name string) string {
	return strings.Join(ParamValues(params, name), ",")
}

// HasParam reports whether the named parameter is present, ignoring case.
func HasParam(params map[string][]string, name string) bool {
	for key := range params {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// TypeTokens returns the TYPE parameter split into lower-case tokens.
func TypeTokens(params map[string][]string) []string {
	var out []string
	for _, v := range ParamValues(params, "TYPE") {
		for _, token := range strings.Split(v, ",") {
			if token = strings.ToLower(strings.Trim(strings.TrimSpace(token), `"`)); token != "" {
				out = append(out, token)
			}
		}
	}
	return out
}

// UnsupportedParams lists the parameters found in params that the mapping
// always drops.
func UnsupportedParams(params map[string][]string) []string {
	var out []string
	for _, name := range []string{"ALTID", "LANGUAGE"} {
		if HasParam(params, name) {
			out = append(out, name)
		}
	}
	return out
}
