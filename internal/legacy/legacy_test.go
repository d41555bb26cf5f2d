package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jmap-bridge/internal/common/errors"
)

const sampleVCard = "BEGIN:VCARD\r\n" +
	"VERSION:4.0\r\n" +
	"FN:Forrest Gump\r\n" +
	"N:Gump;Forrest;;Mr.;\r\n" +
	"TEL;TYPE=home,voice:+1-555-0100\r\n" +
	"TEL;TYPE=work:+1-555-0101\r\n" +
	"END:VCARD\r\n"

func TestParseVCard(t *testing.T) {
	card, err := ParseVCard(sampleVCard)
	require.NoError(t, err)

	assert.Equal(t, "4.0", Version(card))
	assert.True(t, HasProperties(card))

	tels := Fields(card, "tel")
	require.Len(t, tels, 2)
	assert.Equal(t, "TEL", tels[0].Name)
	assert.Equal(t, "+1-555-0100", tels[0].Value)
	assert.Equal(t, []string{"home", "voice"}, TypeTokens(tels[0].Params))

	_, err = ParseVCard("")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))

	_, err = ParseVCard("BEGIN:VCARD\r\nFN;broken\r\n")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))
}

func TestSplitVCards(t *testing.T) {
	second := "BEGIN:VCARD\nVERSION:3.0\nFN:Jenny\nEND:VCARD\n"

	cards, err := SplitVCards("preamble\r\n" + sampleVCard + "\r\n" + second)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, sampleVCard, cards[0])
	assert.Equal(t, second, cards[1])

	for _, text := range cards {
		_, err := ParseVCard(text)
		assert.NoError(t, err)
	}

	_, err = SplitVCards(sampleVCard + "BEGIN:VCARD\r\nFN:Cut\r\n")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))

	_, err = SplitVCards("nothing here")
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))
}

func TestSerializeVCard(t *testing.T) {
	card := NewVCard(VCardVersion4)
	assert.False(t, HasProperties(card))

	AddField(card, "fn", "Jane Doe", nil)
	AddField(card, "EMAIL", "jane@example.com", map[string][]string{"type": {"work"}, "PREF": {""}})

	text, err := SerializeVCard(card)
	require.NoError(t, err)
	assert.Contains(t, text, "BEGIN:VCARD")
	assert.Contains(t, text, "VERSION:4.0")
	assert.Contains(t, text, "FN:Jane Doe")
	assert.Contains(t, text, "jane@example.com")

	back, err := ParseVCard(text)
	require.NoError(t, err)
	emails := Fields(back, "EMAIL")
	require.Len(t, emails, 1)
	assert.Equal(t, []string{"work"}, TypeTokens(emails[0].Params))
	assert.False(t, HasParam(emails[0].Params, "PREF"))
}

func TestSerializeVCard_EscapedSemicolons(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantLine string
	}{
		{name: "component semicolon", value: `Smith\; Sons;Sales`, wantLine: `ORG:Smith\; Sons;Sales`},
		{name: "comma", value: "Smith, Sons", wantLine: `ORG:Smith\, Sons`},
		{name: "literal backslash", value: `C:\dir;Sales`, wantLine: `ORG:C:\\dir;Sales`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := NewVCard(VCardVersion4)
			AddField(card, "ORG", tt.value, nil)

			text, err := SerializeVCard(card)
			require.NoError(t, err)
			assert.Contains(t, text, tt.wantLine+"\r\n")

			back, err := ParseVCard(text)
			require.NoError(t, err)
			assert.Equal(t, tt.value, Fields(back, "ORG")[0].Value)
		})
	}
}

func TestParams(t *testing.T) {
	params := map[string][]string{
		"type":     {"HOME,Work"},
		"GEO":      {"geo:1.5", "2.5"},
		"ALTID":    {"1"},
		"language": {"en"},
	}

	assert.Equal(t, []string{"home", "work"}, TypeTokens(params))
	assert.Equal(t, "geo:1.5,2.5", JoinedParam(params, "geo"))
	assert.Equal(t, "1", Param(params, "altid"))
	assert.Equal(t, "", Param(params, "PREF"))
	assert.ElementsMatch(t, []string{"ALTID", "LANGUAGE"}, UnsupportedParams(params))
}

const sampleCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Example//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:event-1\r\n" +
	"DTSTAMP:20200101T000000Z\r\n" +
	"DTSTART:20200101T100000Z\r\n" +
	"SUMMARY:Lunch\\, with Bob\r\n" +
	"CATEGORIES:work,food\\,drinks\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseCalendar(t *testing.T) {
	cal, err := ParseCalendar(sampleCalendar)
	require.NoError(t, err)

	events := Events(cal)
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", ICalValue(events[0].Props, "uid"))
	assert.Equal(t, "Lunch, with Bob", ICalText(events[0].Props, "SUMMARY"))
	assert.Equal(t, []string{"work", "food,drinks"}, SplitText(ICalValue(events[0].Props, "CATEGORIES")))
	assert.Nil(t, ICalProp(events[0].Props, "LOCATION"))

	_, err = ParseCalendar("")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParse))
}

func TestSerializeCalendar(t *testing.T) {
	cal := NewCalendar("-//jmap-bridge//EN")
	cal2, err := ParseCalendar(sampleCalendar)
	require.NoError(t, err)
	cal.Children = append(cal.Children, Events(cal2)...)

	AddICalText(Events(cal)[0].Props, "DESCRIPTION", "a;b\nc", nil)

	text, err := SerializeCalendar(cal)
	require.NoError(t, err)
	assert.Contains(t, text, "PRODID:-//jmap-bridge//EN")
	assert.Contains(t, text, `DESCRIPTION:a\;b\nc`)

	back, err := ParseCalendar(text)
	require.NoError(t, err)
	assert.Equal(t, "a;b\nc", ICalText(Events(back)[0].Props, "DESCRIPTION"))
}

func TestTextEscaping(t *testing.T) {
	tests := []struct {
		text    string
		escaped string
	}{
		{"plain", "plain"},
		{"a,b", `a\,b`},
		{"a;b", `a\;b`},
		{`back\slash`, `back\\slash`},
		{"line\nbreak", `line\nbreak`},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.escaped, EscapeText(tt.text))
			assert.Equal(t, tt.text, UnescapeText(tt.escaped))
		})
	}
}
