package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardTypeDiscriminators(t *testing.T) {
	card := NewCard()
	card.Phones = map[string]*Phone{"p1": NewPhone("123")}
	card.RelatedTo = map[string]*Relation{"uid-1": NewRelation()}

	data, err := json.Marshal(card)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "Card", raw["@type"])
	assert.Equal(t, "1.0", raw["version"])
	assert.NotContains(t, raw, "emails")

	phone := raw["phones"].(map[string]interface{})["p1"].(map[string]interface{})
	assert.Equal(t, "Phone", phone["@type"])
	assert.Equal(t, "123", phone["phone"])

	relation := raw["relatedTo"].(map[string]interface{})["uid-1"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{}, relation["relation"])
}

func TestOverrideHasNoType(t *testing.T) {
	event := NewCalendarEvent()
	override := NewOverride()
	override.Excluded = true
	event.RecurrenceOverrides = map[string]*CalendarEvent{"2020-01-02T10:00:00": override}

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"@type":"Event","recurrenceOverrides":{"2020-01-02T10:00:00":{"excluded":true}}}`, string(data))
}

func TestTriggers(t *testing.T) {
	assert.Equal(t, TypeOffsetTrigger, NewOffsetTrigger("-PT15M", "start").AtType)
	assert.Equal(t, TypeAbsoluteTrigger, NewAbsoluteTrigger("2020-01-01T09:00:00Z").AtType)
}
