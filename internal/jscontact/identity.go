package jscontact

import (
	"sort"
	"strings"

	"github.com/emersion/go-vcard"
	"github.com/google/uuid"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

var uidRule = Rule{
	Field:       "uid",
	LegacyNames: []string{vcard.FieldUID},
	Get: func(a *Adapter, card *models.Card) {
		card.UID = a.firstText(vcard.FieldUID)
	},
	Set: func(a *Adapter, card *models.Card) error {
		if values.HasText(card.UID) {
			a.add(vcard.FieldUID, card.UID, nil)
		}
		return nil
	},
}

var prodIDRule = Rule{
	Field:       "prodId",
	LegacyNames: []string{vcard.FieldProductID},
	Get: func(a *Adapter, card *models.Card) {
		card.ProdID = a.firstText(vcard.FieldProductID)
	},
	Set: func(a *Adapter, card *models.Card) error {
		if values.HasText(card.ProdID) {
			a.add(vcard.FieldProductID, card.ProdID, nil)
		}
		return nil
	},
}

var kinds = map[string]bool{
	"individual":  true,
	"group":       true,
	"org":         true,
	"location":    true,
	"device":      true,
	"application": true,
}

var kindRule = Rule{
	Field:       "kind",
	LegacyNames: []string{vcard.FieldKind, "X-ADDRESSBOOKSERVER-KIND"},
	Get: func(a *Adapter, card *models.Card) {
		for _, f := range a.presentFields(vcard.FieldKind, "X-ADDRESSBOOKSERVER-KIND") {
			kind := strings.ToLower(strings.TrimSpace(f.Value))
			if !kinds[kind] {
				a.warn(f.Name, "Unknown KIND dropped", logging.String("kind", f.Value))
				continue
			}
			card.Kind = kind
			return
		}
	},
	Set: func(a *Adapter, card *models.Card) error {
		if !values.HasText(card.Kind) {
			return nil
		}
		if !kinds[card.Kind] {
			return errors.MappingErrorf("kind: unknown kind %q", card.Kind)
		}
		a.add(vcard.FieldKind, card.Kind, nil)
		return nil
	},
}

func timestampRule(field, property string, get func(*models.Card) *string) Rule {
	return Rule{
		Field:       field,
		LegacyNames: []string{property},
		Get: func(a *Adapter, card *models.Card) {
			for _, f := range a.presentFields(property) {
				ts, ok := values.LegacyTimestampToJSON(f.Value)
				if !ok {
					a.warn(f.Name, "Unparseable timestamp dropped", logging.String("value", f.Value))
					continue
				}
				*get(card) = ts
				return
			}
		},
		Set: func(a *Adapter, card *models.Card) error {
			ts := *get(card)
			if !values.HasText(ts) {
				return nil
			}
			legacyTS, err := values.JSONTimestampToLegacy(ts)
			if err != nil {
				return errors.MappingErrorf("%s: %v", field, err)
			}
			a.add(property, legacyTS, nil)
			return nil
		},
	}
}

var createdRule = timestampRule("created", propCreated, func(c *models.Card) *string { return &c.Created })

var updatedRule = timestampRule("updated", vcard.FieldRevision, func(c *models.Card) *string { return &c.Updated })

var fullNameRule = Rule{
	Field:       "fullName",
	LegacyNames: []string{vcard.FieldFormattedName},
	Get: func(a *Adapter, card *models.Card) {
		card.FullName = a.firstText(vcard.FieldFormattedName)
	},
	Set: func(a *Adapter, card *models.Card) error {
		if values.HasText(card.FullName) {
			a.add(vcard.FieldFormattedName, card.FullName, nil)
		}
		return nil
	},
}

var notesRule = Rule{
	Field:       "notes",
	LegacyNames: []string{vcard.FieldNote},
	Get: func(a *Adapter, card *models.Card) {
		var notes []string
		for _, f := range a.presentFields(vcard.FieldNote) {
			notes = append(notes, f.Value)
		}
		card.Notes = strings.Join(notes, "\n")
	},
	Set: func(a *Adapter, card *models.Card) error {
		if values.HasText(card.Notes) {
			a.add(vcard.FieldNote, card.Notes, nil)
		}
		return nil
	},
}

var categoriesRule = Rule{
	Field:       "categories",
	LegacyNames: []string{vcard.FieldCategories},
	Get: func(a *Adapter, card *models.Card) {
		categories := make(map[string]bool)
		for _, f := range a.presentFields(vcard.FieldCategories) {
			for _, c := range values.SplitList(f.Value, ",") {
				categories[c] = true
			}
		}
		card.Categories = values.NilIfEmpty(categories)
	},
	// One CATEGORIES per keyword: the encoder escapes commas, so a joined
	// list would read back as a single keyword.
	Set: func(a *Adapter, card *models.Card) error {
		for _, c := range values.SortedKeys(card.Categories) {
			if card.Categories[c] && values.HasText(c) {
				a.add(vcard.FieldCategories, c, nil)
			}
		}
		return nil
	},
}

var membersRule = Rule{
	Field:       "members",
	LegacyNames: []string{vcard.FieldMember},
	Get: func(a *Adapter, card *models.Card) {
		members := make(map[string]bool)
		for _, f := range a.presentFields(vcard.FieldMember) {
			members[stripURN(f.Value)] = true
		}
		card.Members = values.NilIfEmpty(members)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, member := range values.SortedKeys(card.Members) {
			if card.Members[member] && values.HasText(member) {
				a.add(vcard.FieldMember, toURN(member), nil)
			}
		}
		return nil
	},
}

func (a *Adapter) firstText(name string) string {
	for _, f := range a.presentFields(name) {
		return strings.TrimSpace(f.Value)
	}
	return ""
}

const urnUUIDPrefix = "urn:uuid:"

// stripURN turns "urn:uuid:<id>" into "<id>" and leaves other values alone.
func stripURN(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > len(urnUUIDPrefix) && strings.EqualFold(value[:len(urnUUIDPrefix)], urnUUIDPrefix) {
		return value[len(urnUUIDPrefix):]
	}
	return value
}

// toURN is the inverse of stripURN: bare UUIDs get the urn:uuid: prefix.
func toURN(id string) string {
	if _, err := uuid.Parse(id); err == nil && !strings.Contains(id, ":") {
		return urnUUIDPrefix + id
	}
	return id
}

func sortedTrue(m map[string]bool) []string {
	var out []string
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
