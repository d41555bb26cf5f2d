package jscontact

import (
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

const anniversaryLabel = "anniversary"

// anniversaryProperty is a vCard date property folded into anniversaries.
// Exactly one of kind and label is set.
type anniversaryProperty struct {
	name  string
	kind  string
	label string
	place string
}

var standardAnniversaries = []anniversaryProperty{
	{name: vcard.FieldBirthday, kind: models.AnniversaryBirth, place: propBirthPlace},
	{name: propDeathDate, kind: models.AnniversaryDeath, place: propDeathPlace},
	{name: vcard.FieldAnniversary, label: anniversaryLabel},
}

// anniversariesRule maps the dated vCard properties. extra is appended to the
// standard properties and must use labels.
func anniversariesRule(extra []anniversaryProperty) Rule {
	props := append(append([]anniversaryProperty{}, standardAnniversaries...), extra...)
	var names []string
	for _, p := range props {
		names = append(names, p.name)
		if p.place != "" {
			names = append(names, p.place)
		}
	}

	return Rule{
		Field:       "anniversaries",
		LegacyNames: names,
		Get: func(a *Adapter, card *models.Card) {
			anniversaries := make(map[string]*models.Anniversary)
			for _, p := range props {
				var first *models.Anniversary
				for _, f := range a.presentFields(p.name) {
					date, ok := values.VCardDateToJSON(f.Value)
					if !ok {
						a.warn(f.Name, "Unparseable date replaced", logging.String("value", f.Value))
						date = values.UnknownDate
					}
					anniversary := models.NewAnniversary(date)
					anniversary.Type = p.kind
					anniversary.Label = p.label
					anniversaries[keyFor(anniversaries, f)] = anniversary
					if first == nil {
						first = anniversary
					}
				}

				if p.place == "" {
					continue
				}
				for _, f := range a.presentFields(p.place) {
					if first == nil {
						a.warn(f.Name, "Place without date dropped")
						break
					}
					first.Place = readPlace(f.Value)
					break
				}
			}
			card.Anniversaries = values.NilIfEmpty(anniversaries)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.Anniversaries) {
				anniversary := card.Anniversaries[key]
				if anniversary == nil {
					continue
				}
				prop, err := anniversaryTarget(props, anniversary)
				if err != nil {
					return err
				}
				date, err := values.JSONDateToVCard(anniversary.Date)
				if err != nil {
					return errors.MappingErrorf("anniversaries: %v", err)
				}
				a.add(prop.name, date, nil)

				if prop.place != "" && anniversary.Place != nil {
					if place := writePlace(anniversary.Place); place != "" {
						a.add(prop.place, place, nil)
					}
				}
			}
			return nil
		},
	}
}

func anniversaryTarget(props []anniversaryProperty, anniversary *models.Anniversary) (anniversaryProperty, error) {
	if anniversary.Type != "" {
		for _, p := range props {
			if p.kind == anniversary.Type {
				return p, nil
			}
		}
		return anniversaryProperty{}, errors.MappingErrorf("anniversaries: unknown type %q", anniversary.Type)
	}
	for _, p := range props {
		if p.label != "" && strings.EqualFold(p.label, anniversary.Label) {
			return p, nil
		}
	}
	return anniversaryProperty{name: vcard.FieldAnniversary, label: anniversaryLabel}, nil
}

// readPlace turns BIRTHPLACE/DEATHPLACE into an Address. geo: URIs become
// coordinates, anything else the full address.
func readPlace(value string) *models.Address {
	value = strings.TrimSpace(value)
	place := models.NewAddress()
	if strings.HasPrefix(strings.ToLower(value), "geo:") {
		place.Coordinates = value
	} else {
		place.FullAddress = value
	}
	return place
}

func writePlace(place *models.Address) string {
	if values.HasText(place.Coordinates) {
		return place.Coordinates
	}
	return place.FullAddress
}
