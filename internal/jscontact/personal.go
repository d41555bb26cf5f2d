package jscontact

import (
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

var personalProperties = map[string]string{
	propExpertise: models.PersonalExpertise,
	propHobby:     models.PersonalHobby,
	propInterest:  models.PersonalInterest,
}

var personalInfoRule = Rule{
	Field:       "personalInfo",
	LegacyNames: []string{propExpertise, propHobby, propInterest},
	Get: func(a *Adapter, card *models.Card) {
		info := make(map[string]*models.PersonalInformation)
		for _, f := range a.presentFields(propExpertise, propHobby, propInterest) {
			entry := models.NewPersonalInformation(personalProperties[strings.ToUpper(f.Name)], strings.TrimSpace(f.Value))
			if raw := legacy.Param(f.Params, "LEVEL"); raw != "" {
				level, ok := values.LevelToJSON(f.Name, raw)
				if ok {
					entry.Level = level
				} else {
					a.warn(f.Name, "Unknown LEVEL dropped", logging.String("level", raw))
				}
			}
			info[indexedKeyFor(a, info, f)] = entry
		}
		card.PersonalInfo = values.NilIfEmpty(info)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, key := range values.SortedKeys(card.PersonalInfo) {
			entry := card.PersonalInfo[key]
			if entry == nil || !values.HasText(entry.Value) {
				continue
			}

			name := ""
			for prop, kind := range personalProperties {
				if kind == entry.Type {
					name = prop
					break
				}
			}
			if name == "" {
				return errors.MappingErrorf("personalInfo: unknown type %q", entry.Type)
			}

			p := params{}
			if entry.Level != "" {
				level, ok := values.LevelToVCard(name, entry.Level)
				if !ok {
					return errors.MappingErrorf("personalInfo: unknown level %q", entry.Level)
				}
				p.add("LEVEL", level)
			}
			if index, ok := values.IndexFromKey(name, key); ok {
				p.add("INDEX", index)
			}
			a.add(name, entry.Value, p)
		}
		return nil
	},
}

// relationTypes is the RELATED TYPE vocabulary of RFC 6350.
var relationTypes = map[string]bool{
	"contact":      true,
	"acquaintance": true,
	"friend":       true,
	"met":          true,
	"co-worker":    true,
	"colleague":    true,
	"co-resident":  true,
	"neighbor":     true,
	"child":        true,
	"parent":       true,
	"sibling":      true,
	"spouse":       true,
	"kin":          true,
	"muse":         true,
	"crush":        true,
	"date":         true,
	"sweetheart":   true,
	"me":           true,
	"agent":        true,
	"emergency":    true,
}

// relatedToRule maps RELATED. extra maps a dialect property onto the single
// relation type it implies, e.g. X-MANAGER onto "manager".
func relatedToRule(extra map[string]string) Rule {
	names := []string{vcard.FieldRelated}
	for _, name := range values.SortedKeys(extra) {
		names = append(names, name)
	}

	return Rule{
		Field:       "relatedTo",
		LegacyNames: names,
		Get: func(a *Adapter, card *models.Card) {
			related := make(map[string]*models.Relation)
			for _, f := range a.presentFields(vcard.FieldRelated) {
				relation := models.NewRelation()
				for _, token := range legacy.TypeTokens(f.Params) {
					if !relationTypes[token] {
						a.warn(f.Name, "Unknown relation type dropped", logging.String("type", token))
						continue
					}
					relation.Relation[token] = true
				}
				related[values.UniqueKey(related, stripURN(f.Value))] = relation
			}

			for _, name := range names[1:] {
				for _, f := range a.presentFields(name) {
					relation := models.NewRelation()
					relation.Relation[extra[name]] = true
					related[values.UniqueKey(related, strings.TrimSpace(f.Value))] = relation
				}
			}
			card.RelatedTo = values.NilIfEmpty(related)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.RelatedTo) {
				relation := card.RelatedTo[key]
				if relation == nil || !values.HasText(key) {
					continue
				}

				types := sortedTrue(relation.Relation)
				if prop, ok := extraRelation(extra, types); ok {
					a.add(prop, key, nil)
					continue
				}
				for _, t := range types {
					if !relationTypes[t] {
						return errors.MappingErrorf("relatedTo: unknown relation %q", t)
					}
				}
				a.add(vcard.FieldRelated, toURN(key), params{}.add("TYPE", types...))
			}
			return nil
		},
	}
}

// extraRelation returns the dialect property for a relation holding exactly
// one type that the dialect has its own property for.
func extraRelation(extra map[string]string, types []string) (string, bool) {
	if len(types) != 1 {
		return "", false
	}
	for prop, t := range extra {
		if t == types[0] {
			return prop, true
		}
	}
	return "", false
}
