package jscontact

import (
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// N stores family;given;additional;prefix;suffix.
const (
	nFamily = iota
	nGiven
	nAdditional
	nPrefix
	nSuffix
	nParts
)

// nameOrder is the display order of the JSON components.
var nameOrder = []struct {
	kind  string
	index int
}{
	{models.NamePrefix, nPrefix},
	{models.NameGiven, nGiven},
	{models.NameSurname, nFamily},
	{models.NameAdditional, nAdditional},
	{models.NameSuffix, nSuffix},
}

var nameRule = Rule{
	Field:       "name",
	LegacyNames: []string{vcard.FieldName},
	Get: func(a *Adapter, card *models.Card) {
		for _, f := range a.presentFields(vcard.FieldName) {
			parts := values.SplitStructured(f.Value, nParts)
			name := models.NewName()
			for _, o := range nameOrder {
				if v := strings.TrimSpace(parts[o.index]); v != "" {
					name.Components = append(name.Components, models.NewNameComponent(o.kind, v))
				}
			}
			if len(name.Components) > 0 {
				card.Name = name
				return
			}
		}
	},
	Set: func(a *Adapter, card *models.Card) error {
		if card.Name == nil || len(card.Name.Components) == 0 {
			return nil
		}

		parts := make([][]string, nParts)
		for _, c := range card.Name.Components {
			if c == nil {
				continue
			}
			index := -1
			for _, o := range nameOrder {
				if o.kind == c.Type {
					index = o.index
					break
				}
			}
			if index < 0 {
				return errors.MappingErrorf("name: unknown component type %q", c.Type)
			}
			if values.HasText(c.Value) {
				parts[index] = append(parts[index], c.Value)
			}
		}

		// N components are written single-valued; the encoder escapes the
		// comma that would separate a second value.
		first := make([]string, nParts)
		present := false
		for i, p := range parts {
			if len(p) == 0 {
				continue
			}
			if len(p) > 1 {
				a.warn(vcard.FieldName, "Extra name component values dropped",
					logging.String("component", p[0]),
					logging.String("dropped", strings.Join(p[1:], ", ")),
				)
			}
			first[i] = p[0]
			present = true
		}
		if present {
			a.add(vcard.FieldName, values.JoinStructured(first...), nil)
		}
		return nil
	},
}

var nickNamesRule = Rule{
	Field:       "nickNames",
	LegacyNames: []string{vcard.FieldNickname},
	Get: func(a *Adapter, card *models.Card) {
		nicks := make(map[string]*models.NickName)
		for _, f := range a.presentFields(vcard.FieldNickname) {
			contexts, pref := a.readContexts(f, values.DefaultContexts)
			for _, nick := range values.SplitList(f.Value, ",") {
				entry := models.NewNickName(nick)
				entry.Contexts = contexts
				entry.Pref = pref
				nicks[values.UniqueKey(nicks, values.ContentKey(f.Name, nick))] = entry
			}
		}
		card.NickNames = values.NilIfEmpty(nicks)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, key := range values.SortedKeys(card.NickNames) {
			nick := card.NickNames[key]
			if nick == nil || !values.HasText(nick.Name) {
				continue
			}
			tokens, err := contextTokens("nickNames", nick.Contexts, values.DefaultContexts)
			if err != nil {
				return err
			}
			a.add(vcard.FieldNickname, nick.Name, params{}.add("TYPE", tokens...).pref(nick.Pref))
		}
		return nil
	},
}

const propDepartment = "X-DEPARTMENT"

// organizationsRule maps ORG. With departments set, X-DEPARTMENT values are
// appended to the units on read and the units are written as X-DEPARTMENT.
func organizationsRule(departments bool) Rule {
	names := []string{vcard.FieldOrganization}
	if departments {
		names = append(names, propDepartment)
	}

	return Rule{
		Field:       "organizations",
		LegacyNames: names,
		Get: func(a *Adapter, card *models.Card) {
			orgs := make(map[string]*models.Organization)
			var first *models.Organization
			for _, f := range a.presentFields(vcard.FieldOrganization) {
				parts := values.SplitStructured(f.Value, 1)
				org := models.NewOrganization()
				org.Name = strings.TrimSpace(parts[0])
				for _, unit := range parts[1:] {
					if unit = strings.TrimSpace(unit); unit != "" {
						org.Units = append(org.Units, unit)
					}
				}
				if org.Name == "" && len(org.Units) == 0 {
					continue
				}
				orgs[keyFor(orgs, f)] = org
				if first == nil {
					first = org
				}
			}

			if departments {
				for _, f := range a.presentFields(propDepartment) {
					if first == nil {
						first = models.NewOrganization()
						orgs[keyFor(orgs, f)] = first
					}
					for _, unit := range values.SplitList(f.Value, ",") {
						first.Units = append(first.Units, unit)
					}
				}
			}
			card.Organizations = values.NilIfEmpty(orgs)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.Organizations) {
				org := card.Organizations[key]
				if org == nil || !values.AnyPresent(append([]string{org.Name}, org.Units...)...) {
					continue
				}
				if departments {
					a.add(vcard.FieldOrganization, values.JoinStructured(org.Name), nil)
					for _, unit := range org.Units {
						if values.HasText(unit) {
							a.add(propDepartment, unit, nil)
						}
					}
					continue
				}
				a.add(vcard.FieldOrganization, values.JoinStructured(append([]string{org.Name}, org.Units...)...), nil)
			}
			return nil
		},
	}
}

var titlesRule = Rule{
	Field:       "titles",
	LegacyNames: []string{vcard.FieldTitle, vcard.FieldRole},
	Get: func(a *Adapter, card *models.Card) {
		titles := make(map[string]*models.Title)
		for _, f := range a.presentFields(vcard.FieldTitle, vcard.FieldRole) {
			kind := models.TitleKindTitle
			if f.Name == vcard.FieldRole {
				kind = models.TitleKindRole
			}
			titles[keyFor(titles, f)] = models.NewTitle(strings.TrimSpace(f.Value), kind)
		}
		card.Titles = values.NilIfEmpty(titles)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, key := range values.SortedKeys(card.Titles) {
			title := card.Titles[key]
			if title == nil || !values.HasText(title.Title) {
				continue
			}
			switch title.Kind {
			case "", models.TitleKindTitle:
				a.add(vcard.FieldTitle, title.Title, nil)
			case models.TitleKindRole:
				a.add(vcard.FieldRole, title.Title, nil)
			default:
				return errors.MappingErrorf("titles: unknown kind %q", title.Kind)
			}
		}
		return nil
	},
}

// genderCodec is the dialect specific part of speakToAs.
type genderCodec struct {
	// read returns the grammatical gender found on the bound vCard.
	read func(a *Adapter) (string, bool)
	// write stores a grammatical gender; handled is false to fall back to
	// the standard GENDER mapping.
	write func(a *Adapter, gender string) (handled bool, err error)
	// names lists the extra vCard properties read.
	names []string
}

func speakToAsRule(codec genderCodec) Rule {
	return Rule{
		Field:       "speakToAs",
		LegacyNames: append([]string{vcard.FieldGender, propPronouns}, codec.names...),
		Get: func(a *Adapter, card *models.Card) {
			speak := models.NewSpeakToAs()

			gender, ok := "", false
			if codec.read != nil {
				gender, ok = codec.read(a)
			}
			if !ok {
				gender, ok = readGender(a)
			}
			if ok {
				speak.GrammaticalGender = gender
			}

			pronouns := make(map[string]*models.Pronouns)
			for _, f := range a.presentFields(propPronouns) {
				contexts, pref := a.readContexts(f, values.DefaultContexts)
				entry := models.NewPronouns(strings.TrimSpace(f.Value))
				entry.Contexts = contexts
				entry.Pref = pref
				pronouns[keyFor(pronouns, f)] = entry
			}
			speak.Pronouns = values.NilIfEmpty(pronouns)

			if speak.GrammaticalGender != "" || speak.Pronouns != nil {
				card.SpeakToAs = speak
			}
		},
		Set: func(a *Adapter, card *models.Card) error {
			speak := card.SpeakToAs
			if speak == nil {
				return nil
			}

			if gender := speak.GrammaticalGender; gender != "" {
				handled := false
				if codec.write != nil {
					var err error
					if handled, err = codec.write(a, gender); err != nil {
						return err
					}
				}
				if !handled {
					sex, ok := values.SexFromGender(gender)
					if !ok {
						return errors.MappingErrorf("speakToAs: grammatical gender %q has no GENDER equivalent", gender)
					}
					a.add(vcard.FieldGender, sex, nil)
				}
			}

			for _, key := range values.SortedKeys(speak.Pronouns) {
				p := speak.Pronouns[key]
				if p == nil || !values.HasText(p.Pronouns) {
					continue
				}
				tokens, err := contextTokens("speakToAs", p.Contexts, values.DefaultContexts)
				if err != nil {
					return err
				}
				a.add(propPronouns, p.Pronouns, params{}.add("TYPE", tokens...).pref(p.Pref))
			}
			return nil
		},
	}
}

// readGender maps the sex component of GENDER. U and an empty component
// carry no grammatical gender.
func readGender(a *Adapter) (string, bool) {
	for _, f := range a.presentFields(vcard.FieldGender) {
		sex := strings.TrimSpace(values.SplitStructured(f.Value, 1)[0])
		if sex == "" || strings.EqualFold(sex, "U") {
			continue
		}
		gender, ok := values.GenderFromSex(sex)
		if !ok {
			a.warn(f.Name, "Unknown GENDER dropped", logging.String("value", f.Value))
			continue
		}
		return gender, true
	}
	return "", false
}
