package jscontact

import (
	"encoding/base64"
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

var emailsRule = Rule{
	Field:       "emails",
	LegacyNames: []string{vcard.FieldEmail},
	Get: func(a *Adapter, card *models.Card) {
		emails := make(map[string]*models.EmailAddress)
		for _, f := range a.presentFields(vcard.FieldEmail) {
			contexts, pref := a.readContexts(f, values.DefaultContexts, "internet", "x400")
			entry := models.NewEmailAddress(strings.TrimSpace(f.Value))
			entry.Contexts = contexts
			entry.Pref = pref
			emails[keyFor(emails, f)] = entry
		}
		card.Emails = values.NilIfEmpty(emails)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, key := range values.SortedKeys(card.Emails) {
			email := card.Emails[key]
			if email == nil || !values.HasText(email.Address) {
				continue
			}
			tokens, err := contextTokens("emails", email.Contexts, values.DefaultContexts)
			if err != nil {
				return err
			}
			a.add(vcard.FieldEmail, email.Address, params{}.add("TYPE", tokens...).pref(email.Pref))
		}
		return nil
	},
}

// phoneOptions holds the dialect differences of the TEL mapping.
type phoneOptions struct {
	// writeOther writes TYPE=other for a phone without contexts.
	writeOther bool
	// upper writes TYPE tokens in upper case.
	upper bool
	// contexts adds dialect context tokens to the default vocabulary.
	contexts values.ContextTable
	// composites expands a dialect token into standard tokens on read.
	composites map[string][]string
}

func phonesRule(opts phoneOptions) Rule {
	table := values.DefaultContexts
	if opts.contexts != nil {
		table = table.Merge(opts.contexts)
	}

	return Rule{
		Field:       "phones",
		LegacyNames: []string{vcard.FieldTelephone},
		Get: func(a *Adapter, card *models.Card) {
			phones := make(map[string]*models.Phone)
			for _, f := range a.presentFields(vcard.FieldTelephone) {
				var tokens []string
				for _, token := range legacy.TypeTokens(f.Params) {
					if expanded, ok := opts.composites[token]; ok {
						tokens = append(tokens, expanded...)
						continue
					}
					tokens = append(tokens, token)
				}

				info := a.partitionTypes(f, tokens, table, values.PhoneFeatures)
				phone := models.NewPhone(strings.TrimSpace(f.Value))
				phone.Contexts = info.Contexts
				phone.Features = info.Features
				phone.Pref = info.Pref
				if len(info.Unknown) > 0 {
					a.logger.Info("Unknown TEL type kept as label",
						logging.Property(f.Name),
						logging.Strings("types", info.Unknown),
					)
					phone.Label = strings.Join(info.Unknown, ",")
				}
				phones[keyFor(phones, f)] = phone
			}
			card.Phones = values.NilIfEmpty(phones)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.Phones) {
				phone := card.Phones[key]
				if phone == nil || !values.HasText(phone.Phone) {
					continue
				}

				tokens, err := contextTokens("phones", phone.Contexts, values.DefaultContexts)
				if err != nil {
					return err
				}
				if len(tokens) == 0 && opts.writeOther {
					tokens = append(tokens, values.TypeOther)
				}

				features, unknown := values.FeatureTokens(phone.Features, values.PhoneFeatures)
				if len(unknown) > 0 {
					return errors.MappingErrorf("phones: unknown feature %q", unknown[0])
				}
				tokens = append(tokens, features...)
				tokens = append(tokens, values.SplitList(phone.Label, ",")...)

				if opts.upper {
					for i := range tokens {
						tokens[i] = strings.ToUpper(tokens[i])
					}
				}
				a.add(vcard.FieldTelephone, phone.Phone, params{}.add("TYPE", tokens...).pref(phone.Pref))
			}
			return nil
		},
	}
}

// onlineProperty is one vCard property folded into online.
type onlineProperty struct {
	name string
	kind string
	// label defaults to the lower case property name.
	label string
	// network stores the first non-context TYPE token after "label:".
	network bool
	indexed bool
}

func (p onlineProperty) defaultLabel() string {
	if p.label != "" {
		return p.label
	}
	return strings.ToLower(p.name)
}

var standardOnline = []onlineProperty{
	{name: vcard.FieldSource, kind: models.ResourceURI},
	{name: vcard.FieldIMPP, kind: models.ResourceURI},
	{name: vcard.FieldLogo, kind: models.ResourceURI},
	{name: propContactURI, kind: models.ResourceURI},
	{name: propOrgDirectory, kind: models.ResourceURI, indexed: true},
	{name: vcard.FieldSound, kind: models.ResourceURI},
	{name: vcard.FieldURL, kind: models.ResourceURI},
	{name: vcard.FieldKey, kind: models.ResourceURI},
	{name: vcard.FieldFreeOrBusyURL, kind: models.ResourceURI},
	{name: vcard.FieldCalendarAddressURI, kind: models.ResourceURI},
	{name: vcard.FieldCalendarURI, kind: models.ResourceURI},
}

// onlineRule maps the URI-valued vCard properties. extra is appended to the
// standard property list.
func onlineRule(extra []onlineProperty) Rule {
	props := append(append([]onlineProperty{}, standardOnline...), extra...)
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.name)
	}

	return Rule{
		Field:       "online",
		LegacyNames: names,
		Get: func(a *Adapter, card *models.Card) {
			online := make(map[string]*models.Resource)
			for _, p := range props {
				for _, f := range a.presentFields(p.name) {
					resource := models.NewResource(strings.TrimSpace(f.Value), p.kind, p.defaultLabel())
					resource.MediaType = legacy.Param(f.Params, "MEDIATYPE")

					if p.network {
						info := a.readTypes(f, values.DefaultContexts, nil)
						resource.Contexts, resource.Pref = info.Contexts, info.Pref
						if len(info.Unknown) > 0 {
							resource.Label += ":" + strings.ToLower(info.Unknown[0])
						}
					} else {
						resource.Contexts, resource.Pref = a.readContexts(f, values.DefaultContexts)
					}

					key := keyFor(online, f)
					if p.indexed {
						key = indexedKeyFor(a, online, f)
					}
					online[key] = resource
				}
			}
			card.Online = values.NilIfEmpty(online)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.Online) {
				resource := card.Online[key]
				if resource == nil || !values.HasText(resource.Resource) {
					continue
				}

				prop, network := onlineTarget(props, resource.Label)
				tokens, err := contextTokens("online", resource.Contexts, values.DefaultContexts)
				if err != nil {
					return err
				}
				p := params{}.add("TYPE", append(tokens, network)...).pref(resource.Pref)
				p.add("MEDIATYPE", resource.MediaType)
				if prop.indexed {
					if index, ok := values.IndexFromKey(prop.name, key); ok {
						p.add("INDEX", index)
					}
				}
				a.add(prop.name, resource.Resource, p)
			}
			return nil
		},
	}
}

// onlineTarget finds the property a resource label is written to. Labels
// nobody claims go to URL.
func onlineTarget(props []onlineProperty, label string) (onlineProperty, string) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, p := range props {
		if p.network {
			if prefix := p.defaultLabel(); label == prefix || strings.HasPrefix(label, prefix+":") {
				return p, strings.TrimPrefix(strings.TrimPrefix(label, prefix), ":")
			}
			continue
		}
		if label == p.defaultLabel() {
			return p, ""
		}
	}
	return onlineProperty{name: vcard.FieldURL, kind: models.ResourceURI}, ""
}

// photosRule maps PHOTO. With inline set, data: URIs are written as vCard 3
// ENCODING=b values.
func photosRule(inline bool) Rule {
	return Rule{
		Field:       "photos",
		LegacyNames: []string{vcard.FieldPhoto},
		Get: func(a *Adapter, card *models.Card) {
			photos := make(map[string]*models.File)
			for _, f := range a.presentFields(vcard.FieldPhoto) {
				href := strings.TrimSpace(f.Value)
				mediaType := legacy.Param(f.Params, "MEDIATYPE")

				if encoding := legacy.Param(f.Params, "ENCODING"); strings.EqualFold(encoding, "b") || strings.EqualFold(encoding, "base64") {
					if mediaType == "" {
						if types := legacy.TypeTokens(f.Params); len(types) > 0 {
							mediaType = "image/" + types[0]
						}
					}
					href = "data:" + mediaType + ";base64," + strings.Join(strings.Fields(href), "")
				} else if mediaType == "" {
					mediaType = dataURIMediaType(href)
				}

				photo := models.NewFile(href)
				photo.MediaType = mediaType
				photo.Pref = a.readPref(f)
				photos[keyFor(photos, f)] = photo
			}
			card.Photos = values.NilIfEmpty(photos)
		},
		Set: func(a *Adapter, card *models.Card) error {
			for _, key := range values.SortedKeys(card.Photos) {
				photo := card.Photos[key]
				if photo == nil || !values.HasText(photo.Href) {
					continue
				}

				if inline {
					if mediaType, data, ok := splitDataURI(photo.Href); ok {
						p := params{}.add("ENCODING", "b")
						p.add("TYPE", strings.ToUpper(strings.TrimPrefix(mediaType, "image/")))
						a.add(vcard.FieldPhoto, data, p)
						continue
					}
				}
				p := params{}.add("MEDIATYPE", photo.MediaType).pref(photo.Pref)
				a.add(vcard.FieldPhoto, photo.Href, p)
			}
			return nil
		},
	}
}

// dataURIMediaType returns the media type of a data: URI, or "".
func dataURIMediaType(href string) string {
	mediaType, _, ok := splitDataURI(href)
	if !ok {
		return ""
	}
	return mediaType
}

// splitDataURI splits "data:<type>;base64,<data>". Data that does not decode
// as base64 is rejected.
func splitDataURI(href string) (mediaType, data string, ok bool) {
	if !strings.HasPrefix(strings.ToLower(href), "data:") {
		return "", "", false
	}
	header, data, found := strings.Cut(href[len("data:"):], ",")
	if !found {
		return "", "", false
	}
	mediaType, encoding, _ := strings.Cut(header, ";")
	if !strings.EqualFold(encoding, "base64") {
		return "", "", false
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return "", "", false
	}
	return mediaType, data, true
}

var languagesRule = Rule{
	Field:       "preferredContactLanguages",
	LegacyNames: []string{vcard.FieldLanguage},
	Get: func(a *Adapter, card *models.Card) {
		languages := make(map[string][]*models.ContactLanguage)
		for _, f := range a.presentFields(vcard.FieldLanguage) {
			tag := strings.TrimSpace(f.Value)
			lang := models.NewContactLanguage()
			lang.Contexts, lang.Pref = a.readContexts(f, values.DefaultContexts)
			languages[tag] = append(languages[tag], lang)
		}
		card.PreferredContactLanguages = values.NilIfEmpty(languages)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, tag := range values.SortedKeys(card.PreferredContactLanguages) {
			if !values.HasText(tag) {
				continue
			}
			prefs := card.PreferredContactLanguages[tag]
			if len(prefs) == 0 {
				a.add(vcard.FieldLanguage, tag, nil)
				continue
			}
			for _, lang := range prefs {
				if lang == nil {
					lang = models.NewContactLanguage()
				}
				tokens, err := contextTokens("preferredContactLanguages", lang.Contexts, values.DefaultContexts)
				if err != nil {
					return err
				}
				a.add(vcard.FieldLanguage, tag, params{}.add("TYPE", tokens...).pref(lang.Pref))
			}
		}
		return nil
	},
}
