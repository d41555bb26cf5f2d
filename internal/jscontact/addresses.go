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

// timeZoneLabel marks the address entry that carries the top-level TZ.
const timeZoneLabel = "timezone"

// ADR stores pobox;ext;street;locality;region;code;country.
const (
	adrPostOfficeBox = iota
	adrExtension
	adrStreet
	adrLocality
	adrRegion
	adrPostcode
	adrCountry
	adrParts
)

var streetOrder = []struct {
	kind  string
	index int
}{
	{models.StreetPostOfficeBox, adrPostOfficeBox},
	{models.StreetExtension, adrExtension},
	{models.StreetName, adrStreet},
}

var addressesRule = Rule{
	Field:       "addresses",
	LegacyNames: []string{vcard.FieldAddress, vcard.FieldTimezone},
	Get: func(a *Adapter, card *models.Card) {
		addresses := make(map[string]*models.Address)

		for _, f := range a.fields(vcard.FieldAddress) {
			address := readAddress(a, f)
			if address == nil {
				continue
			}
			addresses[keyFor(addresses, f)] = address
		}

		for _, f := range a.presentFields(vcard.FieldTimezone) {
			tz := strings.TrimSpace(f.Value)
			if !values.IsTimeZone(tz) {
				a.logger.Error("Unrecognized time zone dropped", nil,
					logging.Property(f.Name),
					logging.String("tz", tz),
				)
				continue
			}
			address := models.NewAddress()
			address.TimeZone = tz
			address.Label = timeZoneLabel
			addresses[keyFor(addresses, f)] = address
		}

		card.Addresses = values.NilIfEmpty(addresses)
	},
	Set: func(a *Adapter, card *models.Card) error {
		for _, key := range values.SortedKeys(card.Addresses) {
			address := card.Addresses[key]
			if address == nil {
				continue
			}
			if address.Label == timeZoneLabel {
				if values.HasText(address.TimeZone) {
					a.add(vcard.FieldTimezone, address.TimeZone, nil)
				}
				continue
			}
			if err := writeAddress(a, address); err != nil {
				return err
			}
		}
		return nil
	},
}

// readAddress maps one ADR. It returns nil when neither the value nor the
// LABEL parameter carries anything.
func readAddress(a *Adapter, f legacy.VCardField) *models.Address {
	parts := values.SplitStructured(f.Value, adrParts)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	address := models.NewAddress()
	for _, s := range streetOrder {
		if parts[s.index] != "" {
			address.Street = append(address.Street, models.NewStreetComponent(s.kind, parts[s.index]))
		}
	}
	address.Locality = parts[adrLocality]
	address.Region = parts[adrRegion]
	address.Postcode = parts[adrPostcode]
	address.Country = parts[adrCountry]
	address.FullAddress = legacy.JoinedParam(f.Params, "LABEL")
	address.Coordinates = legacy.JoinedParam(f.Params, "GEO")
	address.TimeZone = legacy.Param(f.Params, "TZ")
	address.CountryCode = legacy.Param(f.Params, "CC")

	if !values.AnyPresent(parts...) && !values.HasText(address.FullAddress) {
		return nil
	}

	address.Contexts, address.Pref = a.readContexts(f, values.AddressContexts)
	return address
}

func writeAddress(a *Adapter, address *models.Address) error {
	parts := make([]string, adrParts)
	var street []string
	for _, c := range address.Street {
		if c == nil || !values.HasText(c.Value) {
			continue
		}
		switch c.Type {
		case models.StreetPostOfficeBox:
			parts[adrPostOfficeBox] = joinSpace(parts[adrPostOfficeBox], c.Value)
		case models.StreetExtension:
			parts[adrExtension] = joinSpace(parts[adrExtension], c.Value)
		default:
			street = append(street, c.Value)
		}
	}
	parts[adrStreet] = strings.Join(street, " ")
	parts[adrLocality] = address.Locality
	parts[adrRegion] = address.Region
	parts[adrPostcode] = address.Postcode
	parts[adrCountry] = address.Country

	if !values.AnyPresent(parts...) && !values.HasText(address.FullAddress) {
		return nil
	}

	tokens, err := contextTokens("addresses", address.Contexts, values.AddressContexts)
	if err != nil {
		return err
	}
	if address.TimeZone != "" && !values.IsTimeZone(address.TimeZone) {
		return errors.MappingErrorf("addresses: unknown time zone %q", address.TimeZone)
	}

	p := params{}.add("TYPE", tokens...).pref(address.Pref)
	p.add("LABEL", address.FullAddress)
	p.add("GEO", address.Coordinates)
	p.add("TZ", address.TimeZone)
	p.add("CC", address.CountryCode)
	a.add(vcard.FieldAddress, values.JoinStructured(parts...), p)
	return nil
}

func joinSpace(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
