// Package jscontact maps vCard properties onto JSContact cards and back.
//
// The mapping is a table of rules, one per JSContact property. Each rule
// names the vCard properties it reads and writes and carries a Get function
// (vCard to JSON) and a Set function (JSON to vCard). Vendor dialects are
// overlays that replace rules of the standard table by JSON field name.
//
// An Adapter is bound to exactly one vcard.Card at a time and must not be
// shared between goroutines.
package jscontact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-vcard"
	"jmap-bridge/internal/common/errors"
	"jmap-bridge/internal/common/logging"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/models"
	"jmap-bridge/internal/values"
)

// Dialect selects the vendor flavour of vCard that is read and written.
type Dialect string

// Supported dialects
const (
	Standard  Dialect = "standard"
	Nextcloud Dialect = "nextcloud"
	Roundcube Dialect = "roundcube"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{Standard, Nextcloud, Roundcube}

// ParseDialect converts a dialect name. The empty string selects Standard.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case "", Standard:
		return Standard, nil
	case Nextcloud:
		return Nextcloud, nil
	case Roundcube:
		return Roundcube, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown dialect %q", name))
	}
}

// Rule maps one JSContact property. Get fills the property on card from the
// bound vCard and leaves it untouched when nothing meaningful is found. Set
// writes the property of card into the bound vCard; it is a no-op when the
// property is absent and fails with a mapping error when a value has no
// vCard equivalent.
type Rule struct {
	Field       string
	LegacyNames []string
	Get         func(a *Adapter, card *models.Card)
	Set         func(a *Adapter, card *models.Card) error
}

// Overlay replaces rules of a base table by Field. Rules whose Field is not
// in the base table are appended.
type Overlay []Rule

// Apply returns base with the overlay applied. base is not modified.
func (o Overlay) Apply(base []Rule) []Rule {
	out := make([]Rule, len(base))
	copy(out, base)
	for _, rule := range o {
		replaced := false
		for i := range out {
			if out[i].Field == rule.Field {
				out[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, rule)
		}
	}
	return out
}

// Adapter binds one vCard and exposes the rule table of its dialect.
type Adapter struct {
	dialect Dialect
	version string
	rules   []Rule
	card    vcard.Card
	logger  logging.Logger
}

// NewAdapter returns an adapter for dialect bound to an empty vCard. A nil
// logger is replaced by a no-op logger.
func NewAdapter(dialect Dialect, logger logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	a := &Adapter{
		dialect: dialect,
		version: legacy.VCardVersion4,
		logger:  logger.WithFields(logging.Dialect(string(dialect))),
	}

	switch dialect {
	case Nextcloud:
		a.rules = nextcloudOverlay.Apply(standardRules)
	case Roundcube:
		a.rules = roundcubeOverlay.Apply(standardRules)
		a.version = legacy.VCardVersion3
	default:
		a.dialect = Standard
		a.rules = standardRules
	}

	a.Reset()
	return a
}

// Dialect returns the adapter's dialect.
func (a *Adapter) Dialect() Dialect {
	return a.dialect
}

// Rules returns the rule table in mapping order.
func (a *Adapter) Rules() []Rule {
	return a.rules
}

// Bind makes card the adapter's vCard.
func (a *Adapter) Bind(card vcard.Card) {
	if card == nil {
		card = make(vcard.Card)
	}
	a.card = card
}

// Reset binds a fresh vCard carrying only the dialect's VERSION.
func (a *Adapter) Reset() {
	a.card = legacy.NewVCard(a.version)
}

// VCard returns the bound vCard.
func (a *Adapter) VCard() vcard.Card {
	return a.card
}

// Empty reports whether the bound vCard holds no properties at all.
func (a *Adapter) Empty() bool {
	return !legacy.HasProperties(a.card)
}

// Logger returns the adapter's logger.
func (a *Adapter) Logger() logging.Logger {
	return a.logger
}

func (a *Adapter) fields(names ...string) []legacy.VCardField {
	if a.Empty() {
		return nil
	}
	var out []legacy.VCardField
	for _, f := range legacy.Fields(a.card, names...) {
		a.checkParams(f)
		out = append(out, f)
	}
	return out
}

// presentFields is fields without the properties whose value is blank.
func (a *Adapter) presentFields(names ...string) []legacy.VCardField {
	var out []legacy.VCardField
	for _, f := range a.fields(names...) {
		if values.HasText(f.Value) {
			out = append(out, f)
		}
	}
	return out
}

func (a *Adapter) checkParams(f legacy.VCardField) {
	for _, param := range legacy.UnsupportedParams(f.Params) {
		a.logger.Info("Unsupported vCard parameter dropped",
			logging.Property(f.Name),
			logging.String("parameter", param),
		)
	}
}

func (a *Adapter) add(name, value string, params map[string][]string) {
	legacy.AddField(a.card, name, value, params)
}

func (a *Adapter) warn(property, msg string, fields ...logging.Field) {
	a.logger.Warn(msg, append([]logging.Field{logging.Property(property)}, fields...)...)
}

// typeInfo is the interpretation of a TYPE parameter and PREF.
type typeInfo struct {
	values.TypeTokens
	Pref int
}

// readTypes partitions the TYPE parameter of f. The vCard 3 "pref" token and
// the PREF parameter both become Pref. Unknown tokens are returned in
// Unknown for the caller to divert or drop.
func (a *Adapter) readTypes(f legacy.VCardField, contexts values.ContextTable, features map[string]string) typeInfo {
	return a.partitionTypes(f, legacy.TypeTokens(f.Params), contexts, features)
}

// partitionTypes is readTypes over tokens already taken from f.
func (a *Adapter) partitionTypes(f legacy.VCardField, raw []string, contexts values.ContextTable, features map[string]string) typeInfo {
	var tokens []string
	pref := 0
	for _, token := range raw {
		if token == "pref" {
			pref = 1
			continue
		}
		tokens = append(tokens, token)
	}

	info := typeInfo{TypeTokens: values.PartitionTypes(tokens, contexts, features)}
	if p := a.readPref(f); p > 0 {
		pref = p
	}
	info.Pref = pref
	return info
}

// readContexts is readTypes for properties without features. Unknown tokens
// are dropped with a warning.
func (a *Adapter) readContexts(f legacy.VCardField, table values.ContextTable, ignore ...string) (map[string]bool, int) {
	info := a.readTypes(f, table, nil)
	for _, token := range info.Unknown {
		if containsFold(ignore, token) {
			continue
		}
		a.warn(f.Name, "Unknown TYPE value dropped", logging.String("type", token))
	}
	return info.Contexts, info.Pref
}

func (a *Adapter) readPref(f legacy.VCardField) int {
	raw := legacy.Param(f.Params, "PREF")
	if raw == "" {
		return 0
	}
	pref, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || pref < 1 || pref > 100 {
		a.warn(f.Name, "Invalid PREF value dropped", logging.String("pref", raw))
		return 0
	}
	return pref
}

// params is a small builder for vCard parameters.
type params map[string][]string

func (p params) add(name string, values ...string) params {
	for _, v := range values {
		if v != "" {
			p[name] = append(p[name], v)
		}
	}
	return p
}

func (p params) pref(pref int) params {
	if pref > 0 {
		p["PREF"] = []string{strconv.Itoa(pref)}
	}
	return p
}

// contextTokens converts JSON contexts into TYPE tokens. A context the table
// cannot express is a mapping error.
func contextTokens(field string, contexts map[string]bool, table values.ContextTable) ([]string, error) {
	tokens, unknown := values.ContextTokens(contexts, table)
	if len(unknown) > 0 {
		return nil, errors.MappingErrorf("%s: unknown context %q", field, unknown[0])
	}
	return tokens, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// keyFor returns the content key of f, unique within m.
func keyFor[V any](m map[string]V, f legacy.VCardField) string {
	return values.UniqueKey(m, values.ContentKey(f.Name, f.Value))
}

// indexedKeyFor prefers the INDEX parameter over the content key. A repeated
// INDEX falls back to the content key so the INDEX survives the write path
// for the first property only.
func indexedKeyFor[V any](a *Adapter, m map[string]V, f legacy.VCardField) string {
	key, ok := values.IndexedKey(f.Name, legacy.Param(f.Params, "INDEX"))
	if !ok {
		return keyFor(m, f)
	}
	if _, taken := m[key]; taken {
		a.warn(f.Name, "Duplicate INDEX ignored", logging.String("index", legacy.Param(f.Params, "INDEX")))
		return keyFor(m, f)
	}
	return key
}
