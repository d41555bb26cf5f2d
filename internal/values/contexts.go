package values

import (
	"sort"
	"strings"
)

// TypeOther is the vCard TYPE token that explicitly clears contexts.
const TypeOther = "other"

// ContextTable maps vCard TYPE tokens to JSContact context names.
type ContextTable map[string]string

// DefaultContexts is the TYPE vocabulary shared by every contact property.
var DefaultContexts = ContextTable{
	"home": "private",
	"work": "work",
}

// AddressContexts extends DefaultContexts with the address-only tokens.
var AddressContexts = ContextTable{
	"home":    "private",
	"work":    "work",
	"postal":  "postal",
	"billing": "billing",
}

// PhoneFeatures lists the TEL TYPE tokens that become phone features. The
// JSON feature names are the tokens themselves.
var PhoneFeatures = map[string]string{
	"text":      "text",
	"voice":     "voice",
	"fax":       "fax",
	"cell":      "cell",
	"video":     "video",
	"pager":     "pager",
	"textphone": "textphone",
}

// Context returns the JSON context name for a TYPE token.
func (t ContextTable) Context(token string) (string, bool) {
	ctx, ok := t[strings.ToLower(strings.TrimSpace(token))]
	return ctx, ok
}

// Token returns the TYPE token for a JSON context name.
func (t ContextTable) Token(context string) (string, bool) {
	for token, ctx := range t {
		if ctx == context {
			return token, true
		}
	}
	return "", false
}

// Merge returns a new table holding t's entries overlaid with extra.
func (t ContextTable) Merge(extra ContextTable) ContextTable {
	out := make(ContextTable, len(t)+len(extra))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// TypeTokens holds the outcome of partitioning a TYPE parameter.
type TypeTokens struct {
	// Contexts is nil when no context token was present or when "other" was.
	Contexts map[string]bool
	// Features is nil when no feature token was present.
	Features map[string]bool
	// Other is set when the "other" token was present.
	Other bool
	// Unknown keeps the unrecognized tokens in input order.
	Unknown []string
}

// PartitionTypes sorts TYPE tokens into contexts, features and leftovers.
// features may be nil for properties without a feature vocabulary. The
// "other" token forces Contexts to nil.
func PartitionTypes(tokens []string, contexts ContextTable, features map[string]string) TypeTokens {
	var out TypeTokens
	for _, raw := range tokens {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		if token == TypeOther {
			out.Other = true
			continue
		}
		if ctx, ok := contexts[token]; ok {
			if out.Contexts == nil {
				out.Contexts = make(map[string]bool)
			}
			out.Contexts[ctx] = true
			continue
		}
		if feature, ok := features[token]; ok {
			if out.Features == nil {
				out.Features = make(map[string]bool)
			}
			out.Features[feature] = true
			continue
		}
		out.Unknown = append(out.Unknown, strings.TrimSpace(raw))
	}
	if out.Other {
		out.Contexts = nil
	}
	return out
}

// ContextTokens converts a contexts map back into TYPE tokens, sorted for a
// stable output. unknown lists the contexts the table cannot express.
func ContextTokens(contexts map[string]bool, table ContextTable) (tokens []string, unknown []string) {
	for _, ctx := range SortedKeys(contexts) {
		if !contexts[ctx] {
			continue
		}
		token, ok := table.Token(ctx)
		if !ok {
			unknown = append(unknown, ctx)
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, unknown
}

// FeatureTokens converts a features map back into TYPE tokens.
func FeatureTokens(features map[string]bool, table map[string]string) (tokens []string, unknown []string) {
	for _, feature := range SortedKeys(features) {
		if !features[feature] {
			continue
		}
		found := false
		for token, name := range table {
			if name == feature {
				tokens = append(tokens, token)
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, feature)
		}
	}
	return tokens, unknown
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
