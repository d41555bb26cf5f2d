package values

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentKey derives a stable map key from the legacy property name and its
// raw value. Identical input always yields the identical key. The key has no
// meaning beyond that and callers must not parse it.
func ContentKey(name, value string) string {
	sum := xxhash.Sum64String(strings.ToUpper(name) + "\x00" + value)
	return fmt.Sprintf("%016x", sum)
}

// IndexedKey builds the key used for legacy properties that carry an INDEX
// parameter, e.g. "EXPERTISE-2". ok is false when index is not a positive
// integer, in which case the caller falls back to ContentKey.
func IndexedKey(name, index string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n < 1 {
		return "", false
	}
	return fmt.Sprintf("%s-%d", strings.ToUpper(name), n), true
}

// IndexFromKey extracts the INDEX value back out of a key produced by
// IndexedKey for the given legacy name.
func IndexFromKey(name, key string) (string, bool) {
	prefix := strings.ToUpper(name) + "-"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	index := strings.TrimPrefix(key, prefix)
	if n, err := strconv.Atoi(index); err != nil || n < 1 {
		return "", false
	}
	return index, true
}

// UniqueKey returns key, or key suffixed with a counter when it is already
// taken in the map. Two byte-identical legacy properties therefore still get
// two entries, and the suffixes are assigned in input order.
func UniqueKey[V any](m map[string]V, key string) string {
	if _, taken := m[key]; !taken {
		return key
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", key, i)
		if _, taken := m[candidate]; !taken {
			return candidate
		}
	}
}
