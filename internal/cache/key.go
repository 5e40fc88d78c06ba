package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached query: an entity name followed by parameters,
// e.g. Key{"gifts", filter} or Key{"persons", 7}.
type Key []any

// Hash returns the canonical serialization of k. Object parameters are
// normalized so field order never matters; two keys are equal iff their
// hashes are equal.
func (k Key) Hash() string {
	return joinParts(k.parts())
}

// String is Hash.
func (k Key) String() string { return k.Hash() }

// Equal reports whether k and other are the same canonical key.
func (k Key) Equal(other Key) bool { return k.Hash() == other.Hash() }

// HasPrefix reports whether the first len(prefix) elements of k equal prefix.
func (k Key) HasPrefix(prefix Key) bool {
	return hasPrefix(k.parts(), prefix.parts())
}

// Append returns a new key with elems appended.
func (k Key) Append(elems ...any) Key {
	out := make(Key, 0, len(k)+len(elems))
	out = append(out, k...)
	return append(out, elems...)
}

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, el := range k {
		out[i] = canonical(el)
	}
	return out
}

func joinParts(parts []string) string {
	return "[" + strings.Join(parts, ",") + "]"
}

func hasPrefix(parts, prefix []string) bool {
	if len(prefix) > len(parts) {
		return false
	}
	for i := range prefix {
		if parts[i] != prefix[i] {
			return false
		}
	}
	return true
}

// canonical marshals v, then round-trips it through a generic value so
// structs and maps with the same fields produce identical JSON with sorted
// keys.
func canonical(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return string(data)
	}
	out, err := json.Marshal(generic)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// ParseKey rebuilds a key from its hash.
func ParseKey(hash string) (Key, error) {
	dec := json.NewDecoder(strings.NewReader(hash))
	dec.UseNumber()
	var k []any
	if err := dec.Decode(&k); err != nil {
		return nil, fmt.Errorf("parse key %q: %w", hash, err)
	}
	return Key(k), nil
}

// Filter selects cache entries.
type Filter struct {
	// Key is matched exactly or as an element-wise prefix. An empty key
	// with Exact false matches every entry.
	Key   Key
	Exact bool
	// Predicate, if set, must also return true.
	Predicate func(Key) bool
}

// Exact returns a filter matching only k.
func Exact(k Key) Filter { return Filter{Key: k, Exact: true} }

// Prefix returns a filter matching k and every key that starts with it.
func Prefix(k Key) Filter { return Filter{Key: k} }

// All matches every entry.
func All() Filter { return Filter{} }

type compiledFilter struct {
	f     Filter
	hash  string
	parts []string
}

func (f Filter) compile() compiledFilter {
	parts := f.Key.parts()
	return compiledFilter{f: f, hash: joinParts(parts), parts: parts}
}

func (cf compiledFilter) match(e *entry) bool {
	if cf.f.Exact {
		if e.hash != cf.hash {
			return false
		}
	} else if !hasPrefix(e.parts, cf.parts) {
		return false
	}
	if cf.f.Predicate != nil && !cf.f.Predicate(e.key) {
		return false
	}
	return true
}
