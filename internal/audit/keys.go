package audit

import "strings"

// Raw key layout, fixed so external readers of the store can interoperate:
//
//	audit:<id>       event blob
//	audit:<id>:ref   reference count
//	subjects         registry set of all known subjects
//	<subject>        per-subject index list of event IDs
const (
	// RegistryKey is the set holding every subject ever logged against.
	RegistryKey = "subjects"

	keyPrefix = "audit:"
	refSuffix = ":ref"
)

// EventKey returns the key holding the event blob for id.
func EventKey(id string) string { return keyPrefix + id }

// RefKey returns the key holding the reference count for id.
func RefKey(id string) string { return keyPrefix + id + refSuffix }

// reservedSubject reports whether s would collide with a non-index key.
func reservedSubject(s string) bool {
	return s == RegistryKey || strings.HasPrefix(s, keyPrefix)
}
