package runlog

import "github.com/google/uuid"

// Generator produces opaque IDs.
type Generator func() string

// UUID returns a generator emitting UUIDv4 strings.
func UUID() Generator {
	return func() string { return uuid.NewString() }
}

// Prefixed wraps gen so every ID carries a fixed prefix.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}
