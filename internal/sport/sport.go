// Package sport enumerates the club's sport branches.
package sport

import "fmt"

// Type is a sport branch. Values are persisted as integers.
type Type int

const (
	All Type = iota
	Archery
	Basketball
	Volleyball
)

// Types lists every known sport type in declaration order.
var Types = []Type{All, Archery, Basketball, Volleyball}

var names = map[Type]string{
	All:        "All",
	Archery:    "Archery",
	Basketball: "Basketball",
	Volleyball: "Volleyball",
}

var slugs = map[Type]string{
	All:        "all",
	Archery:    "archery",
	Basketball: "basketball",
	Volleyball: "volleyball",
}

// Valid reports whether t is a known sport type.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Slug is the lowercase path segment used in storage folders.
func (t Type) Slug() string {
	if s, ok := slugs[t]; ok {
		return s
	}
	return "other"
}

// Parse converts an integer into a Type.
func Parse(v int) (Type, error) {
	t := Type(v)
	if !t.Valid() {
		return 0, fmt.Errorf("unknown sport type %d (expected 0-%d)", v, len(Types)-1)
	}
	return t, nil
}
