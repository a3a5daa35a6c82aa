// Package access decides whether an identity may invoke an operation.
//
// Required roles are data: a Table maps "METHOD /route/pattern" to a Requirement,
// and a single middleware consults it for every request. A Requirement with no
// roles is public; otherwise any one matching role is enough.
package access

import (
	"sort"
	"strings"

	"github.com/kadikoy/service/internal/apperr"
)

// Role is a role name carried in token claims.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RolePhotoUploader Role = "PhotoUploader"
	RoleUser          Role = "User"
)

// Identity is the verified caller of a request.
type Identity struct {
	UserID   int64
	Username string
	Roles    []string
}

// HasAnyRole reports whether the identity carries at least one of roles.
func (id *Identity) HasAnyRole(roles ...Role) bool {
	if id == nil {
		return false
	}
	for _, have := range id.Roles {
		for _, want := range roles {
			if have == string(want) {
				return true
			}
		}
	}
	return false
}

// Requirement is the role set an operation needs.
type Requirement struct {
	AnyOf []Role
}

// Public is the requirement of anonymous operations.
var Public = Requirement{}

// AnyOf builds a requirement satisfied by any one of roles.
func AnyOf(roles ...Role) Requirement {
	return Requirement{AnyOf: roles}
}

// IsPublic reports whether the requirement admits anonymous callers.
func (r Requirement) IsPublic() bool { return len(r.AnyOf) == 0 }

func (r Requirement) String() string {
	if r.IsPublic() {
		return "public"
	}
	names := make([]string, len(r.AnyOf))
	for i, role := range r.AnyOf {
		names[i] = string(role)
	}
	return strings.Join(names, "|")
}

// Authorize allows the call, or returns an Unauthenticated or InsufficientRole error.
func Authorize(id *Identity, req Requirement) error {
	if req.IsPublic() {
		return nil
	}
	if id == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if !id.HasAnyRole(req.AnyOf...) {
		return apperr.InsufficientRole("requires one of roles: " + req.String())
	}
	return nil
}

// Table maps operation keys ("METHOD /pattern") to requirements.
type Table struct {
	entries  map[string]Requirement
	fallback Requirement
}

// NewTable returns a table whose unlisted operations require fallback.
func NewTable(fallback Requirement) *Table {
	return &Table{entries: make(map[string]Requirement), fallback: fallback}
}

// Set registers the requirement of method+pattern and returns the table.
func (t *Table) Set(method, pattern string, req Requirement) *Table {
	t.entries[Key(method, pattern)] = req
	return t
}

// Lookup returns the requirement for method+pattern and whether it was listed.
func (t *Table) Lookup(method, pattern string) (Requirement, bool) {
	req, ok := t.entries[Key(method, pattern)]
	if !ok {
		return t.fallback, false
	}
	return req, true
}

// Keys lists registered operation keys, sorted.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key is the table key for method and pattern.
func Key(method, pattern string) string {
	return strings.ToUpper(method) + " " + pattern
}
