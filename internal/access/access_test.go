package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadikoy/service/internal/apperr"
)

func TestAuthorize(t *testing.T) {
	uploaders := AnyOf(RoleAdmin, RolePhotoUploader)

	tests := []struct {
		name string
		id   *Identity
		req  Requirement
		want apperr.Kind
	}{
		{"public anonymous", nil, Public, apperr.KindUnknown},
		{"public with token", &Identity{Roles: []string{"User"}}, Public, apperr.KindUnknown},
		{"anonymous on protected", nil, uploaders, apperr.KindUnauthenticated},
		{"admin", &Identity{Roles: []string{"Admin"}}, uploaders, apperr.KindUnknown},
		{"photo uploader", &Identity{Roles: []string{"PhotoUploader"}}, uploaders, apperr.KindUnknown},
		{"user only", &Identity{Roles: []string{"User"}}, uploaders, apperr.KindInsufficientRole},
		{"no roles", &Identity{}, AnyOf(RoleAdmin), apperr.KindInsufficientRole},
		{"overlap of many", &Identity{Roles: []string{"User", "PhotoUploader"}}, uploaders, apperr.KindUnknown},
		{"uploader on admin op", &Identity{Roles: []string{"PhotoUploader"}}, AnyOf(RoleAdmin), apperr.KindInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.req)
			if tt.want == apperr.KindUnknown {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

// Every subset of roles is accepted iff it intersects the requirement.
func TestAuthorizeIntersectionProperty(t *testing.T) {
	all := []Role{RoleAdmin, RolePhotoUploader, RoleUser}
	reqs := []Requirement{AnyOf(RoleAdmin), AnyOf(RoleAdmin, RolePhotoUploader), AnyOf(RoleUser)}

	for mask := 0; mask < 1<<len(all); mask++ {
		var roles []string
		for i, r := range all {
			if mask&(1<<i) != 0 {
				roles = append(roles, string(r))
			}
		}
		id := &Identity{Roles: roles}
		for _, req := range reqs {
			intersects := false
			for _, have := range roles {
				for _, want := range req.AnyOf {
					if have == string(want) {
						intersects = true
					}
				}
			}
			err := Authorize(id, req)
			if intersects {
				assert.NoError(t, err, "roles=%v req=%s", roles, req)
			} else {
				assert.Equal(t, apperr.KindInsufficientRole, apperr.KindOf(err), "roles=%v req=%s", roles, req)
			}
		}
	}
}

func TestTableLookup(t *testing.T) {
	tbl := NewTable(AnyOf(RoleAdmin)).
		Set("get", "/api/v1/news", Public).
		Set("DELETE", "/api/v1/news/{id}", AnyOf(RoleAdmin))

	req, ok := tbl.Lookup("GET", "/api/v1/news")
	assert.True(t, ok)
	assert.True(t, req.IsPublic())

	req, ok = tbl.Lookup("PATCH", "/api/v1/unknown")
	assert.False(t, ok)
	assert.Equal(t, "Admin", req.String())

	assert.Equal(t, []string{"DELETE /api/v1/news/{id}", "GET /api/v1/news"}, tbl.Keys())
}
