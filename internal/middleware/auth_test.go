package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kadikoy/service/internal/access"
)

type staticVerifier map[string]*access.Identity

func (v staticVerifier) VerifyIdentity(token string) (*access.Identity, error) {
	if id, ok := v[token]; ok {
		return id, nil
	}
	return nil, errors.New("invalid token")
}

func newGuarded() http.Handler {
	verifier := staticVerifier{
		"admin":    {UserID: 1, Username: "admin", Roles: []string{"Admin"}},
		"uploader": {UserID: 2, Username: "ayse", Roles: []string{"PhotoUploader"}},
	}
	table := access.NewTable(access.AnyOf(access.RoleAdmin)).
		Set(http.MethodGet, "/items/{id}", access.Public).
		Set(http.MethodPost, "/items/{id}/photo", access.AnyOf(access.RoleAdmin, access.RolePhotoUploader))

	r := chi.NewRouter()
	r.Use(Authenticate(verifier, zerolog.Nop()))
	r.Use(Authorize(r, table, zerolog.Nop()))
	echo := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(Username(r.Context())))
	}
	r.Get("/items/{id}", echo)
	r.Post("/items/{id}/photo", echo)
	r.Delete("/items/{id}", echo)
	return r
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthorize(t *testing.T) {
	h := newGuarded()

	tests := []struct {
		name, method, path, token string
		code                      int
		body                      string
	}{
		{"public anonymous", http.MethodGet, "/items/3", "", http.StatusOK, ""},
		{"public with identity", http.MethodGet, "/items/3", "uploader", http.StatusOK, "ayse"},
		{"uploader allowed", http.MethodPost, "/items/3/photo", "uploader", http.StatusOK, "ayse"},
		{"anonymous upload", http.MethodPost, "/items/3/photo", "", http.StatusUnauthorized, ""},
		{"forged token", http.MethodPost, "/items/3/photo", "forged", http.StatusUnauthorized, ""},
		{"unlisted route needs admin", http.MethodDelete, "/items/3", "uploader", http.StatusForbidden, ""},
		{"unlisted route admin", http.MethodDelete, "/items/3", "admin", http.StatusOK, "admin"},
		{"no route", http.MethodGet, "/nothing", "", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticateIgnoresOtherSchemes(t *testing.T) {
	h := newGuarded()
	req := httptest.NewRequest(http.MethodPost, "/items/3/photo", nil)
	req.Header.Set("Authorization", "Basic admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
