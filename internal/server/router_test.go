package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadikoy/service/internal/access"
	"github.com/kadikoy/service/internal/auth"
	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/news"
	"github.com/kadikoy/service/internal/paging"
	"github.com/kadikoy/service/internal/response"
	"github.com/kadikoy/service/internal/sponsor"
	"github.com/kadikoy/service/internal/user"
)

// countingNews records which store operations ran.
type countingNews struct {
	calls []string
}

func (c *countingNews) List(context.Context, news.Filter, paging.Params) ([]news.Article, int, error) {
	c.calls = append(c.calls, "list")
	return []news.Article{{ID: 1, Title: "Derby day", PublishedAt: time.Now()}}, 1, nil
}

func (c *countingNews) Get(_ context.Context, id int64) (*news.Article, error) {
	c.calls = append(c.calls, "get")
	return &news.Article{ID: id, Title: "Derby day"}, nil
}

func (c *countingNews) Create(context.Context, *news.Article) error {
	c.calls = append(c.calls, "create")
	return nil
}

func (c *countingNews) Update(context.Context, *news.Article) error {
	c.calls = append(c.calls, "update")
	return nil
}

func (c *countingNews) Delete(context.Context, int64) error {
	c.calls = append(c.calls, "delete")
	return nil
}

type noMedia struct{}

func (noMedia) Attach(context.Context, media.AttachInput) (*media.Record, error) {
	return &media.Record{}, nil
}

func (noMedia) DetachAll(context.Context, media.Owner) (int, error) { return 0, nil }

func (noMedia) RecordsFor(context.Context, media.OwnerType, []int64) (map[int64][]media.Record, error) {
	return map[int64][]media.Record{}, nil
}

func (noMedia) PhotoCountsBySport(context.Context) (map[int]int, error) {
	return map[int]int{1: 2}, nil
}

type urlOnlyStore struct{}

func (urlOnlyStore) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("read-only")
}

func (urlOnlyStore) Delete(context.Context, string) error { return errors.New("read-only") }

func (urlOnlyStore) List(context.Context, string) ([]string, error) { return nil, nil }

func (urlOnlyStore) BuildURL(name, folder string) string {
	return "https://kadikoy-media.s3.eu-north-1.amazonaws.com/" + folder + name
}

type oneUser struct {
	u *user.User
}

func (o oneUser) GetByUsername(context.Context, string) (*user.User, error) {
	return nil, user.ErrNotFound
}

func (o oneUser) GetByID(_ context.Context, id int64) (*user.User, error) {
	if o.u == nil || o.u.ID != id {
		return nil, user.ErrNotFound
	}
	return o.u, nil
}

func (o oneUser) EnsureUser(context.Context, user.Seed) (*user.User, error) {
	return o.u, nil
}

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenIssuer
	news    *countingNews
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", "kadikoy-api", "kadikoy-admin", time.Hour)
	store := &countingNews{}
	fullName := "Test Admin"
	users := oneUser{u: &user.User{ID: 5, Username: "tester", Email: "tester@kadikoy.local", FullName: &fullName, Roles: []string{"Admin"}}}

	registry := media.NewRegistry(urlOnlyStore{}, nil, media.NewNamer("gallery/"), media.Policies{}, log)
	router := NewRouter(Deps{
		Log:         log,
		Verifier:    tokens,
		CORSOrigins: []string{"*"},
		Auth:        auth.NewHandler(auth.NewService(users, tokens, log), log),
		Media:       media.NewHandler(registry, 10<<20, log),
		News:        news.NewHandler(news.NewService(store, noMedia{}, log), 100<<20, log),
		Sponsors:    sponsor.NewHandler(sponsor.NewService(nil, nil, log), 10<<20, log),
	})
	return &testServer{handler: router, tokens: tokens, news: store}
}

func (s *testServer) token(t *testing.T, roles ...access.Role) string {
	t.Helper()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	tok, _, err := s.tokens.Issue(&user.User{ID: 5, Username: "tester", Roles: names})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestUserRoleCannotDeleteNews(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodDelete, "/api/v1/news/1", s.token(t, access.RoleUser), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decode(t, rec).Success)
	assert.Empty(t, s.news.calls)
}

func TestAnonymousMutationIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/news"},
		{http.MethodDelete, "/api/v1/news/1"},
		{http.MethodPost, "/api/v1/media/upload"},
		{http.MethodDelete, "/api/v1/media-records/3"},
		{http.MethodGet, "/api/v1/admin/me"},
	} {
		rec := s.do(tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Empty(t, s.news.calls)
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodDelete, "/api/v1/news/1", "forged.token.value", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/news", "forged.token.value", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicReadsNeedNoToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/news?pageNumber=1&pageSize=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)

	rec = s.do(http.MethodGet, "/api/v1/news/1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"list", "get"}, s.news.calls)

	rec = s.do(http.MethodGet, "/api/v1/media/abc.jpg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec).Data.(map[string]interface{})
	assert.Equal(t, "https://kadikoy-media.s3.eu-north-1.amazonaws.com/gallery/abc.jpg", data["fileUrl"])
}

func TestAdminCanDeleteNews(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodDelete, "/api/v1/news/1", s.token(t, access.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"get", "delete"}, s.news.calls)
}

func TestPhotoUploaderScope(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, access.RolePhotoUploader)

	rec := s.do(http.MethodGet, "/api/v1/news/media/photo-stats", tok, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/news", tok, `{"title":"x","content":"y","sportType":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/admin/me", tok, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/admin/me", s.token(t, access.RoleAdmin), "")
	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := decode(t, rec).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tester", data["username"])
	assert.Equal(t, "tester@kadikoy.local", data["email"])
	assert.Equal(t, "Test Admin", data["fullName"])
}

func TestAdminMeForRemovedAccount(t *testing.T) {
	s := newTestServer(t)

	tok, _, err := s.tokens.Issue(&user.User{ID: 77, Username: "gone", Roles: []string{"Admin"}})
	require.NoError(t, err)
	rec := s.do(http.MethodGet, "/api/v1/admin/me", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEveryRouteIsInTable(t *testing.T) {
	s := newTestServer(t)
	table := RouteTable()

	routes, ok := s.handler.(chi.Routes)
	require.True(t, ok)

	walked := map[string]bool{}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route != "/" {
			route = strings.TrimSuffix(route, "/")
		}
		walked[access.Key(method, route)] = true
		_, listed := table.Lookup(method, route)
		assert.True(t, listed, "%s %s missing from route table", method, route)
		return nil
	})
	require.NoError(t, err)
	keys := make([]string, 0, len(walked))
	for k := range walked {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, table.Keys(), keys)
}
