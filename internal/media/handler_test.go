package media

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func galleryRouter(f *fixture) http.Handler {
	h := NewHandler(f.reg, 10*mb, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/media/upload", h.Upload)
	r.Delete("/media/{fileName}", h.Delete)
	return r
}

func multipartPhoto(t *testing.T, folder string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "derby.jpg")
	require.NoError(t, err)
	_, err = part.Write(append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 512)...))
	require.NoError(t, err)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestUploadHandlerFolder(t *testing.T) {
	tests := []struct {
		name    string
		folder  string
		code    int
		uploads int
	}{
		{"default gallery", "", http.StatusCreated, 1},
		{"explicit gallery", "gallery/", http.StatusCreated, 1},
		{"record folder", "news/archery/", http.StatusBadRequest, 0},
		{"unknown folder", "private/", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			body, contentType := multipartPhoto(t, tt.folder)
			req := httptest.NewRequest(http.MethodPost, "/media/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			galleryRouter(f).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.uploads, f.store.uploads)
			for key := range f.store.objects {
				assert.Regexp(t, `^gallery/[0-9a-z]{26}\.jpg$`, key)
			}
		})
	}
}

func TestDeleteHandlerOnlyTouchesGallery(t *testing.T) {
	f := newFixture()
	f.store.objects["gallery/a.jpg"] = nil
	f.store.objects["sponsors/logos/b.png"] = nil
	h := galleryRouter(f)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/b.png?folder=sponsors/logos/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, f.store.objects, "sponsors/logos/b.png")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/media/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, f.store.objects, "gallery/a.jpg")
}
