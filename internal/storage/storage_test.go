package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadikoy/service/internal/apperr"
)

func TestURLBuilder(t *testing.T) {
	tests := []struct {
		name       string
		publicBase string
		want       string
	}{
		{"aws default", "", "https://club-media.s3.eu-north-1.amazonaws.com/gallery/abc.jpg"},
		{"public base override", "http://localhost:9000/club-media/", "http://localhost:9000/club-media/gallery/abc.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewURLBuilder("club-media", "eu-north-1", tt.publicBase)
			assert.Equal(t, tt.want, b.BuildURL("abc.jpg", "gallery/"))
			assert.Equal(t, tt.want, b.PublicURL("gallery/abc.jpg"))
		})
	}
}

func TestStripPrefix(t *testing.T) {
	got := stripPrefix("gallery/", []string{"gallery/a", "gallery/b", "gallery/c", "gallery/"})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
}

type failingStore struct{}

func (failingStore) Upload(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("connection reset")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("connection reset") }
func (failingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}
func (failingStore) BuildURL(name, folder string) string { return folder + name }

func TestInstrumentedClassifiesFailures(t *testing.T) {
	s := WithMetrics(failingStore{})
	ctx := context.Background()

	_, err := s.Upload(ctx, "k", nil, 0, "image/jpeg")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	assert.Equal(t, apperr.KindStorage, apperr.KindOf(s.Delete(ctx, "k")))

	_, err = s.List(ctx, "gallery/")
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	assert.Equal(t, "gallery/a.jpg", s.BuildURL("a.jpg", "gallery/"))
	assert.NoError(t, s.Health(ctx))
}
