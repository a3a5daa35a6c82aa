package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "minio", cfg.StorageDriver)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}, cfg.AllowedExtensions)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileBytes())
	assert.Equal(t, int64(100*1024*1024), cfg.MaxVideoBytes())
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "gallery/", cfg.GalleryFolder)
	assert.False(t, cfg.IsProduction())
}

func TestParseNormalizesExtensionsAndFolder(t *testing.T) {
	t.Setenv("ALLOWED_EXTENSIONS", "JPG, .Png ,,webp")
	t.Setenv("GALLERY_FOLDER", "galeri")
	t.Setenv("STORAGE_DRIVER", " S3 ")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, []string{".jpg", ".png", ".webp"}, cfg.AllowedExtensions)
	assert.Equal(t, "galeri/", cfg.GalleryFolder)
	assert.Equal(t, "s3", cfg.StorageDriver)
}

func TestParseRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORAGE_DRIVER", "gcs"},
		{"short secret", "JWT_SECRET", "short"},
		{"bad number", "MAX_FILE_SIZE_MB", "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestProductionRefusesBuiltInCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Parse()
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret-that-is-long-enough-1234")
	_, err = Parse()
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")

	t.Setenv("ADMIN_PASSWORD", "S3cure!pass")
	cfg, err := Parse()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
