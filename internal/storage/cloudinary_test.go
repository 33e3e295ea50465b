// ABOUTME: Tests for Cloudinary parameter building and URL parsing
// ABOUTME: No network: the SDK client is only constructed, never called

package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712345/students/ana.webp": "students/ana",
		"https://res.cloudinary.com/demo/image/upload/students/ana.webp":          "students/ana",
		"https://res.cloudinary.com/demo/image/upload/vendor/logo.png":            "vendor/logo",
		"https://res.cloudinary.com/demo/image/upload/":                           "",
		"https://example.com/photo.png":                                           "",
		"::not a url":                                                             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, publicIDFromURL(in), in)
	}
}

func TestUploadParams_ImagesBecomeWebP(t *testing.T) {
	now := time.Unix(0, 42)
	p := uploadParams("students", "Ana Cruz.PNG", now)

	assert.Equal(t, "students", p.Folder)
	assert.Equal(t, "42-Ana Cruz", p.PublicID)
	assert.Equal(t, "webp", p.Format)
	assert.Equal(t, "q_auto", p.Transformation)
}

func TestUploadParams_OtherFilesUntouched(t *testing.T) {
	p := uploadParams("", "notes.pdf", time.Unix(0, 1))
	assert.Empty(t, p.Format)
	assert.Empty(t, p.Transformation)
}

func TestNewCloudinary_RequiresCredentials(t *testing.T) {
	_, err := NewCloudinary(CloudinaryConfig{CloudName: "demo"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	s, err := NewCloudinary(CloudinaryConfig{
		CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "students",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "students", s.folder)
}
