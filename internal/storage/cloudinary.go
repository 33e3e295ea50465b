// ABOUTME: Cloudinary-backed photo storage for student records
// ABOUTME: Uploads return the public HTTPS URL stored in the student's photo_url

// Package storage uploads and removes student photos in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured is returned when no Cloudinary credentials were given.
var ErrNotConfigured = errors.New("photo storage is not configured")

// CloudinaryConfig holds account credentials and the target folder.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether enough credentials are present to upload.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Cloudinary stores photos in a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

// NewCloudinary creates an uploader. Pass nil logger for default.
func NewCloudinary(cfg CloudinaryConfig, logger *slog.Logger) (*Cloudinary, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initializing cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{
		cld:    cld,
		folder: cfg.Folder,
		logger: logger.With("component", "storage"),
	}, nil
}

// Upload stores the image read from r and returns its secure URL.
func (s *Cloudinary) Upload(ctx context.Context, r io.Reader, filename string) (string, error) {
	params := uploadParams(s.folder, filename, time.Now())

	resp, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("uploading to cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload returned no URL")
	}

	s.logger.Debug("photo uploaded", "public_id", resp.PublicID)
	return resp.SecureURL, nil
}

// Delete removes a previously uploaded photo by its URL. Photos that are
// already gone are not an error.
func (s *Cloudinary) Delete(ctx context.Context, fileURL string) error {
	publicID := publicIDFromURL(fileURL)
	if publicID == "" {
		return fmt.Errorf("not a cloudinary upload URL: %s", fileURL)
	}

	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   publicID,
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("deleting from cloudinary: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy returned %q", resp.Result)
	}
	return nil
}

// uploadParams converts common image formats to compressed WebP.
func uploadParams(folder, filename string, now time.Time) uploader.UploadParams {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       fmt.Sprintf("%d-%s", now.UnixNano(), base),
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
		Overwrite:      api.Bool(false),
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp":
		params.Format = "webp"
		params.Transformation = "q_auto"
	}
	return params
}

// publicIDFromURL turns
// https://res.cloudinary.com/demo/image/upload/v123/students/ana.webp
// into "students/ana".
func publicIDFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx == -1 || idx+1 >= len(parts) {
		return ""
	}

	rest := parts[idx+1:]
	if len(rest) > 1 && isVersion(rest[0]) {
		rest = rest[1:]
	}

	id := strings.Join(rest, "/")
	return strings.TrimSuffix(id, filepath.Ext(id))
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
