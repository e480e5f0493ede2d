// Package blobstore stores invoice attachments on local disk or in Google Cloud Storage.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidPath = errors.New("invalid blob path")
)

// Store is the attachment storage used by procurement receiving.
type Store interface {
	// Save writes r under name and returns the reference to persist.
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SafeName replaces every character outside [A-Za-z0-9._-] with an underscore.
func SafeName(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	if safe == "" || safe == "." || safe == ".." {
		return "file"
	}
	return safe
}

// ObjectName builds <owner>-<unix millis>-<index>-<8 random hex>-<safe name>.
// Files of one upload differ by index; the random part separates uploads in the same millisecond.
func ObjectName(owner string, at time.Time, index int, original string) string {
	return fmt.Sprintf("%s-%d-%d-%s-%s", owner, at.UnixMilli(), index, uuid.NewString()[:8], SafeName(original))
}
