// Package extract turns brokerage screenshots into candidate snapshot figures.
//
// A candidate is untrusted: it only pre-fills the confirmation form, and the
// derived total and remaining are always recomputed when it is recorded.
package extract

import (
	"context"
	"errors"

	"wealthnav/internal/core"
)

// MaxImages bounds how many screenshots one extraction may look at.
const MaxImages = 3

var (
	// ErrNoCandidate means the screenshots did not yield all three figures.
	// Callers fall back to manual entry.
	ErrNoCandidate = errors.New("no candidate extracted")
	ErrNoImages    = errors.New("no images supplied")
	ErrTooMany     = errors.New("too many images")
)

// Image is one uploaded screenshot.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extractor reads cash, spot and margin figures out of screenshots.
type Extractor interface {
	Extract(ctx context.Context, images ...Image) (core.Entry, error)
}

// Commentator writes a short remark on the current figures.
type Commentator interface {
	Comment(ctx context.Context, m core.Metrics) (string, error)
}

func checkImages(images []Image) error {
	switch {
	case len(images) == 0:
		return ErrNoImages
	case len(images) > MaxImages:
		return ErrTooMany
	}
	for _, img := range images {
		if len(img.Data) == 0 {
			return ErrNoImages
		}
	}
	return nil
}
