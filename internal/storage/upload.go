package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
)

// UploadResult describes a stored file.
// swagger:model UploadResult
type UploadResult struct {
	URL  string `json:"url"`
	Path string `json:"path"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// Uploader validates files before handing them to a Store.
type Uploader struct {
	store    Store
	maxBytes int64
	allowed  []string
}

func NewUploader(store Store, maxBytes int64, allowed []string) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes, allowed: allowed}
}

var ErrTooLarge = errors.New("file too large")

// Upload reads at most maxBytes from r, sniffs the content type from the
// bytes themselves and stores the file at <userID>/<uuid><ext>.
func (u *Uploader) Upload(ctx context.Context, userID string, r io.Reader) (*UploadResult, error) {
	buf, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return nil, apperr.BadRequest("could not read upload")
	}
	if int64(len(buf)) > u.maxBytes {
		return nil, apperr.BadRequest("file too large").Wrap(ErrTooLarge)
	}
	if len(buf) == 0 {
		return nil, apperr.BadRequest("file is empty")
	}

	mt := mimetype.Detect(buf)
	base := strings.ToLower(strings.TrimSpace(strings.Split(mt.String(), ";")[0]))
	if !lo.Contains(u.allowed, base) {
		return nil, apperr.BadRequest("file type %s is not allowed", base)
	}

	path := userID + "/" + uuid.NewString() + mt.Extension()
	url, err := u.store.Put(ctx, path, base, bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &UploadResult{URL: url, Path: path, MIME: base, Size: int64(len(buf))}, nil
}
