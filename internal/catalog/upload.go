// AngelaMos | 2026
// upload.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/carterperez-dev/storefront/internal/storage"
)

var (
	ErrImageRequired = errors.New("image is required")
	ErrImageTooLarge = errors.New("image too large")
	ErrImageType     = errors.New("only .jpg, .png, and .webp formats are supported")
)

var acceptedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Uploader validates images and stores them.
type Uploader struct {
	store    storage.Store
	maxBytes int64
}

func NewUploader(store storage.Store, maxBytes int64) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes}
}

func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// UploadAll stores every non-empty file under prefix. Nothing is left behind
// when one of them is rejected.
func (u *Uploader) UploadAll(
	ctx context.Context,
	prefix string,
	files []*multipart.FileHeader,
) ([]string, error) {
	var urls []string
	for _, fh := range files {
		if fh.Size == 0 {
			continue
		}

		url, err := u.upload(ctx, prefix, fh)
		if err != nil {
			u.DeleteAll(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}

	if len(urls) == 0 {
		return nil, ErrImageRequired
	}
	return urls, nil
}

func (u *Uploader) upload(
	ctx context.Context,
	prefix string,
	fh *multipart.FileHeader,
) (string, error) {
	if fh.Size > u.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, fh.Filename, u.maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only multipart part

	contentType, err := sniffImage(f)
	if err != nil {
		return "", err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := strings.ReplaceAll(fh.Filename, " ", "_")
	return u.store.Upload(ctx, prefix, name, contentType, f)
}

// DeleteAll removes the objects behind urls. Failures are ignored since an
// orphaned object is harmless.
func (u *Uploader) DeleteAll(ctx context.Context, urls []string) {
	for _, url := range urls {
		key, ok := u.store.KeyFromURL(url)
		if !ok {
			continue
		}
		//nolint:errcheck // best-effort cleanup
		_ = u.store.Delete(ctx, key)
	}
}

func sniffImage(r io.Reader) (string, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect image type: %w", err)
	}

	for _, accepted := range acceptedImageTypes {
		if mime.Is(accepted) {
			return accepted, nil
		}
	}
	return "", ErrImageType
}
