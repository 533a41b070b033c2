// Package uploads stores meme images on local disk and serves them under a URL prefix.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/memeboard/internal/domain"
)

const (
	maxBaseLength = 64
	maxNameTries  = 10
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// DiskStore writes uploads into dir and returns URLs of the form prefix/<name>.
type DiskStore struct {
	dir      string
	prefix   string
	maxBytes int64
	clock    clockwork.Clock
}

var _ domain.ImageStore = (*DiskStore)(nil)

func NewDiskStore(dir, prefix string, maxBytes int64, clock clockwork.Clock) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{
		dir:      dir,
		prefix:   strings.TrimRight(prefix, "/"),
		maxBytes: maxBytes,
		clock:    clock,
	}, nil
}

// Ready reports whether the upload directory still accepts new files.
func (s *DiskStore) Ready(_ context.Context) error {
	f, err := os.CreateTemp(s.dir, ".ready-*")
	if err != nil {
		return fmt.Errorf("upload dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove readiness probe file: %w", err)
	}
	return nil
}

// Check validates an upload's name, content type and declared size without reading it.
func (s *DiskStore) Check(u domain.Upload) error {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: only .jpg, .jpeg and .png images are allowed", domain.ErrInvalidInput)
	}
	if ct := strings.ToLower(u.ContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %q is not an image", domain.ErrInvalidInput, u.ContentType)
	}
	if u.Size > s.maxBytes {
		return fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, s.maxBytes)
	}
	return nil
}

func (s *DiskStore) Save(ctx context.Context, u domain.Upload) (string, error) {
	if err := s.Check(u); err != nil {
		return "", err
	}

	name, f, err := s.create(u.Filename)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, name)

	// Read one byte past the limit to detect bodies that lie about their size.
	n, copyErr := io.Copy(f, io.LimitReader(u.Body, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write image: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close image file: %w", closeErr)
	case n > s.maxBytes:
		err = fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, s.maxBytes)
	case n == 0:
		err = fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	if err != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			slog.ErrorContext(ctx, "Failed to remove partial upload", "path", target, "error", rmErr)
		}
		return "", err
	}

	return s.prefix + "/" + name, nil
}

// Delete removes the file behind url. Unknown files are not an error.
func (s *DiskStore) Delete(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.prefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return fmt.Errorf("image url %q is outside %s", url, s.prefix)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// create opens a new file for original, adding a numeric suffix when an
// upload with the same name landed in the same millisecond.
func (s *DiskStore) create(original string) (string, *os.File, error) {
	for try := 1; try <= maxNameTries; try++ {
		name := s.filename(original, try)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to create image file: %w", err)
		}
		return name, f, nil
	}
	return "", nil, fmt.Errorf("failed to create image file: %d names taken for %q", maxNameTries, original)
}

// filename builds <unixmillis>-<sanitized base><ext>, or
// <unixmillis>-<sanitized base>-<try><ext> for retries.
func (s *DiskStore) filename(original string, try int) string {
	original = path.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(original))
	base := sanitize(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	if try > 1 {
		base = fmt.Sprintf("%s-%d", base, try)
	}
	return fmt.Sprintf("%d-%s%s", s.clock.Now().UnixMilli(), base, ext)
}

func sanitize(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.':
			b.WriteRune('-')
		}
		if b.Len() >= maxBaseLength {
			break
		}
	}
	return strings.Trim(b.String(), "-_")
}
