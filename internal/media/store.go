package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const MaxImageBytes = 4 << 20

var (
	ErrTooLarge    = errors.New("image too large")
	ErrUnsupported = errors.New("unsupported image type")
)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store keeps uploaded item images in a flat directory. References are
// random file names, never user input.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save sniffs the upload, rejects anything that is not an image and
// returns the stored file name.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxImageBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ctype := http.DetectContentType(head[:n])
	ext, ok := extByType[ctype]
	if !ok {
		return "", ErrUnsupported
	}

	ref := uuid.NewString() + ext
	dst, err := os.OpenFile(filepath.Join(s.Dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(src, MaxImageBytes)))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxImageBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.Dir, ref))
		return "", err
	}
	return ref, nil
}

// Delete removes a stored file. Unknown or malformed refs are ignored.
func (s *Store) Delete(ref string) error {
	p, ok := s.Path(ref)
	if !ok {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves ref inside the media dir, refusing anything that would
// escape it.
func (s *Store) Path(ref string) (string, bool) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", false
	}
	return filepath.Join(s.Dir, ref), true
}
