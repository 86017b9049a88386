package audiofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotAudio     = errors.New("file is not an audio file")
	ErrFileTooLarge = errors.New("file exceeds upload limit")
)

var audioExtensions = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".webm": "audio/webm",
}

func contentTypeFor(name string) string {
	if ct, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return ""
}

type Uploader struct {
	store    *Store
	dir      string
	maxBytes int64
}

func NewUploader(store *Store, dir string, maxBytes int64) *Uploader {
	return &Uploader{
		store:    store,
		dir:      dir,
		maxBytes: maxBytes,
	}
}

// Check reports whether fh would be accepted by Save without writing anything.
func (u *Uploader) Check(fh *multipart.FileHeader) error {
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
	}
	if detectContentType(fh) == "" {
		return fmt.Errorf("%w: %s", ErrNotAudio, fh.Filename)
	}
	return nil
}

func (u *Uploader) Save(ctx context.Context, fh *multipart.FileHeader) (*AudioFile, error) {
	if err := u.Check(fh); err != nil {
		return nil, err
	}
	contentType := detectContentType(fh)

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := "upload-" + uuid.NewString()
	dst := filepath.Join(u.dir, id+strings.ToLower(filepath.Ext(fh.Filename)))

	size, err := u.copy(fh, dst)
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}

	f := &AudioFile{
		ID:          id,
		Name:        filepath.Base(fh.Filename),
		URL:         "/v1/files/" + id + "/content",
		Source:      SourceUpload,
		ContentType: contentType,
		Size:        size,
		StoragePath: dst,
	}
	if err := u.store.Create(ctx, f); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	return f, nil
}

func (u *Uploader) Remove(ctx context.Context, f *AudioFile) error {
	if err := u.store.Delete(ctx, f.ID); err != nil {
		return err
	}
	if f.StoragePath != "" {
		if err := os.Remove(f.StoragePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (u *Uploader) copy(fh *multipart.FileHeader, dst string) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}

	var r io.Reader = src
	if u.maxBytes > 0 {
		r = io.LimitReader(src, u.maxBytes+1)
	}

	n, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("write upload file: %w", err)
	}
	if u.maxBytes > 0 && n > u.maxBytes {
		return n, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
	}
	return n, nil
}

func detectContentType(fh *multipart.FileHeader) string {
	if header := fh.Header.Get("Content-Type"); header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mt, "audio/") {
			return mt
		}
	}
	return contentTypeFor(fh.Filename)
}
