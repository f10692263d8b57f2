package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// 8 MiB is plenty for avatar and cover images
const maxUploadBytes = 8 << 20

// mediaStore uploads a local temp file to object storage and returns its
// public URL, removing the temp file regardless of outcome.
type mediaStore interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// saveUploadedFile spools the named multipart file to a temp file and
// returns its path. Empty path and nil error when the field is absent.
func saveUploadedFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close() // nolint:errcheck

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", err
	}

	_, err = io.Copy(tmp, file)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name()) // nolint:errcheck
		return "", err
	}

	return tmp.Name(), nil
}
