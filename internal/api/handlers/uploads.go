package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadMemory = 32 << 20 // 32 MiB in memory, rest spills to disk

// stageUploadedFile copies the named multipart part into tempDir and
// returns the local path. An absent part is not an error; the caller
// decides whether the file was required.
func stageUploadedFile(r *http.Request, field, tempDir string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(tempDir, uuid.New().String()+filepath.Ext(header.Filename))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
