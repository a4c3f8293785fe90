package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/jonathan/grant-portal/internal/storage"
	"github.com/jonathan/grant-portal/internal/types"
)

// multipartOverhead allows for form boundaries and headers on top of the
// file payloads.
const multipartOverhead = 1 << 20

// readUploads reads up to maxFiles files of at most maxSize bytes from the
// multipart field. Size and type checks beyond the body cap are left to the
// storage package.
func readUploads(w http.ResponseWriter, r *http.Request, field string, maxFiles int, maxSize int64) ([]storage.Object, error) {
	limit := int64(maxFiles)*maxSize + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, types.NewValidation(field, "Upload is too large")
		}
		return nil, types.NewValidation(field, "Expected a multipart/form-data upload")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[field]
	if len(headers) > maxFiles {
		return nil, types.NewValidation(field, fmt.Sprintf("A maximum of %d files can be uploaded at once", maxFiles))
	}

	objs := make([]storage.Object, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxSize {
			return nil, types.NewValidation(field, fmt.Sprintf("%s exceeds the %dMB limit", fh.Filename, maxSize>>20))
		}
		obj, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func readPart(fh *multipart.FileHeader) (storage.Object, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return storage.Object{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return storage.Object{
		FileName:    filepath.Base(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
