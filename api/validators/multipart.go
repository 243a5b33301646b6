package validators

import (
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/bazaar-backend/pkg/errors"
)

// ImageFile is one uploaded image read into memory.
type ImageFile struct {
	Name string
	Data []byte
}

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// ParseMultipart parses a multipart form bounded by maxBytes.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormImages reads every file under field. The content type is sniffed from the bytes.
func FormImages(r *http.Request, field string) ([]ImageFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	images := make([]ImageFile, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open upload")
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
		}
		if len(data) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "image files cannot be empty").WithDetails(map[string]any{"file": header.Filename})
		}
		if _, ok := allowedImageTypes[http.DetectContentType(data)]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "only jpeg, png, gif and webp images are accepted").WithDetails(map[string]any{"file": header.Filename})
		}
		images = append(images, ImageFile{Name: header.Filename, Data: data})
	}
	return images, nil
}

// FormValue returns the trimmed value and whether the field was sent at all.
func FormValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}
