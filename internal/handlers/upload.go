package handlers

import (
	"errors"
	"mime"
	"net/http"

	"vidlist-backend/internal/services"
)

// maxUploadSize caps the in-memory part of multipart forms.
const maxUploadSize = 10 << 20

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// formFile returns the uploaded file for field, or nil when the form has none.
// The returned func closes the file and is always safe to call.
func formFile(r *http.Request, field string) (*services.FileUpload, func(), error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	upload := &services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	return upload, func() { file.Close() }, nil
}
