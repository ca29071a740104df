package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/autodetail/pkg/errors"
)

// UploadLimits bounds multipart image uploads.
type UploadLimits struct {
	MaxImageBytes   int64
	MaxImages       int
	MaxProfileBytes int64
}

const (
	defaultMaxImageBytes   = 8 << 20
	defaultMaxImages       = 6
	defaultMaxProfileBytes = 4 << 20
)

func (l UploadLimits) withDefaults() UploadLimits {
	if l.MaxImageBytes <= 0 {
		l.MaxImageBytes = defaultMaxImageBytes
	}
	if l.MaxImages <= 0 {
		l.MaxImages = defaultMaxImages
	}
	if l.MaxProfileBytes <= 0 {
		l.MaxProfileBytes = defaultMaxProfileBytes
	}
	return l
}

var imageFields = []string{"images", "images[]"}

// readImageFiles collects the listing images of a multipart request. Requests
// that are not multipart carry no images.
func readImageFiles(c *gin.Context, limits UploadLimits) ([][]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, appErrors.NewValidation("Invalid multipart payload")
	}

	var headers []*multipart.FileHeader
	for _, field := range imageFields {
		headers = append(headers, form.File[field]...)
	}
	if len(headers) > limits.MaxImages {
		return nil, appErrors.NewValidation(fmt.Sprintf("At most %d images are allowed", limits.MaxImages))
	}

	uploads := make([][]byte, 0, len(headers))
	for _, header := range headers {
		data, err := readFileHeader(header, limits.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, data)
	}
	return uploads, nil
}

// readSingleImage returns the bytes of one uploaded file under field.
func readSingleImage(c *gin.Context, field string, maxBytes int64) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, appErrors.NewValidation("Image file is required")
	}
	return readFileHeader(header, maxBytes)
}

func readFileHeader(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if header.Size > maxBytes {
		return nil, appErrors.NewValidation(fmt.Sprintf("Image %s exceeds the %d byte limit", header.Filename, maxBytes))
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, "Failed to read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, "Failed to read upload")
	}
	if int64(len(data)) > maxBytes {
		return nil, appErrors.NewValidation(fmt.Sprintf("Image %s exceeds the %d byte limit", header.Filename, maxBytes))
	}
	return data, nil
}
