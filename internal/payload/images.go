package payload

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"storefront/internal/request"
)

// ImageLimits bounds uploaded product images.
type ImageLimits struct {
	MaxImages int
	MaxBytes  int
}

// EncodeImages turns uploaded files into inline data URIs. The MIME type is sniffed from the
// content, not taken from the client.
func EncodeImages(files []request.Upload, limits ImageLimits) ([]string, error) {
	if limits.MaxImages > 0 && len(files) > limits.MaxImages {
		return nil, invalid("Too many images (max %d)", limits.MaxImages)
	}

	images := make([]string, 0, len(files))
	for _, f := range files {
		if limits.MaxBytes > 0 && len(f.Data) > limits.MaxBytes {
			return nil, invalid("Image %s is too large (max %d bytes)", f.Filename, limits.MaxBytes)
		}
		mime := mimetype.Detect(f.Data)
		if !strings.HasPrefix(mime.String(), "image/") {
			return nil, invalid("Image %s has unsupported type %s", f.Filename, mime.String())
		}
		images = append(images, "data:"+mime.String()+";base64,"+base64.StdEncoding.EncodeToString(f.Data))
	}
	return images, nil
}
