package request

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// BodyKind tags which encoding a Body was decoded from.
type BodyKind int

const (
	KindEmpty BodyKind = iota
	KindJSON
	KindMultipart
)

func (k BodyKind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindMultipart:
		return "multipart"
	default:
		return "empty"
	}
}

// Upload is a file received in a multipart body.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

// Body is the normalized request payload. JSON and multipart bodies both end up as Fields (+ Files),
// so validation does not care how the client encoded the request.
type Body struct {
	Kind   BodyKind
	Fields map[string]any
	Files  []Upload
}

// Has reports whether the client supplied key at all (a JSON null counts as supplied).
func (b Body) Has(key string) bool {
	_, ok := b.Fields[key]
	return ok
}

// FilesField is the multipart field holding uploaded images.
const FilesField = "images"

// DataField is the multipart field holding the JSON-encoded product payload.
const DataField = "data"

// DecodeBody decodes raw according to contentType. form is the parsed multipart form, if any.
// Malformed input never fails; it produces an empty Fields map.
func DecodeBody(contentType string, raw []byte, form *multipart.Form) Body {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	mediaType = strings.ToLower(mediaType)

	if mediaType == "multipart/form-data" && form != nil {
		return decodeMultipart(form)
	}
	if len(raw) == 0 {
		return Body{Kind: KindEmpty, Fields: map[string]any{}}
	}
	return Body{Kind: KindJSON, Fields: ParseObject(raw)}
}

// ParseObject strictly parses raw as a JSON object, returning an empty map on any failure.
func ParseObject(raw []byte) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return map[string]any{}
	}
	return fields
}

func decodeMultipart(form *multipart.Form) Body {
	body := Body{Kind: KindMultipart, Fields: map[string]any{}}

	for key, vals := range form.Value {
		if key == DataField || len(vals) == 0 {
			continue
		}
		body.Fields[key] = vals[len(vals)-1]
	}
	// The data field wins over loose form values.
	if vals := form.Value[DataField]; len(vals) > 0 {
		for key, val := range ParseObject([]byte(vals[len(vals)-1])) {
			body.Fields[key] = val
		}
	}

	for _, fh := range form.File[FilesField] {
		data, err := readFile(fh)
		if err != nil {
			continue
		}
		body.Files = append(body.Files, Upload{Filename: fh.Filename, Size: fh.Size, Data: data})
	}
	return body
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
