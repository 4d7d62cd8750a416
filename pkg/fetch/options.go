package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"time"
)

// Options customizes a single request.
type Options struct {
	// Method defaults to GET, or POST when Body is set.
	Method string
	// Headers overlay the defaults; caller values win.
	Headers http.Header
	// Body is sent as-is. A *MultipartBody suppresses the JSON defaults.
	Body io.Reader
	// Timeout overrides the client default for this call.
	Timeout time.Duration
}

func (o *Options) method() string {
	if o.Method != "" {
		return o.Method
	}
	if o.Body != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// buildHeaders starts from the JSON defaults (none for multipart bodies,
// which carry their own boundary content type) and overlays caller headers.
func buildHeaders(opts *Options) http.Header {
	headers := make(http.Header)

	if mp, ok := opts.Body.(*MultipartBody); ok {
		headers.Set("Content-Type", mp.ContentType())
	} else {
		headers.Set("Accept", "application/json")
		headers.Set("Content-Type", "application/json")
	}

	for key, values := range opts.Headers {
		canonical := http.CanonicalHeaderKey(key)
		headers[canonical] = append([]string(nil), values...)
	}

	return headers
}

// JSONBody encodes v as a request body.
func JSONBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// FormFile is a file part of a multipart body.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// MultipartBody is a fully buffered multipart/form-data body.
type MultipartBody struct {
	buf         *bytes.Buffer
	contentType string
}

// NewMultipartBody encodes fields (in key order) followed by files.
func NewMultipartBody(fields map[string]string, files ...FormFile) (*MultipartBody, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return nil, fmt.Errorf("failed to write field %q: %w", key, err)
		}
	}

	for _, file := range files {
		part, err := createFilePart(writer, file)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("failed to write file %q: %w", file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return &MultipartBody{buf: buf, contentType: writer.FormDataContentType()}, nil
}

func createFilePart(writer *multipart.Writer, file FormFile) (io.Writer, error) {
	if file.ContentType == "" {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part %q: %w", file.Name, err)
		}
		return part, nil
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name))
	header.Set("Content-Type", file.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part %q: %w", file.Name, err)
	}
	return part, nil
}

func (m *MultipartBody) Read(p []byte) (int, error) {
	return m.buf.Read(p)
}

// ContentType returns the multipart content type including its boundary.
func (m *MultipartBody) ContentType() string {
	return m.contentType
}

// Len returns the number of unread bytes.
func (m *MultipartBody) Len() int {
	return m.buf.Len()
}
