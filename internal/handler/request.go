package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vocalcollab/internal/apperror"
	"github.com/sakif/vocalcollab/internal/service"
)

// maxMemory is how much of a multipart body ParseMultipartForm keeps in
// RAM; larger file parts spill to temp files.
const maxMemory = 8 << 20

// requestData is the body of a write request, whatever its encoding.
//
// The web client posts tracks as multipart/form-data, while API
// clients send JSON. Handlers read fields through get and files through
// upload and never look at the Content-Type themselves.
type requestData struct {
	fields map[string]string
	form   *multipart.Form
}

// readRequest parses a JSON, urlencoded or multipart body of at most
// maxBytes. An empty body is an empty set of fields.
func readRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*requestData, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, bodyError(err, "Multipart form parse error")
		}
		return &requestData{fields: flatten(r.MultipartForm.Value), form: r.MultipartForm}, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err, "Form parse error")
		}
		return &requestData{fields: flatten(r.PostForm)}, nil

	default:
		return readJSON(r)
	}
}

// readJSON decodes a flat JSON object. Scalars are kept as their text
// form, null becomes "", and nested values are refused.
func readJSON(r *http.Request) (*requestData, error) {
	var raw map[string]any
	err := json.NewDecoder(r.Body).Decode(&raw)
	if errors.Is(err, io.EOF) {
		return &requestData{fields: map[string]string{}}, nil
	}
	if err != nil {
		return nil, bodyError(err, "JSON parse error")
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = v
		case float64, bool:
			fields[k] = fmt.Sprint(v)
		default:
			return nil, apperror.ValidationFailed(k, "Expected a string value.")
		}
	}
	return &requestData{fields: fields}, nil
}

func bodyError(err error, prefix string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed("", fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit))
	}
	return apperror.ValidationFailed("", prefix+" - "+err.Error())
}

func flatten(values map[string][]string) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}

func (d *requestData) get(name string) string {
	return d.fields[name]
}

// upload opens the file part called name. It returns nil when the request
// has no such file. The caller must call done once the upload is stored.
func (d *requestData) upload(name string) (up *service.Upload, done func(), err error) {
	if d.form == nil || len(d.form.File[name]) == 0 {
		return nil, func() {}, nil
	}
	header := d.form.File[name][0]
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening upload %s: %w", name, err)
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

// pathID reads an integer path parameter. Anything that isn't a positive
// integer can't name a row, so it is reported as not found.
func pathID(r *http.Request, name, resource string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// pagination reads the optional ?limit=&offset= query parameters.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperror.ValidationFailed(name, "A valid non-negative integer is required.")
	}
	return v, nil
}
