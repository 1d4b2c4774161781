package network

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/store"
)

// ResponseType selects how payloads are rendered
type ResponseType string

const (
	ResponseJSON ResponseType = "json"
	ResponseText ResponseType = "text"
	ResponseXML  ResponseType = "xml"
	ResponseHTML ResponseType = "html"
)

//go:embed templates/table.html
var templateFS embed.FS

var tableTemplate = template.Must(template.ParseFS(templateFS, "templates/table.html"))

// responseType reads ?response_type, defaulting to json
func responseType(r *http.Request) (ResponseType, error) {
	switch rt := ResponseType(strings.ToLower(r.URL.Query().Get("response_type"))); rt {
	case "", ResponseJSON:
		return ResponseJSON, nil
	case ResponseText, ResponseXML, ResponseHTML:
		return rt, nil
	default:
		return "", fmt.Errorf("Invalid response_type '%s'. Use one of: json, text, xml, html.", rt)
	}
}

// render writes payload in the requested representation
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, title string, payload interface{}) {
	rt, err := responseType(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch rt {
	case ResponseText:
		body, contentType = []byte(renderText(payload)), "text/plain; charset=utf-8"
	case ResponseXML:
		body, err = renderXML(payload)
		contentType = "application/xml; charset=utf-8"
	case ResponseHTML:
		body, err = renderHTML(title, payload)
		contentType = "text/html; charset=utf-8"
	default:
		body, err = json.Marshal(payload)
		contentType = "application/json"
	}
	if err != nil {
		s.logger.Error("Failed to render response", "response_type", rt, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to render response.")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// writeError always answers in JSON
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

// writeStoreError maps a store failure to its status
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	message := err.Error()
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		message = storeErr.Message
	}
	status := StatusFor(store.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.logger.Error("Store operation failed", "error", err)
	}
	s.writeError(w, status, message)
}

// StatusFor maps an error kind to an HTTP status
func StatusFor(kind store.Kind) int {
	switch kind {
	case store.KindInvalidInput, store.KindInvalidIdentifier:
		return http.StatusBadRequest
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindAlreadyExists, store.KindConflict:
		return http.StatusConflict
	case store.KindNotConnected, store.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func renderText(payload interface{}) string {
	var b strings.Builder
	switch p := payload.(type) {
	case []data.Row:
		for _, row := range p {
			b.WriteString(row.String())
			b.WriteByte('\n')
		}
	case *data.Row:
		b.WriteString(p.String())
		b.WriteByte('\n')
	case *store.Result:
		b.WriteString(p.Message)
		b.WriteByte('\n')
	default:
		generic, err := toGeneric(payload)
		if err != nil {
			return fmt.Sprint(payload)
		}
		writeTextValue(&b, "", generic)
	}
	return b.String()
}

func writeTextValue(b *strings.Builder, prefix string, v interface{}) {
	switch x := v.(type) {
	case map[string]interface{}:
		for _, k := range sortedKeys(x) {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			writeTextValue(b, key, x[k])
		}
	case []interface{}:
		if len(x) == 0 {
			fmt.Fprintf(b, "%s=[]\n", prefix)
		}
		for i, item := range x {
			writeTextValue(b, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case nil:
		fmt.Fprintf(b, "%s=NULL\n", prefix)
	default:
		fmt.Fprintf(b, "%s=%v\n", prefix, x)
	}
}

// htmlView is what the table template renders
type htmlView struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func renderHTML(title string, payload interface{}) ([]byte, error) {
	view := htmlView{Title: title}
	switch p := payload.(type) {
	case []data.Row:
		if len(p) > 0 {
			view.Columns = p[0].Columns
		}
		for _, row := range p {
			view.Rows = append(view.Rows, cells(row.Values))
		}
	case *data.Row:
		view.Columns = p.Columns
		view.Rows = [][]string{cells(p.Values)}
	default:
		generic, err := toGeneric(payload)
		if err != nil {
			return nil, err
		}
		view.Columns = []string{"key", "value"}
		if m, ok := generic.(map[string]interface{}); ok {
			for _, k := range sortedKeys(m) {
				view.Rows = append(view.Rows, []string{k, cell(m[k])})
			}
		} else {
			view.Rows = [][]string{{"value", cell(generic)}}
		}
	}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cells(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = cell(v)
	}
	return out
}

func cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// toGeneric turns a payload into maps, slices and scalars through its JSON form
func toGeneric(payload interface{}) (interface{}, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return data.NormalizeValue(v), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
