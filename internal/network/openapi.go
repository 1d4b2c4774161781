package network

import (
	"net/http"
	"regexp"
	"strings"
)

const swaggerPath = "/swagger.json"

var pathParam = regexp.MustCompile(`\{(\w+)\}`)

// apiDoc is the subset of OpenAPI 3 the route table can describe
type apiDoc struct {
	OpenAPI string                              `json:"openapi"`
	Info    apiInfo                             `json:"info"`
	Paths   map[string]map[string]apiOperation `json:"paths"`
}

type apiInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type apiOperation struct {
	Summary     string                 `json:"summary"`
	OperationID string                 `json:"operationId"`
	Parameters  []apiParameter         `json:"parameters,omitempty"`
	RequestBody *apiRequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]apiResponse `json:"responses"`
}

type apiParameter struct {
	Name     string    `json:"name"`
	In       string    `json:"in"`
	Required bool      `json:"required"`
	Schema   apiSchema `json:"schema"`
}

type apiSchema struct {
	Type string   `json:"type"`
	Enum []string `json:"enum,omitempty"`
}

type apiRequestBody struct {
	Required bool                    `json:"required"`
	Content  map[string]apiMediaType `json:"content"`
}

type apiMediaType struct {
	Schema apiSchema `json:"schema"`
}

type apiResponse struct {
	Description string `json:"description"`
}

// buildAPIDoc describes every route: its path parameters, the response_type
// query parameter, a JSON body for writes and the error statuses
func buildAPIDoc(routes []route) apiDoc {
	doc := apiDoc{
		OpenAPI: "3.0.3",
		Info:    apiInfo{Title: "tablehub", Version: "1.0"},
		Paths:   make(map[string]map[string]apiOperation),
	}

	for _, rt := range routes {
		op := apiOperation{
			Summary:     rt.summary,
			OperationID: operationID(rt.method, rt.path),
			Responses: map[string]apiResponse{
				"200": {Description: "Success"},
				"400": {Description: "Invalid input or identifier"},
				"404": {Description: "Table or row not found"},
				"409": {Description: "Conflict"},
				"503": {Description: "Storage unavailable or not connected"},
			},
		}
		if rt.method == http.MethodPost {
			op.Responses["201"] = apiResponse{Description: "Created"}
		}

		for _, m := range pathParam.FindAllStringSubmatch(rt.path, -1) {
			op.Parameters = append(op.Parameters, apiParameter{Name: m[1], In: "path", Required: true, Schema: apiSchema{Type: "string"}})
		}
		if rt.path != swaggerPath {
			op.Parameters = append(op.Parameters, apiParameter{
				Name:   "response_type",
				In:     "query",
				Schema: apiSchema{Type: "string", Enum: []string{string(ResponseJSON), string(ResponseText), string(ResponseXML), string(ResponseHTML)}},
			})
		}

		switch rt.method {
		case http.MethodPost, http.MethodPut:
			op.RequestBody = &apiRequestBody{
				Required: true,
				Content:  map[string]apiMediaType{"application/json": {Schema: apiSchema{Type: "object"}}},
			}
		}

		if doc.Paths[rt.path] == nil {
			doc.Paths[rt.path] = make(map[string]apiOperation)
		}
		doc.Paths[rt.path][strings.ToLower(rt.method)] = op
	}
	return doc
}

// operationID turns "GET /db/{table}/rows" into "get_db_table_rows"
func operationID(method, path string) string {
	parts := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		seg = strings.ReplaceAll(seg, ".", "_")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "_")
}
