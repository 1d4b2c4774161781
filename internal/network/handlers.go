package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/inference"
	"github.com/leengari/tablehub/internal/store"
)

// reserved query parameters are never filters
var reservedParams = map[string]bool{
	"response_type": true,
	"force":         true,
}

// schemaEntry is one column of the schema endpoint
type schemaEntry struct {
	ColumnName string `json:"column_name"`
	DataType   string `json:"data_type"`
	PrimaryKey bool   `json:"primary_key"`
	NotNull    bool   `json:"not_null"`
}

// createRequest is the explicit-schema form of a table POST
type createRequest struct {
	Columns []schema.ColumnSpec `json:"columns"`
	Rows    []interface{}       `json:"rows"`
	Force   bool                `json:"force"`
}

// deleteRequest carries conditions in a DELETE body
type deleteRequest struct {
	Conditions []string               `json:"conditions"`
	Where      map[string]interface{} `json:"where"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "Health", map[string]string{"message": "Working!"})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.Tables(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "Tables", map[string]interface{}{"tables": tables})
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	rows, err := s.store.Table(r.Context(), table)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, rows)
}

// handleCreateTable accepts either a list of records, from which the columns
// are inferred, or an explicit {"columns": [...], "rows": [...]} document
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	force := queryBool(r, "force")

	if len(body) > 0 && body[0] == '[' {
		var records []data.Record
		if err := json.Unmarshal(body, &records); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		s.createFromRecords(w, r, table, records, force)
		return
	}

	var req createRequest
	if err := decodeJSON(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}
	res, err := s.store.CreateTable(r.Context(), table, schema.Columns(req.Columns), force || req.Force)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if len(req.Rows) > 0 {
		res, err = s.insertItems(r, table, req.Rows)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
	}
	s.render(w, r, http.StatusCreated, table, res)
}

func (s *Server) createFromRecords(w http.ResponseWriter, r *http.Request, table string, records []data.Record, force bool) {
	_, rows, inferred := inference.InferRecords(records)
	res, err := s.store.CreateTable(r.Context(), table, inference.Columns(inferred), force)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if len(rows) > 0 {
		res, err = s.store.InsertRows(r.Context(), table, rows)
		if err != nil {
			s.writeStoreError(w, err)
			return
		}
	}
	s.render(w, r, http.StatusCreated, table, res)
}

func (s *Server) handleDropTable(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	res, err := s.store.DropTable(r.Context(), table)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, res)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	cols, err := s.store.TableSchema(r.Context(), table)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	entries := make([]schemaEntry, len(cols))
	for i, c := range cols {
		entries[i] = schemaEntry{ColumnName: c.Name, DataType: string(c.Type), PrimaryKey: c.PrimaryKey, NotNull: c.NotNull}
	}
	s.render(w, r, http.StatusOK, table+" schema", map[string]interface{}{"table": table, "schema": entries})
}

func (s *Server) handleGetRows(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	rows, err := s.store.GetRows(r.Context(), table, queryFilters(r))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, rows)
}

// handleInsertRows takes a single row object, or {"rows": [...]} / a bare list
// of row arrays or row objects
func (s *Server) handleInsertRows(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var res *store.Result
	if len(body) > 0 && body[0] == '[' {
		var items []interface{}
		if err := decodeJSON(body, &items); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		res, err = s.insertItems(r, table, items)
	} else {
		var rec data.Record
		if err := json.Unmarshal(body, &rec); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		if items, ok := batchRows(rec); ok {
			res, err = s.insertItems(r, table, items)
		} else {
			res, err = s.store.InsertRecord(r.Context(), table, rec)
		}
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusCreated, table, res)
}

func (s *Server) handleUpdateRows(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Rows []data.Values `json:"rows"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}
	rows := make([][]interface{}, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = row
	}

	res, err := s.store.UpdateRows(r.Context(), table, rows)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, res)
}

// handleDeleteRows takes its conditions from the query string, or from a body
// of {"conditions": ["col='v'", ...]} or {"where": {"col": v}}
func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	conds := store.Conditions(queryFilters(r))

	if len(conds) == 0 {
		body, err := readBody(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(body) > 0 {
			var req deleteRequest
			if err := decodeJSON(body, &req); err != nil {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
				return
			}
			if len(req.Conditions) > 0 {
				conds, err = store.ParseConditions(req.Conditions)
				if err != nil {
					s.writeError(w, http.StatusBadRequest, err.Error())
					return
				}
			}
			for k, v := range req.Where {
				conds[k] = v
			}
		}
	}

	res, err := s.store.DeleteRows(r.Context(), table, conds)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, res)
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	row, err := s.store.GetRow(r.Context(), table, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, row)
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rec data.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		return
	}

	res, err := s.store.UpdateRow(r.Context(), table, r.PathValue("id"), rec.Map())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, res)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	table := r.PathValue("table")
	res, err := s.store.DeleteRow(r.Context(), table, r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, table, res)
}

// insertItems inserts decoded rows that are all arrays or all objects
func (s *Server) insertItems(r *http.Request, table string, items []interface{}) (*store.Result, error) {
	if len(items) == 0 {
		return s.store.InsertRows(r.Context(), table, nil)
	}

	switch items[0].(type) {
	case []interface{}:
		rows := make([][]interface{}, len(items))
		for i, item := range items {
			row, ok := item.([]interface{})
			if !ok {
				return nil, &store.Error{Kind: store.KindInvalidInput, Op: "insert_rows", Table: table, Message: "Rows must be all arrays or all objects."}
			}
			rows[i] = row
		}
		return s.store.InsertRows(r.Context(), table, rows)
	case map[string]interface{}:
		records := make([]data.Record, len(items))
		for i, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, &store.Error{Kind: store.KindInvalidInput, Op: "insert_rows", Table: table, Message: "Rows must be all arrays or all objects."}
			}
			for _, k := range sortedKeys(m) {
				records[i].Set(k, m[k])
			}
		}
		return s.store.InsertRecords(r.Context(), table, records)
	default:
		return nil, &store.Error{Kind: store.KindInvalidInput, Op: "insert_rows", Table: table, Message: "Each row must be an array or an object."}
	}
}

// batchRows recognizes the {"rows": [...]} envelope
func batchRows(rec data.Record) ([]interface{}, bool) {
	if rec.Len() != 1 || rec.Keys[0] != "rows" {
		return nil, false
	}
	items, ok := rec.Values[0].([]interface{})
	return items, ok
}

// queryFilters turns query parameters into equality filters, first value wins
func queryFilters(r *http.Request) map[string]interface{} {
	filters := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}
	return filters
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("Failed to read request body: %v", err)
	}
	return bytes.TrimSpace(body), nil
}

// decodeJSON decodes with integral numbers kept as int64
func decodeJSON(body []byte, v interface{}) error {
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	normalizeDecoded(v)
	return nil
}

func normalizeDecoded(v interface{}) {
	switch x := v.(type) {
	case *[]interface{}:
		for i := range *x {
			(*x)[i] = data.NormalizeValue((*x)[i])
		}
	case *createRequest:
		for i := range x.Rows {
			x.Rows[i] = data.NormalizeValue(x.Rows[i])
		}
	case *deleteRequest:
		for k, val := range x.Where {
			x.Where[k] = data.NormalizeValue(val)
		}
	}
}
