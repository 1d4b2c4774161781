package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/store"
)

// DefaultRoot is the path prefix of the table routes
const DefaultRoot = "/db"

// maxBodyBytes bounds request bodies
const maxBodyBytes = 32 << 20

// TableStore is the store surface the router calls; *store.Store implements it
type TableStore interface {
	Tables(ctx context.Context) (map[string]store.TableData, error)
	Table(ctx context.Context, name string) ([]data.Row, error)
	TableSchema(ctx context.Context, name string) ([]schema.Column, error)
	CreateTable(ctx context.Context, name string, columns []schema.Column, force bool) (*store.Result, error)
	DropTable(ctx context.Context, name string) (*store.Result, error)
	GetRow(ctx context.Context, table string, pk interface{}) (*data.Row, error)
	GetRows(ctx context.Context, table string, filters map[string]interface{}) ([]data.Row, error)
	InsertRecord(ctx context.Context, table string, record data.Record) (*store.Result, error)
	InsertRows(ctx context.Context, table string, rows [][]interface{}) (*store.Result, error)
	InsertRecords(ctx context.Context, table string, records []data.Record) (*store.Result, error)
	UpdateRows(ctx context.Context, table string, rows [][]interface{}) (*store.Result, error)
	UpdateRow(ctx context.Context, table string, pk interface{}, values map[string]interface{}) (*store.Result, error)
	DeleteRows(ctx context.Context, table string, conds store.Conditions) (*store.Result, error)
	DeleteRow(ctx context.Context, table string, pk interface{}) (*store.Result, error)
}

// Server maps HTTP requests onto table store operations
type Server struct {
	store  TableStore
	logger *slog.Logger
	root   string
	mux    *http.ServeMux
}

// NewServer builds the router. root is the table route prefix ("/db" when empty).
func NewServer(st TableStore, root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  st,
		logger: logger,
		root:   normalizeRoot(root),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func normalizeRoot(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return DefaultRoot
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	return strings.TrimRight(root, "/")
}

// route is one entry of the route table; the same table feeds the mux and /swagger.json
type route struct {
	method  string
	path    string
	summary string
	handler http.HandlerFunc
}

func (s *Server) routeTable() []route {
	r := s.root
	return []route{
		{http.MethodGet, "/health", "Health check", s.handleHealth},
		{http.MethodGet, r + "/tables", "Columns and rows of every table", s.handleTables},

		{http.MethodGet, r + "/{table}", "All rows of a table", s.handleGetTable},
		{http.MethodPost, r + "/{table}", "Create a table from columns or inferred from records", s.handleCreateTable},
		{http.MethodDelete, r + "/{table}", "Drop a table", s.handleDropTable},
		{http.MethodGet, r + "/{table}/schema", "Column schema of a table", s.handleSchema},

		{http.MethodGet, r + "/{table}/rows", "Rows matching every query filter", s.handleGetRows},
		{http.MethodPost, r + "/{table}/rows", "Insert one record or a batch of rows", s.handleInsertRows},
		{http.MethodPut, r + "/{table}/rows", "Update rows keyed by their first column", s.handleUpdateRows},
		{http.MethodDelete, r + "/{table}/rows", "Delete rows matching conditions", s.handleDeleteRows},

		{http.MethodGet, r + "/{table}/rows/{id}", "Row by primary key", s.handleGetRow},
		{http.MethodPut, r + "/{table}/rows/{id}", "Update a row by primary key", s.handleUpdateRow},
		{http.MethodDelete, r + "/{table}/rows/{id}", "Delete a row by primary key", s.handleDeleteRow},
	}
}

func (s *Server) routes() {
	table := s.routeTable()
	for _, rt := range table {
		s.mux.HandleFunc(rt.method+" "+rt.path, rt.handler)
	}

	doc := buildAPIDoc(append(table, route{method: http.MethodGet, path: swaggerPath, summary: "OpenAPI description of this API"}))
	s.mux.HandleFunc("GET "+swaggerPath, func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, doc)
	})
}

// Root returns the normalized table route prefix
func (s *Server) Root() string {
	return s.root
}

// Handler returns the routed handler wrapped with request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.checkResponseType(s.mux))
}

// checkResponseType rejects an unknown response_type before the request reaches a handler
func (s *Server) checkResponseType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := responseType(r); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HTTPServer returns an http.Server for addr carrying only transport timeouts
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * writeTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// ListenAndServe runs srv until ctx is done, then shuts it down gracefully
func ListenAndServe(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Running on address", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
