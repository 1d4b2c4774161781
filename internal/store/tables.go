package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/domain/transaction"
	"github.com/leengari/tablehub/internal/validation"
)

// TableData is one entry of the all-tables listing
type TableData struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// ListTables returns the names of all user tables, sorted
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	const op = "list_tables"
	db, release, err := s.acquire(op)
	if err != nil {
		return nil, err
	}
	defer release()

	names, err := listTables(ctx, db)
	if err != nil {
		s.logger.Error("Failed to list tables", "error", err)
		return nil, engineError(op, "", "Failed to list tables.", err)
	}
	if len(names) == 0 {
		s.logger.Info("No tables found in database", "database", s.dbName)
	}
	return names, nil
}

// TableExists reports whether a table exists. Invalid names and a missing
// connection are logged and reported as not existing.
func (s *Store) TableExists(ctx context.Context, name string) bool {
	table, err := validation.ValidateTableName(name)
	if err != nil {
		s.logger.Warn("Invalid table name", "table", name, "error", err)
		return false
	}

	db, release, err := s.acquire("table_exists")
	if err != nil {
		return false
	}
	defer release()

	exists, err := tableExists(ctx, db, table)
	if err != nil {
		s.logger.Error("Failed to check if table exists", "table", table, "error", err)
		return false
	}
	return exists
}

// CreateTable creates a table from a column list. An existing table is an
// error unless force is set, in which case it is dropped and recreated in the
// same scoped transaction.
func (s *Store) CreateTable(ctx context.Context, name string, columns []schema.Column, force bool) (*Result, error) {
	const op = "create_table"

	if len(columns) == 0 {
		msg := "No columns provided for table creation."
		s.logger.Error(msg, "table", name)
		return nil, errInvalidInput(op, name, "%s", msg)
	}

	table, err := validation.ValidateTableName(name)
	if err != nil {
		return nil, errIdentifier(op, err)
	}

	seen := make(map[string]bool, len(columns))
	defs := make([]string, len(columns))
	for i, col := range columns {
		if err := col.Validate(); err != nil {
			var idErr *validation.IdentifierError
			if errors.As(err, &idErr) {
				return nil, errIdentifier(op, err)
			}
			return nil, errInvalidInput(op, table, "%s", err.Error())
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return nil, errInvalidInput(op, table, "Duplicate column name '%s'.", col.Name)
		}
		seen[key] = true
		defs[i] = col.Definition()
	}

	db, release, err := s.acquire(op)
	if err != nil {
		return nil, err
	}
	defer release()

	failMsg := fmt.Sprintf("Failed to create table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	exists, err := tableExists(ctx, tx, table)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	if exists {
		if !force {
			e := errTableExists(op, table)
			s.logger.Warn(e.Message)
			return nil, e
		}
		if _, err := tx.Exec(ctx, transaction.ChangeTypeDrop, table, "DROP TABLE "+schema.QuoteIdentifier(table)); err != nil {
			return nil, engineError(op, table, failMsg, err)
		}
		s.logger.Info("Table dropped for forced recreation", "table", table, "tx_id", tx.ID)
	}

	query := fmt.Sprintf("CREATE TABLE %s (%s)", schema.QuoteIdentifier(table), strings.Join(defs, ", "))
	if _, err := tx.Exec(ctx, transaction.ChangeTypeCreate, table, query); err != nil {
		s.logger.Error(failMsg, "error", err)
		return nil, engineError(op, table, failMsg, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	msg := fmt.Sprintf("Table '%s' created successfully.", table)
	s.logger.Info(msg, "columns", len(columns), "tx_id", tx.ID)
	s.notify(Event{Type: EventTableCreated, TxID: tx.ID, Table: table, Data: len(columns)})
	return &Result{Status: StatusCreated, Message: msg}, nil
}

// DropTable drops a table and compacts the database file
func (s *Store) DropTable(ctx context.Context, name string) (*Result, error) {
	const op = "drop_table"

	table, err := validation.ValidateTableName(name)
	if err != nil {
		return nil, errIdentifier(op, err)
	}

	db, release, err := s.acquire(op)
	if err != nil {
		return nil, err
	}
	defer release()

	failMsg := fmt.Sprintf("Failed to delete table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	exists, err := tableExists(ctx, tx, table)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	if !exists {
		e := errTableNotFound(op, table)
		s.logger.Warn(e.Message)
		return nil, e
	}

	if _, err := tx.Exec(ctx, transaction.ChangeTypeDrop, table, "DROP TABLE "+schema.QuoteIdentifier(table)); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	// VACUUM cannot run inside a transaction
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		s.logger.Warn("VACUUM after drop failed", "table", table, "error", err)
	}

	msg := fmt.Sprintf("Table '%s' deleted successfully.", table)
	s.logger.Info(msg, "tx_id", tx.ID)
	s.notify(Event{Type: EventTableDropped, TxID: tx.ID, Table: table})
	return &Result{Status: StatusOK, Message: msg}, nil
}

// TableSchema returns the ordered columns of a table
func (s *Store) TableSchema(ctx context.Context, name string) ([]schema.Column, error) {
	const op = "get_table_schema"

	db, release, table, err := s.acquireTable(ctx, op, name)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := tableInfo(ctx, db, table)
	if err != nil {
		return nil, engineError(op, table, "Failed to retrieve table schema.", err)
	}
	if tbl == nil {
		s.logger.Warn("Table schema not found", "table", table)
		return nil, &Error{Kind: KindNotFound, Op: op, Table: table, Message: fmt.Sprintf("Table '%s' schema not found.", table)}
	}

	s.logger.Info(fmt.Sprintf("Successfully retrieved schema of table '%s'.", table))
	return tbl.Columns, nil
}

// Table returns every row of a table
func (s *Store) Table(ctx context.Context, name string) ([]data.Row, error) {
	const op = "get_table"

	db, release, table, err := s.acquireTable(ctx, op, name)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := selectRows(ctx, db, "SELECT * FROM "+schema.QuoteIdentifier(table))
	if err != nil {
		s.logger.Error("Database error occurred while retrieving table", "table", table, "error", err)
		return nil, engineError(op, table, fmt.Sprintf("Failed to retrieve rows from table '%s'.", table), err)
	}

	s.logger.Info(fmt.Sprintf("Successfully retrieved rows from table '%s'.", table), "rows", len(rows))
	return rows, nil
}

// Tables returns the columns and rows of every user table
func (s *Store) Tables(ctx context.Context) (map[string]TableData, error) {
	const op = "get_tables"
	db, release, err := s.acquire(op)
	if err != nil {
		return nil, err
	}
	defer release()

	// names are read fully before the per-table queries: the pool has one connection
	names, err := listTables(ctx, db)
	if err != nil {
		return nil, engineError(op, "", "Failed to retrieve table data.", err)
	}

	all := make(map[string]TableData, len(names))
	for _, name := range names {
		if !validation.IsIdentifier(name) {
			s.logger.Warn("Skipping table with invalid name", "table", name)
			continue
		}
		tbl, err := tableInfo(ctx, db, name)
		if err != nil {
			return nil, engineError(op, name, "Failed to retrieve table data.", err)
		}
		if tbl == nil {
			continue
		}
		rows, err := selectRows(ctx, db, fmt.Sprintf("SELECT %s FROM %s", quoteAll(tbl.ColumnNames()), schema.QuoteIdentifier(name)))
		if err != nil {
			return nil, engineError(op, name, "Failed to retrieve table data.", err)
		}

		td := TableData{Columns: tbl.ColumnNames(), Rows: make([][]interface{}, len(rows))}
		for i, r := range rows {
			td.Rows[i] = r.Values
		}
		all[name] = td
		s.logger.Debug("Table data retrieved", "table", name)
	}

	s.logger.Info("All table data retrieved.", "tables", len(all))
	return all, nil
}

// acquireTable validates name, takes the handle and checks the table exists
func (s *Store) acquireTable(ctx context.Context, op, name string) (*sql.DB, func(), string, error) {
	table, err := validation.ValidateTableName(name)
	if err != nil {
		return nil, nil, "", errIdentifier(op, err)
	}

	db, release, err := s.acquire(op)
	if err != nil {
		return nil, nil, "", err
	}

	exists, err := tableExists(ctx, db, table)
	if err != nil {
		release()
		return nil, nil, "", engineError(op, table, fmt.Sprintf("Failed to check if table %s exists.", table), err)
	}
	if !exists {
		release()
		e := errTableNotFound(op, table)
		s.logger.Warn(e.Message)
		return nil, nil, "", e
	}
	return db, release, table, nil
}
