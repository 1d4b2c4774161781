package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/domain/transaction"
	"github.com/leengari/tablehub/internal/validation"
)

// GetRow returns the row whose primary key equals pk.
// The table must declare exactly one primary-key column.
func (s *Store) GetRow(ctx context.Context, table string, pk interface{}) (*data.Row, error) {
	const op = "get_row"

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	pkCol, err := s.primaryKey(op, tbl)
	if err != nil {
		return nil, err
	}
	arg, err := bindValue(pk)
	if err != nil {
		return nil, errInvalidInput(op, table, "Invalid primary key value: %v", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", quoteAll(tbl.ColumnNames()), schema.QuoteIdentifier(table), schema.QuoteIdentifier(pkCol))
	rows, err := selectRows(ctx, db, query, arg)
	if err != nil {
		s.logger.Error("Failed to retrieve row", "table", table, "error", err)
		return nil, engineError(op, table, fmt.Sprintf("Failed to retrieve row from table '%s'.", table), err)
	}
	if len(rows) == 0 {
		msg := fmt.Sprintf("Row with %s '%v' not found in table '%s'.", pkCol, pk, table)
		s.logger.Info(msg)
		return nil, &Error{Kind: KindNotFound, Op: op, Table: table, Message: msg}
	}

	s.logger.Info(fmt.Sprintf("Successfully retrieved row from table '%s'.", table), pkCol, pk)
	return &rows[0], nil
}

// GetRows returns the rows matching every filter. Empty filters select the
// whole table; no match is an empty slice.
func (s *Store) GetRows(ctx context.Context, table string, filters map[string]interface{}) ([]data.Row, error) {
	const op = "get_rows"

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	if err := checkColumns(op, tbl, mapKeys(filters)); err != nil {
		s.logger.Warn(err.Message)
		return nil, err
	}

	where, args, err := whereClause(filters)
	if err != nil {
		return nil, errInvalidInput(op, table, "Invalid filter value: %v", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s", quoteAll(tbl.ColumnNames()), schema.QuoteIdentifier(table), where)
	rows, err := selectRows(ctx, db, query, args...)
	if err != nil {
		s.logger.Error("Database error occurred while retrieving rows", "table", table, "error", err)
		return nil, engineError(op, table, fmt.Sprintf("Failed to retrieve rows from table '%s'.", table), err)
	}

	if len(rows) == 0 {
		s.logger.Info("No rows found", "table", table, "filters", len(filters))
	} else {
		s.logger.Info(fmt.Sprintf("Successfully retrieved rows from table '%s'.", table), "rows", len(rows))
	}
	return rows, nil
}

// InsertRow inserts one row whose values follow the table's column order
func (s *Store) InsertRow(ctx context.Context, table string, values []interface{}) (*Result, error) {
	const op = "insert_row"

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	return s.insertOne(ctx, db, op, tbl, values)
}

// InsertRecord inserts a column -> value mapping. Keys must name existing
// columns; columns without a key are stored as NULL.
func (s *Store) InsertRecord(ctx context.Context, table string, record data.Record) (*Result, error) {
	const op = "insert_record"

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	values, alignErr := alignRecord(op, tbl, record)
	if alignErr != nil {
		s.logger.Warn(alignErr.Message)
		return nil, alignErr
	}
	return s.insertOne(ctx, db, op, tbl, values)
}

// InsertRows inserts a batch best-effort: rows with the wrong arity or
// rejected by a constraint are skipped and reported; the rest are committed
// in one transaction.
func (s *Store) InsertRows(ctx context.Context, table string, rows [][]interface{}) (*Result, error) {
	const op = "insert_rows"

	if len(rows) == 0 {
		return nil, errInvalidInput(op, table, "No rows provided for insertion.")
	}

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	return s.insertBatch(ctx, db, op, tbl, rows, nil)
}

// InsertRecords is InsertRows for mappings. A record naming an unknown
// column is skipped like a wrong-arity row.
func (s *Store) InsertRecords(ctx context.Context, table string, records []data.Record) (*Result, error) {
	const op = "insert_records"

	if len(records) == 0 {
		return nil, errInvalidInput(op, table, "No rows provided for insertion.")
	}

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}

	rows := make([][]interface{}, len(records))
	rejected := make(map[int]string)
	for i, rec := range records {
		values, err := alignRecord(op, tbl, rec)
		if err != nil {
			rejected[i] = err.Message
			continue
		}
		rows[i] = values
	}
	return s.insertBatch(ctx, db, op, tbl, rows, rejected)
}

// UpdateRows treats the first value of every row as the identifier: it is
// matched against the first column and the remaining values replace every
// later column. Rows with the wrong arity are skipped. A row whose identifier
// matches nothing affects zero rows and is not an error.
func (s *Store) UpdateRows(ctx context.Context, table string, rows [][]interface{}) (*Result, error) {
	const op = "update_rows"

	if len(rows) == 0 {
		return nil, errInvalidInput(op, table, "No rows provided for update.")
	}

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	if len(tbl.Columns) < 2 {
		e := errInvalidInput(op, table, "Table '%s' needs an identifier column and at least one value column to update rows.", table)
		s.logger.Warn(e.Message)
		return nil, e
	}

	idCol := tbl.Columns[0].Name
	if pks := tbl.PrimaryKeyColumns(); len(pks) > 0 && pks[0].Name != idCol {
		s.logger.Warn("Rows are matched on the first column, which is not the primary key",
			"table", table, "identifier", idCol, "primary_key", pks[0].Name)
	}

	names := tbl.ColumnNames()
	sets := make([]string, len(names)-1)
	for i, name := range names[1:] {
		sets[i] = schema.QuoteIdentifier(name) + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", schema.QuoteIdentifier(table), strings.Join(sets, ", "), schema.QuoteIdentifier(idCol))

	failMsg := fmt.Sprintf("Failed to update rows in table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(ctx, query)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer stmt.Close()

	skipped := make([]int, 0)
	for i, row := range rows {
		if len(row) != len(names) {
			s.skip(op, tx.ID, table, i, fmt.Sprintf("row has %d values, table has %d columns", len(row), len(names)))
			skipped = append(skipped, i)
			continue
		}
		args, err := bindValues(append(append([]interface{}{}, row[1:]...), row[0]))
		if err != nil {
			s.skip(op, tx.ID, table, i, err.Error())
			skipped = append(skipped, i)
			continue
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			if KindOf(engineError(op, table, failMsg, err)) != KindConflict {
				s.logger.Error(failMsg, "row", i, "error", err)
				return nil, engineError(op, table, failMsg, err)
			}
			s.skip(op, tx.ID, table, i, err.Error())
			skipped = append(skipped, i)
			continue
		}
		n, _ := res.RowsAffected()
		tx.Record(transaction.ChangeTypeUpdate, table, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	affected := tx.RowsAffected(transaction.ChangeTypeUpdate)
	msg := fmt.Sprintf("Rows updated successfully in table '%s'.", table)
	s.logger.Info(msg, "rows_affected", affected, "skipped", len(skipped), "tx_id", tx.ID)
	s.notify(Event{Type: EventRowsUpdated, TxID: tx.ID, Table: table, Data: affected})
	return &Result{Status: StatusOK, Message: msg, RowsAffected: affected, Skipped: skipped}, nil
}

// UpdateRow sets the given columns on the row whose primary key equals pk
func (s *Store) UpdateRow(ctx context.Context, table string, pk interface{}, values map[string]interface{}) (*Result, error) {
	const op = "update_row"

	if len(values) == 0 {
		return nil, errInvalidInput(op, table, "No values provided for update.")
	}

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	pkCol, err := s.primaryKey(op, tbl)
	if err != nil {
		return nil, err
	}
	cols := mapKeys(values)
	if err := checkColumns(op, tbl, cols); err != nil {
		s.logger.Warn(err.Message)
		return nil, err
	}

	sets := make([]string, len(cols))
	raw := make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = schema.QuoteIdentifier(c) + " = ?"
		raw = append(raw, values[c])
	}
	args, err := bindValues(append(raw, pk))
	if err != nil {
		return nil, errInvalidInput(op, table, "Invalid value: %v", err)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", schema.QuoteIdentifier(table), strings.Join(sets, ", "), schema.QuoteIdentifier(pkCol))

	failMsg := fmt.Sprintf("Failed to update row in table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	n, err := tx.Exec(ctx, transaction.ChangeTypeUpdate, table, query, args...)
	if err != nil {
		s.logger.Error(failMsg, "error", err)
		return nil, engineError(op, table, failMsg, err)
	}
	if n == 0 {
		msg := fmt.Sprintf("Row with %s '%v' not found in table '%s'.", pkCol, pk, table)
		s.logger.Info(msg)
		return nil, &Error{Kind: KindNotFound, Op: op, Table: table, Message: msg}
	}
	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	msg := fmt.Sprintf("Row updated successfully in table '%s'.", table)
	s.logger.Info(msg, pkCol, pk, "tx_id", tx.ID)
	s.notify(Event{Type: EventRowsUpdated, TxID: tx.ID, Table: table, Data: n})
	return &Result{Status: StatusOK, Message: msg, RowsAffected: n}, nil
}

// DeleteRows deletes the rows matching every condition. Empty conditions are
// rejected rather than clearing the table; deleting nothing is NotFound.
func (s *Store) DeleteRows(ctx context.Context, table string, conds Conditions) (*Result, error) {
	const op = "delete_rows"

	if len(conds) == 0 {
		e := errInvalidInput(op, table, "No conditions provided for deletion.")
		s.logger.Warn(e.Message, "table", table)
		return nil, e
	}

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	return s.deleteWhere(ctx, db, op, tbl, conds)
}

// DeleteRow deletes the row whose primary key equals pk
func (s *Store) DeleteRow(ctx context.Context, table string, pk interface{}) (*Result, error) {
	const op = "delete_row"

	db, release, table, err := s.acquireTable(ctx, op, table)
	if err != nil {
		return nil, err
	}
	defer release()

	tbl, err := s.resolve(ctx, db, op, table)
	if err != nil {
		return nil, err
	}
	pkCol, err := s.primaryKey(op, tbl)
	if err != nil {
		return nil, err
	}
	return s.deleteWhere(ctx, db, op, tbl, Conditions{pkCol: pk})
}

func (s *Store) deleteWhere(ctx context.Context, db *sql.DB, op string, tbl *schema.Table, conds Conditions) (*Result, error) {
	table := tbl.Name
	if err := checkColumns(op, tbl, mapKeys(conds)); err != nil {
		s.logger.Warn(err.Message)
		return nil, err
	}
	where, args, err := whereClause(conds)
	if err != nil {
		return nil, errInvalidInput(op, table, "Invalid condition value: %v", err)
	}

	failMsg := fmt.Sprintf("Failed to delete rows from table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	n, err := tx.Exec(ctx, transaction.ChangeTypeDelete, table, "DELETE FROM "+schema.QuoteIdentifier(table)+where, args...)
	if err != nil {
		s.logger.Error(failMsg, "error", err)
		return nil, engineError(op, table, failMsg, err)
	}
	if n == 0 {
		msg := fmt.Sprintf("No rows found matching conditions in table '%s'.", table)
		s.logger.Info(msg)
		return nil, &Error{Kind: KindNotFound, Op: op, Table: table, Message: msg}
	}
	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	msg := fmt.Sprintf("Rows deleted successfully from table '%s'.", table)
	s.logger.Info(msg, "rows_affected", n, "tx_id", tx.ID)
	s.notify(Event{Type: EventRowsDeleted, TxID: tx.ID, Table: table, Data: n})
	return &Result{Status: StatusOK, Message: msg, RowsAffected: n}, nil
}

func (s *Store) insertOne(ctx context.Context, db *sql.DB, op string, tbl *schema.Table, values []interface{}) (*Result, error) {
	table := tbl.Name
	if len(values) != len(tbl.Columns) {
		e := errInvalidInput(op, table, "Row has %d values but table '%s' has %d columns.", len(values), table, len(tbl.Columns))
		s.logger.Warn(e.Message)
		return nil, e
	}
	args, err := bindValues(values)
	if err != nil {
		return nil, errInvalidInput(op, table, "Invalid value: %v", err)
	}

	failMsg := fmt.Sprintf("Failed to insert row into table '%s'.", table)
	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	n, err := tx.Exec(ctx, transaction.ChangeTypeInsert, table, insertQuery(tbl), args...)
	if err != nil {
		s.logger.Error(failMsg, "error", err)
		return nil, engineError(op, table, failMsg, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	msg := fmt.Sprintf("Row inserted successfully into table '%s'.", table)
	s.logger.Info(msg, "tx_id", tx.ID)
	s.notify(Event{Type: EventRowsInserted, TxID: tx.ID, Table: table, Data: n})
	return &Result{Status: StatusCreated, Message: msg, RowsAffected: n}, nil
}

// insertBatch runs rows through one prepared statement. Positions in rejected
// were refused before reaching here and are skipped with the given reason.
func (s *Store) insertBatch(ctx context.Context, db *sql.DB, op string, tbl *schema.Table, rows [][]interface{}, rejected map[int]string) (*Result, error) {
	table := tbl.Name
	failMsg := fmt.Sprintf("Failed to insert rows into table '%s'.", table)

	tx, err := transaction.Begin(ctx, db)
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(ctx, insertQuery(tbl))
	if err != nil {
		return nil, engineError(op, table, failMsg, err)
	}
	defer stmt.Close()

	skipped := make([]int, 0)
	for i, row := range rows {
		if reason, ok := rejected[i]; ok {
			s.skip(op, tx.ID, table, i, reason)
			skipped = append(skipped, i)
			continue
		}
		if len(row) != len(tbl.Columns) {
			s.skip(op, tx.ID, table, i, fmt.Sprintf("row has %d values, table has %d columns", len(row), len(tbl.Columns)))
			skipped = append(skipped, i)
			continue
		}
		args, err := bindValues(row)
		if err != nil {
			s.skip(op, tx.ID, table, i, err.Error())
			skipped = append(skipped, i)
			continue
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			// constraint failures only abort the statement; anything else ends the batch
			if KindOf(engineError(op, table, failMsg, err)) != KindConflict {
				s.logger.Error(failMsg, "row", i, "error", err)
				return nil, engineError(op, table, failMsg, err)
			}
			s.skip(op, tx.ID, table, i, err.Error())
			skipped = append(skipped, i)
			continue
		}
		n, _ := res.RowsAffected()
		tx.Record(transaction.ChangeTypeInsert, table, n)
	}

	if err := tx.Commit(); err != nil {
		return nil, engineError(op, table, failMsg, err)
	}

	inserted := tx.RowsAffected(transaction.ChangeTypeInsert)
	msg := fmt.Sprintf("Rows inserted successfully into table '%s'.", table)
	if len(skipped) > 0 {
		msg = fmt.Sprintf("%d of %d rows inserted into table '%s'; %d skipped.", inserted, len(rows), table, len(skipped))
	}
	s.logger.Info(msg, "rows_affected", inserted, "tx_id", tx.ID)
	s.notify(Event{Type: EventRowsInserted, TxID: tx.ID, Table: table, Data: inserted})
	return &Result{Status: StatusCreated, Message: msg, RowsAffected: inserted, Skipped: skipped}, nil
}

// skip logs and reports a batch row that was not applied
func (s *Store) skip(op, txID, table string, index int, reason string) {
	s.logger.Warn("Skipping row", "op", op, "table", table, "row", index, "reason", reason)
	s.notify(Event{Type: EventRowSkipped, TxID: txID, Table: table, Data: index})
}

// resolve loads the column layout of a table already known to exist
func (s *Store) resolve(ctx context.Context, db *sql.DB, op, table string) (*schema.Table, error) {
	tbl, err := tableInfo(ctx, db, table)
	if err != nil {
		return nil, engineError(op, table, "Failed to retrieve table schema.", err)
	}
	if tbl == nil {
		return nil, &Error{Kind: KindNotFound, Op: op, Table: table, Message: fmt.Sprintf("Table '%s' schema not found.", table)}
	}
	return tbl, nil
}

// primaryKey returns the single pk-flagged column; anything else is refused
// rather than guessed
func (s *Store) primaryKey(op string, tbl *schema.Table) (string, error) {
	pks := tbl.PrimaryKeyColumns()
	switch len(pks) {
	case 1:
		return pks[0].Name, nil
	case 0:
		e := errInvalidInput(op, tbl.Name, "Table '%s' has no primary key column.", tbl.Name)
		s.logger.Warn(e.Message)
		return "", e
	default:
		e := errInvalidInput(op, tbl.Name, "Table '%s' has a composite primary key.", tbl.Name)
		s.logger.Warn(e.Message)
		return "", e
	}
}

func checkColumns(op string, tbl *schema.Table, names []string) *Error {
	for _, name := range names {
		if err := validation.ValidateColumnName(name); err != nil {
			return errIdentifier(op, err)
		}
		if _, ok := tbl.Column(name); !ok {
			return errInvalidInput(op, tbl.Name, "Column '%s' does not exist in table '%s'.", name, tbl.Name)
		}
	}
	return nil
}

// alignRecord orders a record's values by the table's columns
func alignRecord(op string, tbl *schema.Table, record data.Record) ([]interface{}, *Error) {
	if err := checkColumns(op, tbl, record.Keys); err != nil {
		return nil, err
	}
	values := make([]interface{}, len(tbl.Columns))
	seen := make(map[int]bool, record.Len())
	for i, key := range record.Keys {
		idx := tbl.ColumnIndex(key)
		if seen[idx] {
			return nil, errInvalidInput(op, tbl.Name, "Column '%s' is given more than once.", tbl.Columns[idx].Name)
		}
		seen[idx] = true
		values[idx] = record.Values[i]
	}
	return values, nil
}

func insertQuery(tbl *schema.Table) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.QuoteIdentifier(tbl.Name), quoteAll(tbl.ColumnNames()), placeholders(len(tbl.Columns)))
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
