package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/leengari/tablehub/internal/domain/data"
	"github.com/leengari/tablehub/internal/domain/schema"
	"github.com/leengari/tablehub/internal/inference"
	"github.com/leengari/tablehub/internal/store"
)

const helpText = `Commands:
  connect <path> [force]          open a database file
  disconnect [force]              close the current database
  tables                          list tables
  schema <table>                  show the columns of a table
  show <table>                    show every row of a table
  rows <table> [col=value ...]    show rows matching every filter
  get <table> <id>                show the row with the given primary key
  create <table> <col def>, ...   create a table, e.g. create songs title TEXT, year INTEGER
  drop <table>                    drop a table
  delete <table> <col=value> ...  delete matching rows, e.g. delete songs title='A'
  load <table> <file.csv> [force] create a table from a CSV file and load its rows
  help                            show this help
  exit | \q                       quit`

// Shell is the interactive admin console over a table store
type Shell struct {
	store *store.Store
	out   io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
}

// New creates a shell writing to out
func New(st *store.Store, out io.Writer) *Shell {
	r := lipgloss.NewRenderer(out)
	return &Shell{
		store:   st,
		out:     out,
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6")),
		success: r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#64748B")),
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F8FAFC")).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		border:  r.NewStyle().Foreground(lipgloss.Color("#334155")),
	}
}

// Start runs the shell on stdin/stdout until exit or EOF
func Start(ctx context.Context, st *store.Store) error {
	return New(st, os.Stdout).Run(ctx, os.Stdin)
}

// Run reads commands from in until exit, EOF or ctx is done
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(sh.out, sh.title.Render("Welcome to tablehub"))
	fmt.Fprintln(sh.out, sh.muted.Render("Type 'help' for commands, 'exit' or '\\q' to quit."))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(sh.out, sh.prompt())
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := sh.Execute(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

func (sh *Shell) prompt() string {
	if path := sh.store.Path(); path != "" {
		return fmt.Sprintf("%s> ", path)
	}
	return "> "
}

// Execute runs one command line and reports whether the shell should quit
func (sh *Shell) Execute(ctx context.Context, line string) bool {
	args, err := splitArgs(line)
	if err != nil {
		sh.printError(err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "exit", "quit", `\q`:
		return true
	case "help", `\h`:
		fmt.Fprintln(sh.out, helpText)
	case "connect":
		if len(rest) == 0 {
			sh.usage("connect <path> [force]")
			return false
		}
		sh.printResult(sh.store.Connect(ctx, rest[0], hasFlag(rest[1:], "force")))
	case "disconnect":
		sh.printResult(sh.store.Disconnect(hasFlag(rest, "force")))
	case "tables", "ls":
		sh.listTables(ctx)
	case "schema":
		if len(rest) != 1 {
			sh.usage("schema <table>")
			return false
		}
		sh.showSchema(ctx, rest[0])
	case "show":
		if len(rest) != 1 {
			sh.usage("show <table>")
			return false
		}
		rows, err := sh.store.Table(ctx, rest[0])
		sh.printRows(rows, err)
	case "rows":
		if len(rest) == 0 {
			sh.usage("rows <table> [col=value ...]")
			return false
		}
		conds, err := store.ParseConditions(rest[1:])
		if err != nil {
			sh.printError(err)
			return false
		}
		rows, err := sh.store.GetRows(ctx, rest[0], conds)
		sh.printRows(rows, err)
	case "get":
		if len(rest) != 2 {
			sh.usage("get <table> <id>")
			return false
		}
		row, err := sh.store.GetRow(ctx, rest[0], rest[1])
		if err != nil {
			sh.printError(err)
			return false
		}
		sh.printRows([]data.Row{*row}, nil)
	case "create":
		sh.createTable(ctx, rest)
	case "drop":
		if len(rest) != 1 {
			sh.usage("drop <table>")
			return false
		}
		sh.printResult(sh.store.DropTable(ctx, rest[0]))
	case "delete":
		if len(rest) < 2 {
			sh.usage("delete <table> <col=value> ...")
			return false
		}
		conds, err := store.ParseConditions(rest[1:])
		if err != nil {
			sh.printError(err)
			return false
		}
		sh.printResult(sh.store.DeleteRows(ctx, rest[0], conds))
	case "load":
		if len(rest) < 2 {
			sh.usage("load <table> <file.csv> [force]")
			return false
		}
		sh.printResult(ImportCSV(ctx, sh.store, rest[0], rest[1], hasFlag(rest[2:], "force")))
	default:
		sh.printError(fmt.Errorf("unknown command %q, type 'help' for commands", args[0]))
	}
	return false
}

func (sh *Shell) listTables(ctx context.Context) {
	names, err := sh.store.ListTables(ctx)
	if err != nil {
		sh.printError(err)
		return
	}
	if len(names) == 0 {
		fmt.Fprintln(sh.out, sh.muted.Render("No tables."))
		return
	}
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{n}
	}
	fmt.Fprintln(sh.out, sh.renderTable([]string{"table"}, rows))
}

func (sh *Shell) showSchema(ctx context.Context, name string) {
	cols, err := sh.store.TableSchema(ctx, name)
	if err != nil {
		sh.printError(err)
		return
	}
	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{c.Name, string(c.Type), yesNo(c.PrimaryKey), yesNo(c.NotNull)}
	}
	fmt.Fprintln(sh.out, sh.renderTable([]string{"column", "type", "primary key", "not null"}, rows))
}

// createTable parses "create <table> <def>, <def>, ..."
func (sh *Shell) createTable(ctx context.Context, rest []string) {
	if len(rest) < 3 {
		sh.usage("create <table> <col def>, ...")
		return
	}
	defs := strings.Split(strings.Join(rest[1:], " "), ",")
	cols := make([]schema.Column, 0, len(defs))
	for _, def := range defs {
		col, err := schema.ParseColumnDef(strings.TrimSpace(def))
		if err != nil {
			sh.printError(err)
			return
		}
		cols = append(cols, col)
	}
	sh.printResult(sh.store.CreateTable(ctx, rest[0], cols, false))
}

func (sh *Shell) printRows(rows []data.Row, err error) {
	if err != nil {
		sh.printError(err)
		return
	}
	if len(rows) == 0 {
		fmt.Fprintln(sh.out, sh.muted.Render("(0 rows)"))
		return
	}
	body := make([][]string, len(rows))
	for i, row := range rows {
		body[i] = make([]string, len(row.Values))
		for j, v := range row.Values {
			if v == nil {
				body[i][j] = "NULL"
			} else {
				body[i][j] = fmt.Sprint(v)
			}
		}
	}
	fmt.Fprintln(sh.out, sh.renderTable(rows[0].Columns, body))
	fmt.Fprintln(sh.out, sh.muted.Render(fmt.Sprintf("(%d rows)", len(rows))))
}

func (sh *Shell) renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(sh.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return sh.header
			}
			return sh.cell
		})
	return t.String()
}

func (sh *Shell) printResult(res *store.Result, err error) {
	if err != nil {
		sh.printError(err)
		return
	}
	msg := res.Message
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf(" Skipped rows: %v", res.Skipped)
	}
	fmt.Fprintln(sh.out, sh.success.Render(msg))
}

func (sh *Shell) printError(err error) {
	msg := err.Error()
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		msg = storeErr.Message
	}
	fmt.Fprintln(sh.out, sh.failure.Render("Error: "+msg))
}

func (sh *Shell) usage(text string) {
	fmt.Fprintln(sh.out, sh.muted.Render("Usage: "+text))
}

// ImportCSV creates a table from a CSV file's inferred columns and loads its
// rows best-effort
func ImportCSV(ctx context.Context, st *store.Store, tableName, path string, force bool) (*store.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := inference.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if _, err := st.CreateTable(ctx, tableName, inference.Columns(ds.Columns), force); err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return &store.Result{Status: store.StatusCreated, Message: fmt.Sprintf("Table '%s' created with no rows.", tableName)}, nil
	}
	return st.InsertRows(ctx, tableName, ds.Rows)
}

// splitArgs splits a command line on whitespace, keeping quoted sections
// (with their quotes) inside one argument
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
			cur.WriteRune(r)
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			inArg = true
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
