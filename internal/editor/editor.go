// Package editor implements the table mutation operations exposed to agents.
//
// Every operation reloads the table from its Store, validates the request
// against the current shape, applies the edit and saves before returning. An
// Editor is not safe for concurrent use; callers that share one across
// goroutines serialize access (see internal/sessions).
package editor

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/pkg/instruction"
)

// Editor applies row and column edits to one persisted table.
type Editor struct {
	store   *table.Store
	policy  table.MatchPolicy
	logger  zerolog.Logger
	version atomic.Int64
}

// Option configures an Editor.
type Option func(*Editor)

// WithMatchPolicy selects how inexact column names are resolved.
func WithMatchPolicy(p table.MatchPolicy) Option {
	return func(e *Editor) { e.policy = p }
}

// WithLogger attaches a logger for mutation events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New returns an Editor over store. The default policy is MatchSubstring.
func New(store *table.Store, opts ...Option) *Editor {
	e := &Editor{store: store, policy: table.MatchSubstring, logger: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Path returns the backing file path.
func (e *Editor) Path() string { return e.store.Path() }

// Policy returns the column match policy.
func (e *Editor) Policy() table.MatchPolicy { return e.policy }

// Version counts successful mutations made through this Editor.
func (e *Editor) Version() int64 { return e.version.Load() }

// Snapshot reloads and returns the current table.
func (e *Editor) Snapshot() (*table.Table, error) {
	return e.store.Load()
}

func (e *Editor) commit(op string, t *table.Table) error {
	if err := e.store.Save(t); err != nil {
		e.logger.Warn().Err(err).Str("op", op).Str("path", e.store.Path()).Msg("table save failed")
		return err
	}
	v := e.version.Add(1)
	e.logger.Debug().Str("op", op).Int64("version", v).Int("rows", t.Len()).Int("cols", t.Width()).Msg("table saved")
	return nil
}

// RemoveColumn drops the column name resolves to.
func (e *Editor) RemoveColumn(name string) (string, error) {
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	col, err := t.ResolveColumn(strings.TrimSpace(name), e.policy)
	if err != nil {
		return "", err
	}
	if err := t.DropColumn(col); err != nil {
		return "", err
	}
	if err := e.commit("remove_column", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Column '%s' removed.", col), nil
}

// RemoveRow deletes the row spec addresses and echoes its values.
func (e *Editor) RemoveRow(spec string) (string, error) {
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	i, err := t.ResolveRow(spec)
	if err != nil {
		return "", err
	}
	removed, err := t.DeleteRow(i)
	if err != nil {
		return "", err
	}
	if err := e.commit("remove_row", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Row %d removed: %s", i, t.DescribeRow(removed)), nil
}

// AddColumn parses "<name> with values=<default>" and appends the column,
// filling existing rows with the coerced default ("" when none is given).
func (e *Editor) AddColumn(spec string) (string, error) {
	cs := instruction.ParseColumnSpec(spec)
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	var fill any = ""
	if cs.HasDefault {
		fill = table.Coerce(cs.Default)
	}
	if err := t.AddColumn(cs.Name, fill); err != nil {
		return "", err
	}
	if err := e.commit("add_column", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Column '%s' added with default value: '%s'.", cs.Name, table.Format(fill)), nil
}

// AddRow appends a row from payload. Keys must name existing columns exactly;
// values are stored as given and absent columns are left empty.
func (e *Editor) AddRow(payload map[string]string) (string, error) {
	if len(payload) == 0 {
		return "", table.Errorf(table.InvalidInput, "No column values given. Use key=value pairs such as 'name=John, age=30'.")
	}
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	values := make(map[string]any, len(payload))
	for k, v := range payload {
		values[k] = v
	}
	row, err := t.AppendRow(values)
	if err != nil {
		return "", err
	}
	if err := e.commit("add_row", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Row added: %s", t.DescribeRow(row)), nil
}

// SetCell writes value, coerced to a number when it is numeric, into one cell.
func (e *Editor) SetCell(rowSpec, column, value string) (string, error) {
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	i, err := t.ResolveRow(rowSpec)
	if err != nil {
		return "", err
	}
	col, err := t.ResolveColumn(strings.TrimSpace(column), e.policy)
	if err != nil {
		return "", err
	}
	v := table.Coerce(value)
	if err := t.Set(i, col, v); err != nil {
		return "", err
	}
	if err := e.commit("set_cell", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Value set at row %d, column '%s' to '%s'.", i, col, table.Format(v)), nil
}

// SetRow writes every payload value into the row rowSpec addresses. Each key
// is resolved like a SetCell column; the first key that fails to resolve is
// reported and nothing is written.
func (e *Editor) SetRow(rowSpec string, payload map[string]string) (string, error) {
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	i, err := t.ResolveRow(rowSpec)
	if err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", table.Errorf(table.InvalidInput, "No column values given. Use 'row: key=value, key2=value2'.")
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make(map[string]any, len(keys))
	for _, k := range keys {
		col, err := t.ResolveColumn(k, e.policy)
		if err != nil {
			return "", err
		}
		updates[col] = table.Coerce(payload[k])
	}

	var parts []string
	for _, col := range t.Columns() {
		v, ok := updates[col]
		if !ok {
			continue
		}
		if err := t.Set(i, col, v); err != nil {
			return "", err
		}
		parts = append(parts, col+"="+table.Format(v))
	}
	if err := e.commit("set_row", t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Row %d updated: %s", i, strings.Join(parts, ", ")), nil
}

// Import replaces the table wholesale with the contents of path.
func (e *Editor) Import(path string) (string, error) {
	t, err := e.store.Import(path)
	if err != nil {
		return "", err
	}
	v := e.version.Add(1)
	e.logger.Info().Str("source", path).Int64("version", v).Int("rows", t.Len()).Msg("table imported")
	return fmt.Sprintf("Loaded table with %d rows and columns: %s", t.Len(), columnList(t)), nil
}
