package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned by ReadFile for extensions other than
// .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("table: unsupported file format")

// Store persists one table as a CSV file. The file is rewritten wholesale on
// every Save; there is no append log and no locking between processes.
type Store struct {
	path string
}

// NewStore returns a Store backed by the CSV file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the backing file. A missing, empty or unparsable file yields an
// empty table; other read failures are reported as STORAGE_UNAVAILABLE.
func (s *Store) Load() (*Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, storageError("failed to read table", err)
	}
	t, err := parseCSV(bytes.NewReader(data))
	if err != nil {
		return New(), nil
	}
	return t, nil
}

// Save writes t to the backing file, creating parent directories as needed.
// The write goes through a temporary file in the same directory so a failed
// save never leaves a truncated table behind.
func (s *Store) Save(t *Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storageError("failed to create directory", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return storageError("failed to save table", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeCSV(tmp, t); err != nil {
		_ = tmp.Close()
		return storageError("failed to save table", err)
	}
	if err := tmp.Close(); err != nil {
		return storageError("failed to save table", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return storageError("failed to save table", err)
	}
	return nil
}

// Import replaces the stored table with the contents of src (CSV or the first
// sheet of an .xlsx workbook) and returns the new table.
func (s *Store) Import(src string) (*Table, error) {
	t, err := ReadFile(src)
	if err != nil {
		return nil, err
	}
	if err := s.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile loads a table from a .csv or .xlsx file.
func ReadFile(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, storageError("failed to open file", err)
		}
		defer f.Close()
		t, err := parseCSV(f)
		if err != nil {
			return nil, Errorf(InvalidInput, "File '%s' is not valid CSV: %v", filepath.Base(path), err)
		}
		return t, nil
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

func readWorkbook(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, storageError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return New(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, storageError("failed to read sheet "+sheets[0], err)
	}
	return FromRecords(rows), nil
}

func parseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return FromRecords(records), nil
}

func writeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if t.Width() == 0 {
		// A table with no columns is stored as an empty file.
		return nil
	}
	for _, rec := range t.Records() {
		if len(rec) == 1 && rec[0] == "" {
			// encoding/csv writes a lone empty field as a blank line, which
			// readers skip.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return err
			}
			continue
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
