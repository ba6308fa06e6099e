package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/braunma/steelconnect-import/internal/constants"
	"github.com/braunma/steelconnect-import/pkg/models"
	"github.com/braunma/steelconnect-import/pkg/utils"
)

const utf8BOM = "\ufeff"

// CSVReader yields site records from an import file, one row at a time, in file order
type CSVReader struct {
	path   string
	closer io.Closer
	reader *csv.Reader
	index  map[string]int
	logger *utils.Logger
	rows   int
}

// Open opens path and validates its header row.
// No record is read until Next is called.
func Open(path string, logger *utils.Logger) (*CSVReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("failed to open file: %w", err)}
	}

	r, err := NewCSVReader(file, path, logger)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewCSVReader reads CSV data from src; name is only used in error messages
func NewCSVReader(src io.Reader, name string, logger *utils.Logger) (*CSVReader, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: name, Err: errors.New("file is empty")}
		}
		return nil, &ParseError{Path: name, Err: fmt.Errorf("failed to read header: %w", err)}
	}

	index := buildHeaderIndex(header)

	var missing []string
	for _, col := range constants.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{Path: name, Missing: missing}
	}

	logger.Debug("Header of %s: %v", name, header)

	return &CSVReader{
		path:   name,
		reader: reader,
		index:  index,
		logger: logger,
	}, nil
}

// Next returns the next record. It returns io.EOF once the file is exhausted.
// A *ValidationError only concerns the current row; Next may be called again.
func (r *CSVReader) Next() (*models.SiteRecord, error) {
	row, err := r.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			r.rows++
			return nil, &ValidationError{Line: csvErr.StartLine, Message: csvErr.Err.Error()}
		}
		return nil, &ParseError{Path: r.path, Err: err}
	}
	r.rows++

	line, _ := r.reader.FieldPos(0)
	return buildRecord(row, r.index, line)
}

// Rows returns the number of data rows read so far
func (r *CSVReader) Rows() int {
	return r.rows
}

// Close releases the underlying file, if any
func (r *CSVReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll drains the reader. Rows failing validation are returned separately.
func (r *CSVReader) ReadAll() ([]*models.SiteRecord, []*ValidationError, error) {
	var records []*models.SiteRecord
	var invalid []*ValidationError

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, invalid, nil
		}
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			invalid = append(invalid, vErr)
			continue
		}
		if err != nil {
			return records, invalid, err
		}
		records = append(records, rec)
	}
}

// buildHeaderIndex maps lowercase column names to their position
func buildHeaderIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}
