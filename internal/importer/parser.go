// Package importer turns an uploaded delimited-text file into import rows.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/activity-reports-api/internal/models"
)

var (
	// ErrEmptyInput is returned when the file has a header but no data rows
	ErrEmptyInput = errors.New("import file has no data rows")
	// ErrMissingColumns is returned when the header lacks a required column
	ErrMissingColumns = errors.New("import file is missing required columns")
	// ErrInvalidEncoding is returned when the file is not UTF-8 text
	ErrInvalidEncoding = errors.New("import file is not valid UTF-8")
)

var utf8BOM = []byte("\ufeff")

type record struct {
	line   int
	fields []string
}

// Batch is a parsed import file. The content is read once; Rows and Valid
// may be ranged over any number of times.
type Batch struct {
	header    []string
	required  []string
	records   []record
	malformed int
	invalid   int
}

// Parse reads delimited text from r. The first non-empty line is the header;
// every name in required must appear in it. Data lines whose value count
// differs from the header are dropped.
func Parse(r io.Reader, required []string) (*Batch, error) {
	return ParseWithDelimiter(r, ',', required)
}

// ParseWithDelimiter is Parse with a custom field delimiter
func ParseWithDelimiter(r io.Reader, comma rune, required []string) (*Batch, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // counts are checked per row below
	reader.LazyQuotes = true

	header, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	b := &Batch{header: header, required: required}

	dataLines := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				dataLines++
				b.malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read import file: %w", err)
		}
		if blank(fields) {
			continue
		}
		dataLines++

		if len(fields) != len(header) {
			b.malformed++
			continue
		}

		line, _ := reader.FieldPos(0)
		rec := record{line: line, fields: fields}
		if !b.row(rec).Valid(required) {
			b.invalid++
		}
		b.records = append(b.records, rec)
	}

	if dataLines == 0 {
		return nil, ErrEmptyInput
	}
	if missing := b.missingColumns(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return b, nil
}

func readHeader(reader *csv.Reader) ([]string, error) {
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil, ErrEmptyInput
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read import header: %w", err)
		}
		if blank(fields) {
			continue
		}

		header := make([]string, len(fields))
		for i, h := range fields {
			header[i] = strings.ToLower(strings.TrimSpace(h))
		}
		return header, nil
	}
}

// blank reports whether a record came from a whitespace-only line
func blank(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}

func (b *Batch) missingColumns() []string {
	present := make(map[string]bool, len(b.header))
	for _, h := range b.header {
		present[h] = true
	}
	var missing []string
	for _, col := range b.required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func (b *Batch) row(rec record) models.ImportRow {
	values := make(map[string]string, len(b.header))
	for i, h := range b.header {
		values[h] = rec.fields[i]
	}
	return models.ImportRow{Line: rec.line, Values: values}
}

// Header returns the normalised header names
func (b *Batch) Header() []string {
	return append([]string(nil), b.header...)
}

// Rows yields every row whose value count matched the header
func (b *Batch) Rows() iter.Seq[models.ImportRow] {
	return func(yield func(models.ImportRow) bool) {
		for _, rec := range b.records {
			if !yield(b.row(rec)) {
				return
			}
		}
	}
}

// Valid yields the rows with every required field present
func (b *Batch) Valid() iter.Seq[models.ImportRow] {
	return func(yield func(models.ImportRow) bool) {
		for row := range b.Rows() {
			if !row.Valid(b.required) {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}

// ValidCount is the number of rows Valid yields
func (b *Batch) ValidCount() int {
	return len(b.records) - b.invalid
}

// Skipped is the number of data lines dropped before submission, either
// for a column count mismatch or a missing required field
func (b *Batch) Skipped() int {
	return b.malformed + b.invalid
}
