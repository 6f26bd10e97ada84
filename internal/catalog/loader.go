package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrDataUnavailable is returned when the catalog file is missing,
// unreadable or malformed. Callers treat the catalog as empty.
var ErrDataUnavailable = errors.New("catalog data unavailable")

// LoadFile reads a catalog from a delimited file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load parses a comma-separated table with a header row. Header names are
// matched case-insensitively; columns other than title, author, genre and
// description are kept in Book.Extra.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var rows [][]string
	for n := 1; ; n++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("%w: record %d has %d fields, header has %d",
				ErrDataUnavailable, n, len(record), len(header))
		}
		rows = append(rows, record)
	}

	return New(header, rows), nil
}

func (c *Catalog) bookFromRow(row []string) Book {
	var b Book
	for i, col := range c.columns {
		v := row[i]
		switch col {
		case ColumnTitle:
			b.Title = v
		case ColumnAuthor:
			b.Author = v
		case ColumnGenre:
			b.Genre = v
		case ColumnDescription:
			b.Description = v
		default:
			if b.Extra == nil {
				b.Extra = make(map[string]string)
			}
			b.Extra[col] = v
		}
	}
	return b
}

// Clean drops exact duplicate rows, keeping the first occurrence. Missing
// title, author, genre and description values read as "". Absent columns
// stay absent so recommenders that need them can degrade. The input catalog
// is not modified.
func Clean(c *Catalog) *Catalog {
	if c == nil {
		return Empty()
	}

	out := &Catalog{columns: c.Columns()}

	seen := make(map[string]struct{}, len(c.rows))
	for i, row := range c.rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out.rows = append(out.rows, append([]string(nil), row...))
		out.books = append(out.books, copyBook(c.books[i]))
	}

	return out
}

// rowKey encodes row so that distinct rows never share a key: each field
// is prefixed with its byte length.
func rowKey(row []string) string {
	var sb strings.Builder
	for _, v := range row {
		sb.WriteString(strconv.Itoa(len(v)))
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}

func copyBook(b Book) Book {
	if b.Extra != nil {
		extra := make(map[string]string, len(b.Extra))
		for k, v := range b.Extra {
			extra[k] = v
		}
		b.Extra = extra
	}
	return b
}
