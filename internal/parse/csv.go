// Package parse turns raw CSV submissions into product rows.
package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required header columns.
const (
	ColSerialNumber = "Serial Number"
	ColProductName  = "Product Name"
	ColImageURLs    = "Input Image Urls"
)

// Row is one product row from the input CSV.
type Row struct {
	SerialNumber int
	ProductName  string
	// ImageURLs preserves the order and count of the comma-separated
	// URL field. Segments are whitespace-trimmed; empty segments are
	// kept so output alignment matches the input verbatim.
	ImageURLs []string
}

// MissingColumnError reports a required column absent from the header.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// Reader streams rows from a CSV submission in a single pass.
type Reader struct {
	cr      *csv.Reader
	empty   bool
	missing string
	serial  int
	name    int
	urls    int
	rowNum  int
}

// NewReader reads the header row and prepares column lookups. A missing
// required column is only reported once a data row is actually read, so
// a header-only or empty submission still drains cleanly.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Reader{empty: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	rd := &Reader{cr: cr, serial: -1, name: -1, urls: -1, rowNum: 1}
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case ColSerialNumber:
			rd.serial = i
		case ColProductName:
			rd.name = i
		case ColImageURLs:
			rd.urls = i
		}
	}
	switch {
	case rd.serial < 0:
		rd.missing = ColSerialNumber
	case rd.name < 0:
		rd.missing = ColProductName
	case rd.urls < 0:
		rd.missing = ColImageURLs
	}
	return rd, nil
}

// Next returns the next row, or io.EOF when the input is drained.
// Any other error means the submission is malformed and the caller
// should abort the whole job.
func (r *Reader) Next() (*Row, error) {
	if r.empty {
		return nil, io.EOF
	}

	rec, err := r.cr.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	r.rowNum++

	if r.missing != "" {
		return nil, &MissingColumnError{Column: r.missing}
	}

	maxIdx := r.serial
	if r.name > maxIdx {
		maxIdx = r.name
	}
	if r.urls > maxIdx {
		maxIdx = r.urls
	}
	if len(rec) <= maxIdx {
		return nil, fmt.Errorf("row %d: expected at least %d fields, got %d", r.rowNum, maxIdx+1, len(rec))
	}

	serial, err := strconv.Atoi(strings.TrimSpace(rec[r.serial]))
	if err != nil {
		return nil, fmt.Errorf("row %d: invalid serial number %q", r.rowNum, rec[r.serial])
	}

	return &Row{
		SerialNumber: serial,
		ProductName:  rec[r.name],
		ImageURLs:    splitURLs(rec[r.urls]),
	}, nil
}

func splitURLs(field string) []string {
	parts := strings.Split(field, ",")
	urls := make([]string, len(parts))
	for i, p := range parts {
		urls[i] = strings.TrimSpace(p)
	}
	return urls
}
