package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	domain "github.com/bryanwahyu/decision-ledger/internal/domain/scans"
)

// ErrEmptySheet is returned when the input has no header row.
var ErrEmptySheet = errors.New("sheet has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeCSV reads a CSV export into a Table. The first non-blank row is the
// header. Rows may be ragged; blank rows are skipped. Semicolon-separated
// exports are detected from the header line.
func DecodeCSV(name string, r io.Reader) (domain.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", name, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = sniffDelimiter(raw)

	t := domain.Table{Name: name}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("parse %s: %w", name, err)
		}
		if blank(rec) {
			continue
		}
		if t.Headers == nil {
			t.Headers = trimAll(rec)
			continue
		}
		t.Rows = append(t.Rows, trimAll(rec))
	}
	if t.Headers == nil {
		return domain.Table{}, fmt.Errorf("%s: %w", name, ErrEmptySheet)
	}
	return t, nil
}

func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) {
		return '\t'
	}
	return ','
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
