package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound indicates the spreadsheet does not exist or the service
	// account has no access to it.
	ErrNotFound = errors.New("sheets: spreadsheet not found")

	// ErrUnavailable indicates the Sheets API could not be reached or
	// answered with a server error. Safe to retry.
	ErrUnavailable = errors.New("sheets: api unavailable")

	// ErrInvalidRef indicates the caller-supplied sheet reference is
	// neither a spreadsheet ID nor a docs.google.com URL.
	ErrInvalidRef = errors.New("sheets: invalid sheet reference")
)

// Row is a sheet row keyed by header, with RowNumber carrying the 1-based
// sheet row (the header row is row 1, so the first data row is 2).
type Row struct {
	RowNumber int               `json:"_id"`
	Cells     map[string]string `json:"-"`
}

// Receipt describes the outcome of a successful append or update.
type Receipt struct {
	SpreadsheetID string `json:"spreadsheetId"`
	UpdatedRange  string `json:"updatedRange,omitempty"`
	UpdatedRows   int64  `json:"updatedRows"`
	UpdatedCells  int64  `json:"updatedCells"`
}

// Client is the narrow contract against the spreadsheet data source. It is
// treated as a slow, possibly-failing remote dependency: every method is
// bounded by its context and fails with ErrNotFound or ErrUnavailable.
type Client interface {
	// FetchRows returns all data rows of the sheet keyed by header.
	FetchRows(ctx context.Context, sheetID string) ([]Row, error)

	// AppendRow appends values as a new row after the existing data.
	AppendRow(ctx context.Context, sheetID string, values []string) (Receipt, error)

	// UpdateRow overwrites the given 1-based row, mapping values by header.
	// Headers absent from values are written as empty cells.
	UpdateRow(ctx context.Context, sheetID string, rowNumber int, values map[string]string) (Receipt, error)
}

var sheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
var sheetIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// ExtractID resolves a caller-supplied reference (bare spreadsheet ID or
// full docs.google.com URL) to a spreadsheet ID.
func ExtractID(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidRef)
	}
	if m := sheetURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if sheetIDPattern.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
}

// MapRows converts the raw value grid returned by the API into header-keyed
// rows. The first value row is the header; short rows are padded with empty
// cells and cells beyond the header width are dropped.
func MapRows(values [][]any) []Row {
	if len(values) == 0 {
		return []Row{}
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = fmt.Sprint(h)
	}

	rows := make([]Row, 0, len(values)-1)
	for i, raw := range values[1:] {
		cells := make(map[string]string, len(headers))
		for j, header := range headers {
			if j < len(raw) {
				cells[header] = fmt.Sprint(raw[j])
			} else {
				cells[header] = ""
			}
		}
		rows = append(rows, Row{RowNumber: i + 2, Cells: cells})
	}
	return rows
}
