package sheets

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{"bare id", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", false},
		{"full url", "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0", "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", false},
		{"url without fragment", "https://docs.google.com/spreadsheets/d/abc-123_XYZ", "abc-123_XYZ", false},
		{"empty", "", "", true},
		{"garbage url", "https://example.com/not-a-sheet", "", true},
		{"id with spaces", "not a sheet id", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractID(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractID(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidRef) {
				t.Errorf("error = %v, want ErrInvalidRef", err)
			}
			if got != tt.want {
				t.Errorf("ExtractID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestMapRows(t *testing.T) {
	values := [][]any{
		{"Name", "Email", "Plan"},
		{"Ada", "ada@example.com", "pro"},
		{"Grace", "grace@example.com"}, // short row: padded
		{"Linus", "linus@example.com", "free", "extra"}, // long row: trailing cell dropped
	}

	rows := MapRows(values)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	// Data rows start at sheet row 2, after the header.
	if rows[0].RowNumber != 2 || rows[2].RowNumber != 4 {
		t.Errorf("row numbers = %d, %d; want 2, 4", rows[0].RowNumber, rows[2].RowNumber)
	}
	if rows[0].Cells["Name"] != "Ada" || rows[0].Cells["Plan"] != "pro" {
		t.Errorf("row 2 = %v", rows[0].Cells)
	}
	if rows[1].Cells["Plan"] != "" {
		t.Errorf("short row: Plan = %q, want empty", rows[1].Cells["Plan"])
	}
	if _, ok := rows[2].Cells["extra"]; ok {
		t.Error("cells beyond the header width must be dropped")
	}
}

func TestMapRowsEmpty(t *testing.T) {
	if rows := MapRows(nil); len(rows) != 0 {
		t.Errorf("MapRows(nil) = %v, want empty", rows)
	}
	if rows := MapRows([][]any{{"OnlyHeader"}}); len(rows) != 0 {
		t.Errorf("header-only sheet should yield no rows, got %v", rows)
	}
}

func TestRowJSONRoundTrip(t *testing.T) {
	row := Row{RowNumber: 5, Cells: map[string]string{"Name": "Ada", "Plan": "pro"}}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("unmarshal to map: %v", err)
	}
	if flat["_id"] != float64(5) || flat["Name"] != "Ada" {
		t.Errorf("flattened row = %v", flat)
	}

	var back Row
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal to Row: %v", err)
	}
	if back.RowNumber != 5 || back.Cells["Plan"] != "pro" {
		t.Errorf("round-tripped row = %+v", back)
	}
}
