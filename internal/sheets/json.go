package sheets

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON flattens the row into a single object of the form
// {"_id": 2, "Name": "Ada", ...} so API consumers see header-keyed records.
func (r Row) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Cells)+1)
	for header, cell := range r.Cells {
		flat[header] = cell
	}
	flat["_id"] = r.RowNumber
	return json.Marshal(flat)
}

// UnmarshalJSON restores a row from its flattened form.
func (r *Row) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	r.Cells = make(map[string]string, len(flat))
	for key, value := range flat {
		if key == "_id" {
			if n, ok := value.(float64); ok {
				r.RowNumber = int(n)
			}
			continue
		}
		r.Cells[key] = fmt.Sprint(value)
	}
	return nil
}
