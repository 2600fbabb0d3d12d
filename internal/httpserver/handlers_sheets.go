package httpserver

import (
	"net/http"

	apierrors "github.com/GridPay/server/internal/errors"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/pkg/responders"
)

// AppendRowRequest is the body of POST /api/sheets.
type AppendRowRequest struct {
	SheetID     string   `json:"sheetId,omitempty"`
	SheetURL    string   `json:"sheetUrl,omitempty"`
	Values      []string `json:"values"`
	EgldAddress string   `json:"egldAddress,omitempty"`
}

// UpdateRowRequest is the body of PUT /api/sheets.
type UpdateRowRequest struct {
	SheetID     string            `json:"sheetId,omitempty"`
	SheetURL    string            `json:"sheetUrl,omitempty"`
	RowNumber   int               `json:"rowNumber"`
	Values      map[string]string `json:"values"`
	EgldAddress string            `json:"egldAddress,omitempty"`
}

// sheetRef resolves the sheet reference from id and url inputs, preferring
// the explicit id.
func sheetRef(id, url string) string {
	if id != "" {
		return id
	}
	return url
}

// getSheet returns the sheet's data rows as header-keyed objects.
// GET /api/sheets?sheetId=|sheetUrl=
func (h *handlers) getSheet(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ref := sheetRef(r.URL.Query().Get("sheetId"), r.URL.Query().Get("sheetUrl"))
	if ref == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "sheetId or sheetUrl query parameter is required")
		return
	}

	caller := callerAddress(r, "")
	rows, cacheHit, err := h.gateway.ReadSheet(r.Context(), ref, caller)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sheet_ref", ref).
			Msg("sheets.read_failed")
		writeServiceError(w, err, map[string]any{"sheetRef": ref})
		return
	}

	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	responders.JSON(w, http.StatusOK, rows)
}

// appendSheetRow appends a new row after the existing data.
// POST /api/sheets
func (h *handlers) appendSheetRow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req AppendRowRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "Invalid request body")
		return
	}

	ref := sheetRef(req.SheetID, req.SheetURL)
	if ref == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "sheetId or sheetUrl field is required")
		return
	}
	if len(req.Values) == 0 {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "values field is required and must not be empty")
		return
	}

	caller := callerAddress(r, req.EgldAddress)
	receipt, err := h.gateway.AppendRow(r.Context(), ref, req.Values, caller)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sheet_ref", ref).
			Msg("sheets.append_failed")
		writeServiceError(w, err, map[string]any{"sheetRef": ref})
		return
	}

	responders.JSON(w, http.StatusCreated, receipt)
}

// updateSheetRow overwrites one row by its sheet row number.
// PUT /api/sheets
func (h *handlers) updateSheetRow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req UpdateRowRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "Invalid request body")
		return
	}

	ref := sheetRef(req.SheetID, req.SheetURL)
	if ref == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "sheetId or sheetUrl field is required")
		return
	}
	if req.RowNumber < 2 {
		// Row 1 is the header row and is not writable through the API.
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "rowNumber must be 2 or greater")
		return
	}
	if len(req.Values) == 0 {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "values field is required and must not be empty")
		return
	}

	caller := callerAddress(r, req.EgldAddress)
	receipt, err := h.gateway.UpdateRow(r.Context(), ref, req.RowNumber, req.Values, caller)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sheet_ref", ref).
			Int("row_number", req.RowNumber).
			Msg("sheets.update_failed")
		writeServiceError(w, err, map[string]any{"sheetRef": ref, "rowNumber": req.RowNumber})
		return
	}

	responders.JSON(w, http.StatusOK, receipt)
}
