package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apierrors "github.com/GridPay/server/internal/errors"
	"github.com/GridPay/server/internal/ledger"
	"github.com/GridPay/server/internal/ratelimit"
	"github.com/GridPay/server/internal/sheets"
)

// decodeJSON decodes a JSON request body into the destination struct.
// The reader is closed after decoding.
func decodeJSON(r io.ReadCloser, dest any) error {
	defer r.Close()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// callerAddress resolves the caller identity for the audit trail through the
// same resolver the rate limiter keys on, so a request is always limited and
// audited under one identity. The request body is a further fallback the
// middleware cannot see.
func callerAddress(r *http.Request, bodyAddress string) string {
	if wallet := ratelimit.WalletFromRequest(r); wallet != "" {
		return wallet
	}
	return bodyAddress
}

// writeServiceError maps service sentinel errors onto the wire error
// taxonomy. Unknown errors become internal_error without leaking detail.
func writeServiceError(w http.ResponseWriter, err error, details map[string]any) {
	switch {
	case errors.Is(err, sheets.ErrInvalidRef):
		apierrors.WriteError(w, apierrors.ErrCodeInvalidSheet, "Invalid sheet reference", details)
	case errors.Is(err, sheets.ErrNotFound):
		apierrors.WriteError(w, apierrors.ErrCodeSheetNotFound, "Sheet not found or not accessible", details)
	case errors.Is(err, sheets.ErrUnavailable):
		apierrors.WriteError(w, apierrors.ErrCodeSheetsUnavailable, "Spreadsheet service is temporarily unavailable", details)
	case errors.Is(err, ledger.ErrInvalidAmount):
		apierrors.WriteError(w, apierrors.ErrCodeInvalidAmount, "Amount must be a positive decimal number", details)
	case errors.Is(err, ledger.ErrInvalidAddress):
		apierrors.WriteError(w, apierrors.ErrCodeInvalidAddress, "Address must be a valid erd1 address", details)
	case errors.Is(err, ledger.ErrUnknownAccount):
		apierrors.WriteError(w, apierrors.ErrCodeInvalidAddress, "Payer account does not exist on chain", details)
	case errors.Is(err, ledger.ErrNotFound):
		apierrors.WriteError(w, apierrors.ErrCodePaymentNotFound, "Payment not found", details)
	case errors.Is(err, ledger.ErrOracleUnavailable):
		apierrors.WriteError(w, apierrors.ErrCodeOracleUnavailable, "Transaction status is temporarily unavailable", details)
	default:
		apierrors.WriteError(w, apierrors.ErrCodeInternalError, "Internal server error", details)
	}
}
