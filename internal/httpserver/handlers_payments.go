package httpserver

import (
	"net/http"

	apierrors "github.com/GridPay/server/internal/errors"
	"github.com/GridPay/server/internal/ledger"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/pkg/responders"
)

// CreatePaymentRequest is the body of POST /api/payments.
type CreatePaymentRequest struct {
	Amount           string `json:"amount"`
	RecipientAddress string `json:"recipientAddress"`
	EgldAddress      string `json:"egldAddress"`
}

// PaymentQuoteResponse mirrors the created intent plus the fee-inclusive
// total the payer must transfer.
type PaymentQuoteResponse struct {
	PaymentID        string  `json:"paymentId"`
	Amount           string  `json:"amount"`
	RecipientAddress string  `json:"recipientAddress"`
	TxFeePercentage  float64 `json:"txFeePercentage"`
	TotalAmount      string  `json:"totalAmount"`
}

// PaymentStatusResponse is the body of GET /api/payments.
type PaymentStatusResponse struct {
	PaymentID string `json:"paymentId"`
	TxHash    string `json:"txHash,omitempty"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

// createPayment creates a pending payment intent and returns the quote.
// POST /api/payments
func (h *handlers) createPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req CreatePaymentRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "Invalid request body")
		return
	}

	switch {
	case req.Amount == "":
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "amount field is required")
		return
	case req.RecipientAddress == "":
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "recipientAddress field is required")
		return
	case req.EgldAddress == "":
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "egldAddress field is required")
		return
	}

	quote, err := h.payments.CreateIntent(r.Context(), req.Amount, req.EgldAddress, req.RecipientAddress)
	if err != nil {
		log.Warn().
			Err(err).
			Str("payer", logger.TruncateAddress(req.EgldAddress)).
			Msg("payments.create_failed")
		writeServiceError(w, err, nil)
		return
	}

	responders.JSON(w, http.StatusCreated, PaymentQuoteResponse{
		PaymentID:        quote.Intent.ID,
		Amount:           quote.Intent.Amount,
		RecipientAddress: quote.Intent.RecipientAddress,
		TxFeePercentage:  float64(quote.FeeBps) / 100,
		TotalAmount:      quote.TotalAmount,
	})
}

// getPayment resolves an intent against the chain and returns its status.
// The lookup is idempotent: a terminal intent is returned as-is without
// consulting the oracle again.
// GET /api/payments?paymentId=&txHash=
func (h *handlers) getPayment(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	paymentID := r.URL.Query().Get("paymentId")
	if paymentID == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "paymentId query parameter is required")
		return
	}
	txHash := r.URL.Query().Get("txHash")

	// Without a transaction hash there is nothing to verify on chain;
	// report the stored state.
	var intent ledger.PaymentIntent
	var err error
	if txHash == "" {
		intent, err = h.payments.Intent(r.Context(), paymentID)
	} else {
		intent, err = h.payments.ResolveIntent(r.Context(), paymentID, txHash)
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("payment_id", paymentID).
			Msg("payments.resolve_failed")
		writeServiceError(w, err, map[string]any{"paymentId": paymentID})
		return
	}

	responders.JSON(w, http.StatusOK, PaymentStatusResponse{
		PaymentID: intent.ID,
		TxHash:    intent.TxHash,
		Status:    string(intent.Status),
		Amount:    intent.Amount,
	})
}
