// Package gateway mediates every sheet operation: reads go through the
// cache, writes invalidate it, and each call leaves an audit record.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GridPay/server/internal/audit"
	"github.com/GridPay/server/internal/cache"
	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/sheets"
)

// AnonymousCaller is recorded when the request carried no wallet address.
const AnonymousCaller = "anonymous"

// Config holds gateway settings.
type Config struct {
	// CacheTTL bounds how long a fetched sheet is served from cache.
	CacheTTL time.Duration

	// SheetTimeout bounds each upstream spreadsheet call.
	SheetTimeout time.Duration
}

// Service is the mediator between the HTTP layer and the spreadsheet
// source. The cache is best-effort: its failures degrade to direct
// fetches and never surface to callers.
type Service struct {
	sheets sheets.Client
	cache  *cache.Mediator
	trail  audit.Store
	cfg    Config
	now    func() time.Time
}

// NewService wires the gateway.
func NewService(client sheets.Client, mediator *cache.Mediator, trail audit.Store, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.SheetTimeout <= 0 {
		cfg.SheetTimeout = 30 * time.Second
	}
	return &Service{
		sheets: client,
		cache:  mediator,
		trail:  trail,
		cfg:    cfg,
		now:    time.Now,
	}
}

func cacheKey(sheetID string) string {
	return "sheet:" + sheetID
}

// ReadSheet returns the sheet's data rows, served from cache when a live
// entry exists. The returned flag reports whether the cache served it.
func (s *Service) ReadSheet(ctx context.Context, ref, caller string) ([]sheets.Row, bool, error) {
	sheetID, err := sheets.ExtractID(ref)
	if err != nil {
		return nil, false, err
	}

	payload, hit, err := s.cache.ReadThrough(ctx, cacheKey(sheetID), s.cfg.CacheTTL, func(ctx context.Context) ([]byte, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.SheetTimeout)
		defer cancel()

		rows, err := s.sheets.FetchRows(fetchCtx, sheetID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		s.record(ctx, sheetID, "GET", statusFor(err), false, caller)
		return nil, false, err
	}

	var rows []sheets.Row
	if err := json.Unmarshal(payload, &rows); err != nil {
		// A cached entry that no longer decodes is dropped so the next
		// read fetches fresh data.
		s.cache.Invalidate(ctx, cacheKey(sheetID))
		s.record(ctx, sheetID, "GET", 500, hit, caller)
		return nil, false, fmt.Errorf("decode cached sheet %s: %w", sheetID, err)
	}

	s.record(ctx, sheetID, "GET", 200, hit, caller)
	return rows, hit, nil
}

// AppendRow appends values as a new row and invalidates the cached sheet
// before returning, so a read that follows the write never sees the sheet
// without the new row.
func (s *Service) AppendRow(ctx context.Context, ref string, values []string, caller string) (sheets.Receipt, error) {
	sheetID, err := sheets.ExtractID(ref)
	if err != nil {
		return sheets.Receipt{}, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.SheetTimeout)
	defer cancel()

	receipt, err := s.sheets.AppendRow(writeCtx, sheetID, values)
	if err != nil {
		s.record(ctx, sheetID, "POST", statusFor(err), false, caller)
		return sheets.Receipt{}, err
	}

	s.cache.Invalidate(ctx, cacheKey(sheetID))
	s.record(ctx, sheetID, "POST", 201, false, caller)
	return receipt, nil
}

// UpdateRow overwrites one row by number and invalidates the cached sheet
// before returning.
func (s *Service) UpdateRow(ctx context.Context, ref string, rowNumber int, values map[string]string, caller string) (sheets.Receipt, error) {
	sheetID, err := sheets.ExtractID(ref)
	if err != nil {
		return sheets.Receipt{}, err
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.cfg.SheetTimeout)
	defer cancel()

	receipt, err := s.sheets.UpdateRow(writeCtx, sheetID, rowNumber, values)
	if err != nil {
		s.record(ctx, sheetID, "PUT", statusFor(err), false, caller)
		return sheets.Receipt{}, err
	}

	s.cache.Invalidate(ctx, cacheKey(sheetID))
	s.record(ctx, sheetID, "PUT", 200, false, caller)
	return receipt, nil
}

// record appends to the audit trail. The trail is observational: a failed
// append is logged but never fails the call that triggered it.
func (s *Service) record(ctx context.Context, resourceID, method string, status int, cacheHit bool, caller string) {
	if s.trail == nil {
		return
	}
	if caller == "" {
		caller = AnonymousCaller
	}
	rec := audit.Record{
		ID:            uuid.NewString(),
		ResourceID:    resourceID,
		Method:        method,
		Status:        status,
		CacheHit:      cacheHit,
		CallerAddress: caller,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.trail.Append(ctx, rec); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Err(err).
			Str("resource_id", resourceID).
			Msg("audit.append_failed")
	}
}

// statusFor maps upstream sentinel errors to the HTTP status recorded in
// the trail. The HTTP layer performs the equivalent mapping for responses.
func statusFor(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, sheets.ErrInvalidRef):
		return 400
	case errors.Is(err, sheets.ErrNotFound):
		return 404
	default:
		return 502
	}
}
