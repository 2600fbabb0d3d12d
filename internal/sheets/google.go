package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/GridPay/server/internal/circuitbreaker"
	"github.com/GridPay/server/internal/metrics"
)

// defaultRange covers the full addressable grid for reads.
const defaultRange = "A1:ZZ1000"

// headerRange reads only the header row, used to map named values onto
// columns for updates.
const headerRange = "A1:ZZ1"

// GoogleClient implements Client against the Google Sheets v4 API using a
// service account credentials file.
type GoogleClient struct {
	svc       *sheetsapi.Service
	readRange string
	breakers  *circuitbreaker.Manager
	collector *metrics.Metrics
}

// GoogleConfig holds Sheets API settings.
type GoogleConfig struct {
	CredentialsPath string
	ReadRange       string // defaults to A1:ZZ1000
}

// NewGoogleClient builds the Sheets API service.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig, breakers *circuitbreaker.Manager, collector *metrics.Metrics) (*GoogleClient, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	readRange := cfg.ReadRange
	if readRange == "" {
		readRange = defaultRange
	}

	return &GoogleClient{
		svc:       svc,
		readRange: readRange,
		breakers:  breakers,
		collector: collector,
	}, nil
}

// FetchRows returns all data rows of the sheet keyed by header.
func (c *GoogleClient) FetchRows(ctx context.Context, sheetID string) ([]Row, error) {
	start := time.Now()

	result, err := c.breakers.Execute(circuitbreaker.ServiceSheetsAPI, func() (any, error) {
		resp, err := c.svc.Spreadsheets.Values.Get(sheetID, c.readRange).Context(ctx).Do()
		if err != nil {
			return nil, mapAPIError(err)
		}
		return resp.Values, nil
	})
	if err != nil {
		c.collector.ObserveSheetCall("fetch", "error", time.Since(start))
		return nil, wrapBreakerError(err)
	}

	c.collector.ObserveSheetCall("fetch", "ok", time.Since(start))
	return MapRows(result.([][]any)), nil
}

// AppendRow appends values as a new row after the existing data.
func (c *GoogleClient) AppendRow(ctx context.Context, sheetID string, values []string) (Receipt, error) {
	start := time.Now()

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	body := &sheetsapi.ValueRange{Values: [][]any{cells}}

	result, err := c.breakers.Execute(circuitbreaker.ServiceSheetsAPI, func() (any, error) {
		resp, err := c.svc.Spreadsheets.Values.Append(sheetID, "A1", body).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapAPIError(err)
		}
		receipt := Receipt{SpreadsheetID: resp.SpreadsheetId}
		if resp.Updates != nil {
			receipt.UpdatedRange = resp.Updates.UpdatedRange
			receipt.UpdatedRows = resp.Updates.UpdatedRows
			receipt.UpdatedCells = resp.Updates.UpdatedCells
		}
		return receipt, nil
	})
	if err != nil {
		c.collector.ObserveSheetCall("append", "error", time.Since(start))
		return Receipt{}, wrapBreakerError(err)
	}

	c.collector.ObserveSheetCall("append", "ok", time.Since(start))
	return result.(Receipt), nil
}

// UpdateRow overwrites the given 1-based row, mapping values by header.
func (c *GoogleClient) UpdateRow(ctx context.Context, sheetID string, rowNumber int, values map[string]string) (Receipt, error) {
	start := time.Now()

	result, err := c.breakers.Execute(circuitbreaker.ServiceSheetsAPI, func() (any, error) {
		headerResp, err := c.svc.Spreadsheets.Values.Get(sheetID, headerRange).Context(ctx).Do()
		if err != nil {
			return nil, mapAPIError(err)
		}

		var headers []any
		if len(headerResp.Values) > 0 {
			headers = headerResp.Values[0]
		}

		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = values[fmt.Sprint(h)]
		}

		target := fmt.Sprintf("A%d:ZZ%d", rowNumber, rowNumber)
		resp, err := c.svc.Spreadsheets.Values.Update(sheetID, target, &sheetsapi.ValueRange{Values: [][]any{row}}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapAPIError(err)
		}
		return Receipt{
			SpreadsheetID: resp.SpreadsheetId,
			UpdatedRange:  resp.UpdatedRange,
			UpdatedRows:   resp.UpdatedRows,
			UpdatedCells:  resp.UpdatedCells,
		}, nil
	})
	if err != nil {
		c.collector.ObserveSheetCall("update", "error", time.Since(start))
		return Receipt{}, wrapBreakerError(err)
	}

	c.collector.ObserveSheetCall("update", "ok", time.Since(start))
	return result.(Receipt), nil
}

// mapAPIError converts Sheets API errors onto the package sentinels. A 404
// and a 403 both come back for bad or inaccessible spreadsheet IDs.
func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// wrapBreakerError keeps sentinel errors intact and folds breaker-open
// errors into ErrUnavailable.
func wrapBreakerError(err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
