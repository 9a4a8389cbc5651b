package vision

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/httputil"
	"github.com/wonny/futurescan/pkg/logger"
)

// Client handles communication with the Binance Vision object store.
// ⭐ SSOT: all Vision S3 access goes through this client.
//
// Three access paths share one pooled HTTP client:
//   - HEAD probes for per-(symbol, date) existence checks
//   - bucket listing (XML) for bulk enumeration and symbol discovery
//   - 1d kline downloads for trading-volume metrics
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	listURL    string
}

// NewClient creates a new Vision client.
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.VisionConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("module", "vision"),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		listURL:    strings.TrimSuffix(cfg.S3ListURL, "/"),
	}
}

const klinesPrefix = "data/futures/um/daily/klines"

// ArtifactURL returns the canonical 1m klines URL for a (symbol, date) pair.
// The symbol segment is percent-encoded: Vision hosts symbols with
// non-ASCII names and those must be escaped before path construction.
func (c *Client) ArtifactURL(symbol string, date time.Time) string {
	enc := escapeSymbol(symbol)
	return fmt.Sprintf("%s/%s/%s/1m/%s-1m-%s.zip",
		c.baseURL, klinesPrefix, enc, enc, date.Format("2006-01-02"))
}

// Probe checks whether a symbol's 1m klines file exists for a date.
//
// Metadata-only HEAD request, no body download, no retries. Exactly two
// failure-free outcomes: available (200, with size and mtime) and
// unavailable (404). Every other outcome is an error:
// network/timeout failures return *contracts.TransientError and any other
// HTTP status returns *contracts.HTTPError.
func (c *Client) Probe(ctx context.Context, symbol string, date time.Time) (*contracts.AvailabilityRecord, error) {
	url := c.ArtifactURL(symbol, date)
	probedAt := time.Now().UTC()

	resp, err := c.httpClient.Head(ctx, url)
	if err != nil {
		return nil, &contracts.TransientError{Symbol: symbol, Date: date, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		record := &contracts.AvailabilityRecord{
			Date:           date,
			Symbol:         symbol,
			Available:      true,
			URL:            url,
			StatusCode:     http.StatusOK,
			ProbeTimestamp: probedAt,
		}

		if resp.ContentLength >= 0 {
			size := resp.ContentLength
			record.FileSizeBytes = &size
		}

		// Last-Modified parse failures are tolerated: size and existence
		// are the load-bearing fields.
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, err := http.ParseTime(lm); err == nil {
				utc := t.UTC()
				record.LastModified = &utc
			}
		}

		return record, nil

	case http.StatusNotFound:
		// 404 is data, not an error: the artifact does not exist.
		return &contracts.AvailabilityRecord{
			Date:           date,
			Symbol:         symbol,
			Available:      false,
			URL:            url,
			StatusCode:     http.StatusNotFound,
			ProbeTimestamp: probedAt,
		}, nil

	default:
		return nil, &contracts.HTTPError{
			Symbol:     symbol,
			Date:       date,
			StatusCode: resp.StatusCode,
			URL:        url,
		}
	}
}

// escapeSymbol percent-encodes every byte outside the unreserved set.
// Stricter than url.PathEscape: sub-delimiters are escaped too, matching
// how Vision stores non-ASCII symbol directories.
func escapeSymbol(symbol string) string {
	const unreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

	var b strings.Builder
	for i := 0; i < len(symbol); i++ {
		ch := symbol[i]
		if strings.IndexByte(unreserved, ch) >= 0 {
			b.WriteByte(ch)
		} else {
			fmt.Fprintf(&b, "%%%02X", ch)
		}
	}
	return b.String()
}
