package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/wonny/futurescan/internal/contracts"
	"github.com/wonny/futurescan/pkg/config"
	"github.com/wonny/futurescan/pkg/httputil"
	"github.com/wonny/futurescan/pkg/logger"
)

// ExchangeInfoClient fetches the live USDT-M futures symbol catalog.
// Separate from Client because it talks to the trading API host, which is
// geo-restricted in some regions while the Vision bucket is not.
type ExchangeInfoClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewExchangeInfoClient creates a client for the futures exchangeInfo endpoint.
func NewExchangeInfoClient(httpClient *httputil.Client, log *logger.Logger, cfg config.VisionConfig) *ExchangeInfoClient {
	return &ExchangeInfoClient{
		httpClient: httpClient,
		logger:     log.WithField("module", "exchangeinfo"),
		url:        cfg.ExchangeInfoURL,
	}
}

type exchangeInfoResponse struct {
	Symbols []exchangeInfoSymbol `json:"symbols"`
}

type exchangeInfoSymbol struct {
	Symbol       string `json:"symbol"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`
}

// ActivePerpetuals returns the sorted set of symbols that are USDT-quoted
// perpetuals in TRADING status right now.
//
// A geo-blocked response (403 or 451) surfaces as *contracts.HTTPError so
// callers can degrade to a skip instead of failing a whole validation run.
func (c *ExchangeInfoClient) ActivePerpetuals(ctx context.Context) ([]string, error) {
	resp, err := c.httpClient.Get(ctx, c.url)
	if err != nil {
		return nil, &contracts.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &contracts.HTTPError{StatusCode: resp.StatusCode, URL: c.url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &contracts.TransientError{Err: err}
	}

	var info exchangeInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &contracts.SchemaError{Op: "exchangeinfo", Detail: "unparseable exchangeInfo JSON", Err: err}
	}

	var symbols []string
	for _, s := range info.Symbols {
		if s.ContractType != "PERPETUAL" || s.Status != "TRADING" {
			continue
		}
		if !strings.HasSuffix(s.Symbol, "USDT") {
			continue
		}
		symbols = append(symbols, s.Symbol)
	}
	sort.Strings(symbols)

	c.logger.Debugf("exchangeInfo: %d active USDT perpetuals", len(symbols))
	return symbols, nil
}

// IsGeoBlocked reports whether an error is the trading API refusing the
// caller's region.
func IsGeoBlocked(err error) bool {
	var httpErr *contracts.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusForbidden || httpErr.StatusCode == http.StatusUnavailableForLegalReasons
}
