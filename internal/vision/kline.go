package vision

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// klineFieldCount is the column count of a Binance kline CSV row.
const klineFieldCount = 12

// FetchDailyVolume downloads the 1d kline archive for a (symbol, date) pair
// and returns its trading metrics.
//
// The daily archive holds exactly one candle. A 404 returns (nil, nil):
// volume enrichment is best-effort and a missing 1d file never fails a run.
// A malformed archive or row returns *contracts.SchemaError.
func (c *Client) FetchDailyVolume(ctx context.Context, symbol string, date time.Time) (*contracts.VolumeMetrics, error) {
	enc := escapeSymbol(symbol)
	url := fmt.Sprintf("%s/%s/%s/1d/%s-1d-%s.zip",
		c.baseURL, klinesPrefix, enc, enc, date.Format("2006-01-02"))

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, &contracts.TransientError{Symbol: symbol, Date: date, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, &contracts.HTTPError{Symbol: symbol, Date: date, StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &contracts.TransientError{Symbol: symbol, Date: date, Err: err}
	}

	metrics, err := parseKlineZip(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("fetched 1d volume for %s %s: quote=%.0f", symbol, date.Format("2006-01-02"), metrics.QuoteVolumeUSDT)
	return metrics, nil
}

// parseKlineZip extracts the first kline row from a zipped CSV archive.
// Some archives carry a header row and some do not; both are accepted.
func parseKlineZip(data []byte) (*contracts.VolumeMetrics, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &contracts.SchemaError{Op: "kline", Detail: "not a zip archive", Err: err}
	}
	if len(zr.File) == 0 {
		return nil, &contracts.SchemaError{Op: "kline", Detail: "empty zip archive"}
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, &contracts.SchemaError{Op: "kline", Detail: "unreadable zip entry", Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = klineFieldCount

	row, err := reader.Read()
	if err != nil {
		return nil, &contracts.SchemaError{Op: "kline", Detail: "unreadable CSV row", Err: err}
	}
	if strings.EqualFold(row[0], "open_time") {
		row, err = reader.Read()
		if err != nil {
			return nil, &contracts.SchemaError{Op: "kline", Detail: "header row without data row", Err: err}
		}
	}

	return parseKlineRow(row)
}

// Kline CSV layout:
// open_time, open, high, low, close, volume, close_time,
// quote_volume, count, taker_buy_volume, taker_buy_quote_volume, ignore
func parseKlineRow(row []string) (*contracts.VolumeMetrics, error) {
	fields := map[string]int{
		"open": 1, "high": 2, "low": 3, "close": 4, "volume": 5,
		"quote_volume": 7, "taker_buy_volume": 9, "taker_buy_quote_volume": 10,
	}
	vals := make(map[string]float64, len(fields))
	for name, idx := range fields {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, &contracts.SchemaError{Op: "kline", Detail: "non-numeric " + name + " field", Err: err}
		}
		vals[name] = v
	}
	count, err := strconv.ParseInt(row[8], 10, 64)
	if err != nil {
		return nil, &contracts.SchemaError{Op: "kline", Detail: "non-numeric count field", Err: err}
	}

	return &contracts.VolumeMetrics{
		QuoteVolumeUSDT:         vals["quote_volume"],
		TradeCount:              count,
		VolumeBase:              vals["volume"],
		TakerBuyVolumeBase:      vals["taker_buy_volume"],
		TakerBuyQuoteVolumeUSDT: vals["taker_buy_quote_volume"],
		OpenPrice:               vals["open"],
		HighPrice:               vals["high"],
		LowPrice:                vals["low"],
		ClosePrice:              vals["close"],
	}, nil
}
