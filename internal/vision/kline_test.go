package vision

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
)

const klineRow = "1705276800000,42000.1,43500.5,41800.0,43210.9," +
	"125000.5,1705363199999,5304567890.12,1234567,62000.25,2630000000.5,0"

func klineZip(t *testing.T, csvBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("BTCUSDT-1d-2024-01-15.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetchDailyVolume(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/1d/BTCUSDT-1d-2024-01-15.zip")
		w.Write(klineZip(t, klineRow+"\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	m, err := c.FetchDailyVolume(context.Background(), "BTCUSDT", mustDate(t, "2024-01-15"))
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.InDelta(t, 5304567890.12, m.QuoteVolumeUSDT, 0.001)
	assert.Equal(t, int64(1234567), m.TradeCount)
	assert.InDelta(t, 125000.5, m.VolumeBase, 0.001)
	assert.InDelta(t, 62000.25, m.TakerBuyVolumeBase, 0.001)
	assert.InDelta(t, 2630000000.5, m.TakerBuyQuoteVolumeUSDT, 0.001)
	assert.InDelta(t, 42000.1, m.OpenPrice, 0.001)
	assert.InDelta(t, 43500.5, m.HighPrice, 0.001)
	assert.InDelta(t, 41800.0, m.LowPrice, 0.001)
	assert.InDelta(t, 43210.9, m.ClosePrice, 0.001)
}

func TestFetchDailyVolumeWithHeader(t *testing.T) {
	header := "open_time,open,high,low,close,volume,close_time," +
		"quote_volume,count,taker_buy_volume,taker_buy_quote_volume,ignore\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(klineZip(t, header+klineRow+"\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	m, err := c.FetchDailyVolume(context.Background(), "BTCUSDT", mustDate(t, "2024-01-15"))
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1234567), m.TradeCount)
}

func TestFetchDailyVolumeMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	m, err := c.FetchDailyVolume(context.Background(), "BTCUSDT", mustDate(t, "2024-01-15"))
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFetchDailyVolumeNotAZip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a zip"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.FetchDailyVolume(context.Background(), "BTCUSDT", mustDate(t, "2024-01-15"))

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "kline", schemaErr.Op)
}

func TestFetchDailyVolumeBadRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(klineZip(t, "1705276800000,not-a-number,1,1,1,1,1,1,1,1,1,0\n"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.FetchDailyVolume(context.Background(), "BTCUSDT", mustDate(t, "2024-01-15"))

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
}

func TestParseKlineZipEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	require.NoError(t, zw.Close())

	_, err := parseKlineZip(buf.Bytes())
	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Detail, "empty")
}
