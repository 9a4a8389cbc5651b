package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
)

func listXML(truncated bool, nextMarker string, keys ...string) string {
	body := "<?xml version=\"1.0\" encoding=\"UTF-8\"?><ListBucketResult>"
	body += fmt.Sprintf("<IsTruncated>%t</IsTruncated>", truncated)
	if nextMarker != "" {
		body += "<NextMarker>" + nextMarker + "</NextMarker>"
	}
	for _, k := range keys {
		body += "<Contents><Key>" + k + "</Key><Size>1024</Size>" +
			"<LastModified>2024-01-16T08:00:00.000Z</LastModified></Contents>"
	}
	return body + "</ListBucketResult>"
}

func TestEnumerateSymbol(t *testing.T) {
	prefix := "data/futures/um/daily/klines/BTCUSDT/1m/"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, prefix, r.URL.Query().Get("prefix"))
		fmt.Fprint(w, listXML(false, "",
			prefix+"BTCUSDT-1m-2024-01-15.zip",
			prefix+"BTCUSDT-1m-2024-01-15.zip.CHECKSUM",
			prefix+"BTCUSDT-1m-2024-01-17.zip",
		))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	records, err := c.EnumerateSymbol(context.Background(), "BTCUSDT",
		mustDate(t, "2024-01-15"), mustDate(t, "2024-01-17"))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].Available)
	require.NotNil(t, records[0].FileSizeBytes)
	assert.Equal(t, int64(1024), *records[0].FileSizeBytes)
	require.NotNil(t, records[0].LastModified)

	// The 16th has no listing entry and comes back as an explicit gap row.
	assert.Equal(t, "2024-01-16", records[1].Date.Format("2006-01-02"))
	assert.False(t, records[1].Available)
	assert.Equal(t, http.StatusNotFound, records[1].StatusCode)
	assert.Contains(t, records[1].URL, "BTCUSDT-1m-2024-01-16.zip")

	assert.True(t, records[2].Available)
}

func TestEnumerateSymbolPaginates(t *testing.T) {
	prefix := "data/futures/um/daily/klines/ETHUSDT/1m/"
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("marker") {
		case "":
			fmt.Fprint(w, listXML(true, prefix+"ETHUSDT-1m-2024-01-15.zip",
				prefix+"ETHUSDT-1m-2024-01-15.zip"))
		default:
			fmt.Fprint(w, listXML(false, "",
				prefix+"ETHUSDT-1m-2024-01-16.zip"))
		}
	}))
	defer server.Close()

	c := newTestClient(t, server)
	records, err := c.EnumerateSymbol(context.Background(), "ETHUSDT",
		mustDate(t, "2024-01-15"), mustDate(t, "2024-01-16"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, records, 2)
	assert.True(t, records[0].Available)
	assert.True(t, records[1].Available)
}

func TestEnumerateSymbolMalformedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<ListBucketResult><IsTruncated>")
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.EnumerateSymbol(context.Background(), "BTCUSDT",
		mustDate(t, "2024-01-15"), mustDate(t, "2024-01-15"))

	var schemaErr *contracts.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "list", schemaErr.Op)
}

func TestEnumerateSymbolHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.EnumerateSymbol(context.Background(), "BTCUSDT",
		mustDate(t, "2024-01-15"), mustDate(t, "2024-01-15"))

	var httpErr *contracts.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
}

func TestParseArtifactDate(t *testing.T) {
	d, ok := parseArtifactDate("BTCUSDT-1m-2024-01-15.zip")
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", d.Format("2006-01-02"))

	_, ok = parseArtifactDate("garbage.zip")
	assert.False(t, ok)
}
