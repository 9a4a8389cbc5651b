package vision

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/futurescan/internal/contracts"
)

func prefixesXML(truncated bool, nextMarker string, prefixes ...string) string {
	body := "<?xml version=\"1.0\" encoding=\"UTF-8\"?><ListBucketResult>"
	body += fmt.Sprintf("<IsTruncated>%t</IsTruncated>", truncated)
	if nextMarker != "" {
		body += "<NextMarker>" + nextMarker + "</NextMarker>"
	}
	for _, p := range prefixes {
		body += "<CommonPrefixes><Prefix>" + p + "</Prefix></CommonPrefixes>"
	}
	return body + "</ListBucketResult>"
}

func TestDiscoverSymbols(t *testing.T) {
	base := "data/futures/um/daily/klines/"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, base, r.URL.Query().Get("prefix"))
		assert.Equal(t, "/", r.URL.Query().Get("delimiter"))
		fmt.Fprint(w, prefixesXML(false, "",
			base+"ETHUSDT/",
			base+"BTCUSDT/",
			base+"BTCUSDT_210625/",
		))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	symbols, err := c.DiscoverSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "BTCUSDT_210625", "ETHUSDT"}, symbols)
}

func TestDiscoverSymbolsPaginates(t *testing.T) {
	base := "data/futures/um/daily/klines/"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("marker") == "" {
			fmt.Fprint(w, prefixesXML(true, base+"BTCUSDT/", base+"BTCUSDT/"))
			return
		}
		fmt.Fprint(w, prefixesXML(false, "", base+"ETHUSDT/"))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	symbols, err := c.DiscoverSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func TestClassifyContract(t *testing.T) {
	tests := []struct {
		symbol string
		want   contracts.ContractType
	}{
		{"BTCUSDT", contracts.ContractPerpetual},
		{"BTCUSDT_210625", contracts.ContractDelivery},
		{"BTCUSDT_999999", contracts.ContractPerpetual}, // not a real date
		{"LUNA2USDT", contracts.ContractPerpetual},
		{"BTC_USDT", contracts.ContractPerpetual}, // suffix wrong length
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyContract(tt.symbol), tt.symbol)
	}
}

func TestFilterPerpetuals(t *testing.T) {
	in := []string{"BTCUSDT", "BTCUSDT_210625", "ETHUSDT", "ETHUSDT_241227"}
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, FilterPerpetuals(in))
}
