package vision

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// DiscoverSymbols walks the klines prefix with delimiter=/ and returns every
// symbol directory name in the bucket, decoded and sorted.
//
// Both contract styles appear: perpetuals (BTCUSDT) and dated delivery
// contracts (BTCUSDT_210625). Callers filter by contract type.
func (c *Client) DiscoverSymbols(ctx context.Context) ([]string, error) {
	prefix := klinesPrefix + "/"

	var symbols []string
	marker := ""
	for {
		result, err := c.listPage(ctx, prefix, "/", marker)
		if err != nil {
			return nil, err
		}

		for _, cp := range result.CommonPrefixes {
			// data/futures/um/daily/klines/BTCUSDT/ -> BTCUSDT
			name := strings.TrimPrefix(cp.Prefix, prefix)
			name = strings.TrimSuffix(name, "/")
			if name == "" {
				continue
			}
			decoded, err := url.PathUnescape(name)
			if err != nil {
				decoded = name
			}
			symbols = append(symbols, decoded)
		}

		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
		if marker == "" {
			return nil, &contracts.SchemaError{
				Op:     "discover",
				Detail: "truncated symbol listing without NextMarker",
			}
		}
	}

	sort.Strings(symbols)
	c.logger.Infof("discovered %d symbol directories", len(symbols))
	return symbols, nil
}

// ClassifyContract reports whether a symbol names a perpetual or a dated
// delivery contract. Delivery symbols end in _YYMMDD with a real date; a
// trailing underscore segment that is not a date still means perpetual.
func ClassifyContract(symbol string) contracts.ContractType {
	i := strings.LastIndexByte(symbol, '_')
	if i < 0 || len(symbol)-i-1 != 6 {
		return contracts.ContractPerpetual
	}
	if _, err := time.Parse("060102", symbol[i+1:]); err != nil {
		return contracts.ContractPerpetual
	}
	return contracts.ContractDelivery
}

// FilterPerpetuals keeps only perpetual-contract symbols.
func FilterPerpetuals(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if ClassifyContract(s) == contracts.ContractPerpetual {
			out = append(out, s)
		}
	}
	return out
}
