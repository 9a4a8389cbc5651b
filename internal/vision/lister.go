package vision

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/futurescan/internal/contracts"
)

// listBucketResult mirrors the S3 ListObjects (v1) response document.
// Only the fields the enumerator reads are mapped.
type listBucketResult struct {
	XMLName        xml.Name       `xml:"ListBucketResult"`
	IsTruncated    bool           `xml:"IsTruncated"`
	NextMarker     string         `xml:"NextMarker"`
	Contents       []listObject   `xml:"Contents"`
	CommonPrefixes []commonPrefix `xml:"CommonPrefixes"`
}

type listObject struct {
	Key          string `xml:"Key"`
	Size         int64  `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// EnumerateSymbol lists every daily 1m klines artifact for one symbol in a
// single paginated bucket walk instead of one HEAD per date.
//
// The result covers [from, to] completely: dates with no listing entry come
// back as explicit available=false records, so a backfill writes the same
// row shape either way. Malformed listing XML returns *contracts.SchemaError.
func (c *Client) EnumerateSymbol(ctx context.Context, symbol string, from, to time.Time) ([]contracts.AvailabilityRecord, error) {
	prefix := fmt.Sprintf("%s/%s/1m/", klinesPrefix, escapeSymbol(symbol))
	listedAt := time.Now().UTC()

	found := make(map[string]contracts.AvailabilityRecord)

	marker := ""
	for page := 1; ; page++ {
		result, err := c.listPage(ctx, prefix, "", marker)
		if err != nil {
			return nil, err
		}

		for _, obj := range result.Contents {
			name := obj.Key[strings.LastIndexByte(obj.Key, '/')+1:]
			if !strings.HasSuffix(name, ".zip") {
				// .CHECKSUM companions live in the same prefix.
				continue
			}

			date, ok := parseArtifactDate(name)
			if !ok {
				continue
			}

			record := contracts.AvailabilityRecord{
				Date:           date,
				Symbol:         symbol,
				Available:      true,
				URL:            c.baseURL + "/" + obj.Key,
				StatusCode:     http.StatusOK,
				ProbeTimestamp: listedAt,
			}
			size := obj.Size
			record.FileSizeBytes = &size
			if t, err := time.Parse(time.RFC3339, obj.LastModified); err == nil {
				utc := t.UTC()
				record.LastModified = &utc
			}
			found[date.Format("2006-01-02")] = record
		}

		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
		if marker == "" && len(result.Contents) > 0 {
			// NextMarker is only guaranteed with a delimiter. Fall back to
			// the last key of the page.
			marker = result.Contents[len(result.Contents)-1].Key
		}
		if marker == "" {
			return nil, &contracts.SchemaError{
				Op:     "list",
				Detail: fmt.Sprintf("truncated page %d without a continuation marker (prefix %s)", page, prefix),
			}
		}
	}

	c.logger.Debugf("enumerated %s: %d artifacts listed", symbol, len(found))

	// Expand to the full requested range. Absent dates become explicit
	// unavailable rows.
	var records []contracts.AvailabilityRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if rec, ok := found[d.Format("2006-01-02")]; ok {
			records = append(records, rec)
			continue
		}
		records = append(records, contracts.AvailabilityRecord{
			Date:           d,
			Symbol:         symbol,
			Available:      false,
			URL:            c.ArtifactURL(symbol, d),
			StatusCode:     http.StatusNotFound,
			ProbeTimestamp: listedAt,
		})
	}
	return records, nil
}

// listPage fetches and decodes one ListObjects page.
func (c *Client) listPage(ctx context.Context, prefix, delimiter, marker string) (*listBucketResult, error) {
	q := url.Values{}
	q.Set("prefix", prefix)
	if delimiter != "" {
		q.Set("delimiter", delimiter)
	}
	if marker != "" {
		q.Set("marker", marker)
	}
	pageURL := c.listURL + "?" + q.Encode()

	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, &contracts.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &contracts.HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &contracts.TransientError{Err: err}
	}

	var result listBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, &contracts.SchemaError{Op: "list", Detail: "unparseable ListBucketResult XML", Err: err}
	}
	return &result, nil
}

// parseArtifactDate extracts the trading date from an artifact file name of
// the form {SYMBOL}-1m-YYYY-MM-DD.zip.
func parseArtifactDate(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".zip")
	if len(base) < len("2006-01-02") {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", base[len(base)-len("2006-01-02"):])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
