package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Prices is the oracle response document: one decimal-string USD
// price per asset symbol.
type Prices struct {
	CXSPriceUSD    string `json:"cxs_price_usd"`
	NextepPriceUSD string `json:"nextep_price_usd"`
	Timestamp      string `json:"timestamp,omitempty"`
}

func (p Prices) CXS() (decimal.Decimal, error) {
	return decimal.NewFromString(p.CXSPriceUSD)
}

func (p Prices) Nextep() (decimal.Decimal, error) {
	return decimal.NewFromString(p.NextepPriceUSD)
}

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FetchPrices(ctx context.Context) (Prices, error) {
	var prices Prices

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return prices, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return prices, fmt.Errorf("fetching prices from %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return prices, fmt.Errorf("fetching prices from %s: unexpected status %s", c.url, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return prices, fmt.Errorf("decoding price response: %w", err)
	}
	return prices, nil
}

// FormatUSD renders a price with more decimal places the smaller it
// gets, so sub-cent token prices stay readable.
func FormatUSD(price decimal.Decimal) string {
	switch {
	case price.LessThan(decimal.RequireFromString("0.0001")):
		return "$" + price.StringFixed(10)
	case price.LessThan(decimal.RequireFromString("0.01")):
		return "$" + price.StringFixed(6)
	case price.LessThan(decimal.NewFromInt(1)):
		return "$" + price.StringFixed(4)
	default:
		return "$" + price.StringFixed(2)
	}
}
