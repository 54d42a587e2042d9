// Package discovery optionally extends the market registry at runtime by
// polling a gamma-style REST API for newly tradable markets. The core never
// depends on it; with discovery disabled the registry holds only the markets
// file.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/clob-arb/pkg/types"
)

// gammaToken is one outcome token in the discovery API response.
type gammaToken struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
}

// gammaMarket is one market in the discovery API response.
type gammaMarket struct {
	Slug     string       `json:"slug"`
	Question string       `json:"question"`
	Closed   bool         `json:"closed"`
	Tokens   []gammaToken `json:"tokens"`
}

// Client fetches tradable markets from the discovery API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a discovery client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	httpClient := resty.New().SetBaseURL(baseURL)
	httpClient.JSONMarshal = gojson.Marshal
	httpClient.JSONUnmarshal = gojson.Unmarshal

	return &Client{http: httpClient, logger: logger}
}

// FetchMarkets returns up to limit open markets.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("closed", "false").
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &types.APIError{Op: "fetch_markets", Status: resp.StatusCode(), Body: string(resp.Body())}
	}

	var raw []gammaMarket
	if err := gojson.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("parse markets: %w", err)
	}

	out := make([]types.Market, 0, len(raw))
	for _, gm := range raw {
		market, ok := toMarket(gm)
		if !ok {
			continue
		}
		out = append(out, market)
	}
	return out, nil
}

func toMarket(gm gammaMarket) (types.Market, bool) {
	if gm.Closed || len(gm.Tokens) < 2 {
		return types.Market{}, false
	}

	name := gm.Slug
	if name == "" {
		name = gm.Question
	}
	if name == "" {
		return types.Market{}, false
	}

	for _, token := range gm.Tokens {
		if token.TokenID == "" {
			return types.Market{}, false
		}
	}

	if len(gm.Tokens) == 2 && isYesNo(gm.Tokens) {
		yes, no := gm.Tokens[0], gm.Tokens[1]
		if no.Outcome == "Yes" {
			yes, no = no, yes
		}
		return types.NewBinaryMarket(name, yes.TokenID, no.TokenID), true
	}

	outcomes := make([]types.Outcome, len(gm.Tokens))
	for i, token := range gm.Tokens {
		outcomes[i] = types.Outcome{Label: token.Outcome, TokenID: token.TokenID}
	}
	return types.NewMultiMarket(name, outcomes), true
}

func isYesNo(tokens []gammaToken) bool {
	labels := map[string]bool{tokens[0].Outcome: true, tokens[1].Outcome: true}
	return labels["Yes"] && labels["No"]
}
