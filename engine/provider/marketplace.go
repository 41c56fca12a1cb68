package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/WessleyAI/vesbot/engine/domain"
)

// DefaultMarketplaceURL is the marketplace GraphQL gateway.
const DefaultMarketplaceURL = "https://www.autotrader.co.uk/at-gateway?opname=VrmLookupQuery"

const vrmLookupQuery = `query VrmLookupQuery($vrm: String!) {
  vehicle {
    vrmLookup(registration: $vrm) {
      make
      model
      derivativeShort
      derivativeId
      vehicleType
      scrapped
      stolen
      writeOffCategory
    }
  }
}
`

type graphQLRequest struct {
	OperationName string            `json:"operationName"`
	Variables     map[string]string `json:"variables"`
	Query         string            `json:"query"`
}

type vrmLookupResponse struct {
	Data struct {
		Vehicle struct {
			VrmLookup *MarketplaceRecord `json:"vrmLookup"`
		} `json:"vehicle"`
	} `json:"data"`
}

// Marketplace runs the marketplace VRM lookup for trim, theft and write-off data.
type Marketplace struct {
	url    string
	client Doer
}

// NewMarketplace creates a marketplace client.
func NewMarketplace(endpoint string, client Doer) *Marketplace {
	if endpoint == "" {
		endpoint = DefaultMarketplaceURL
	}
	return &Marketplace{url: endpoint, client: client}
}

func (m *Marketplace) Name() Name { return MarketplaceName }

// Fetch issues the VrmLookupQuery. A null lookup means no data.
func (m *Marketplace) Fetch(ctx context.Context, reg domain.Registration) (Record, error) {
	body, err := json.Marshal(graphQLRequest{
		OperationName: "VrmLookupQuery",
		Variables:     map[string]string{"vrm": reg.String()},
		Query:         vrmLookupQuery,
	})
	if err != nil {
		return nil, newError(MarketplaceName, CategoryInternal, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return nil, newError(MarketplaceName, CategoryInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")

	var resp vrmLookupResponse
	if err := doJSON(m.client, MarketplaceName, req, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Vehicle.VrmLookup == nil {
		return nil, noDataError(MarketplaceName)
	}
	return resp.Data.Vehicle.VrmLookup, nil
}
