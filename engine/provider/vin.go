package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/WessleyAI/vesbot/engine/domain"
)

type plateRequest struct {
	Country string `json:"country"`
	Plate   string `json:"plate"`
	State   string `json:"state"`
}

type plateResponse struct {
	Status      string     `json:"status"`
	Key         string     `json:"key"`
	PlateLookup *VINRecord `json:"plate_lookup"`
}

// VIN resolves a registration to its VIN through an authenticated plate lookup.
type VIN struct {
	url    string
	client Doer
}

// NewVIN creates a VIN client. client is normally a *TokenManager so every
// request carries a fresh bearer token.
func NewVIN(endpoint string, client Doer) *VIN {
	return &VIN{url: endpoint, client: client}
}

func (v *VIN) Name() Name { return VINName }

// Fetch runs the plate lookup. The service reports some failures in a 200
// body with status "error".
func (v *VIN) Fetch(ctx context.Context, reg domain.Registration) (Record, error) {
	body, err := json.Marshal(plateRequest{Country: "UK", Plate: reg.String(), State: "false"})
	if err != nil {
		return nil, newError(VINName, CategoryInternal, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, newError(VINName, CategoryInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	var resp plateResponse
	if err := doJSON(v.client, VINName, req, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		msg := resp.Key
		if msg == "" {
			msg = "lookup error"
		}
		return nil, newError(VINName, CategoryBadData, msg, nil)
	}
	if resp.PlateLookup == nil {
		return nil, noDataError(VINName)
	}
	return resp.PlateLookup, nil
}
