package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/WessleyAI/vesbot/engine/domain"
)

// DefaultVESURL is the DVLA Vehicle Enquiry Service endpoint.
const DefaultVESURL = "https://driver-vehicle-licensing.api.gov.uk/vehicle-enquiry/v1/vehicles"

// VESConfig configures the DVLA client.
type VESConfig struct {
	URL    string
	APIKey string
}

// VES queries the DVLA Vehicle Enquiry Service.
type VES struct {
	cfg    VESConfig
	client Doer
}

// NewVES creates a DVLA client.
func NewVES(cfg VESConfig, client Doer) *VES {
	if cfg.URL == "" {
		cfg.URL = DefaultVESURL
	}
	return &VES{cfg: cfg, client: client}
}

func (v *VES) Name() Name { return VESName }

// Fetch posts the registration and decodes the vehicle enquiry.
func (v *VES) Fetch(ctx context.Context, reg domain.Registration) (Record, error) {
	body, err := json.Marshal(map[string]string{"registrationNumber": reg.String()})
	if err != nil {
		return nil, newError(VESName, CategoryInternal, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, newError(VESName, CategoryInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", v.cfg.APIKey)

	var rec VESRecord
	if err := doJSON(v.client, VESName, req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
