package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/WessleyAI/vesbot/engine/domain"
)

// DefaultEuroURL is the Euro emissions status endpoint.
const DefaultEuroURL = "https://hpicheck.com/api/euro-status"

// Euro looks up a vehicle's Euro emissions standard.
type Euro struct {
	url    string
	client Doer
}

// NewEuro creates a Euro-status client.
func NewEuro(endpoint string, client Doer) *Euro {
	if endpoint == "" {
		endpoint = DefaultEuroURL
	}
	return &Euro{url: endpoint, client: client}
}

func (e *Euro) Name() Name { return EuroName }

// Fetch posts the registration as a form. The service answers 200 even
// when it has nothing, flagging that with an error field.
func (e *Euro) Fetch(ctx context.Context, reg domain.Registration) (Record, error) {
	form := url.Values{"vrm": {reg.String()}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, newError(EuroName, CategoryInternal, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "*/*")

	var body struct {
		EuroRecord
		Error json.RawMessage `json:"error"`
	}
	if err := doJSON(e.client, EuroName, req, &body); err != nil {
		return nil, err
	}
	if truthy(body.Error) {
		return nil, noDataError(EuroName)
	}
	rec := body.EuroRecord
	return &rec, nil
}
