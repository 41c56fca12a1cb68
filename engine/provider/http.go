package provider

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	userAgent       = "vesbot/1.0 (+vehicle registration lookup)"
	maxResponseSize = 4 << 20
)

// Doer sends HTTP requests. *http.Client and *TokenManager satisfy it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewHTTPClient returns a client whose requests are traced.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// doJSON sends req and decodes a 2xx JSON body into out.
func doJSON(client Doer, name Name, req *http.Request, out any) error {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return statusError(name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return transportError(name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newError(name, CategoryBadData, fmt.Sprintf("decode %s response", name), err)
	}
	return nil
}

// truthy mirrors loose JSON truthiness for error markers in 200 responses.
func truthy(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
