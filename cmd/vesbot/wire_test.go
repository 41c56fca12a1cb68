package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/provider"
)

// fakeUpstream stands in for every provider, the MOT token endpoint and the
// notification webhook.
type fakeUpstream struct {
	*httptest.Server
	fail bool

	mu       sync.Mutex
	webhooks []string
}

func newFakeUpstream(t *testing.T, fail bool) *fakeUpstream {
	t.Helper()
	u := &fakeUpstream{fail: fail}
	mux := http.NewServeMux()

	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if u.fail {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}
	}

	mux.HandleFunc("POST /ves", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "ves-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		reply(`{"make":"FORD","colour":"BLUE","yearOfManufacture":2018,"fuelType":"PETROL","monthOfFirstRegistration":"2018-01"}`)(w, r)
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"mot-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /mot/{reg}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer mot-token" || r.PathValue("reg") != "AB51ABC" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply(`{"make":"FORD","model":"FOCUS","manufactureDate":"2017-12-05","motTests":[]}`)(w, r)
	})
	mux.HandleFunc("POST /euro", reply(`{"euroStatus":"EURO 6"}`))
	mux.HandleFunc("POST /marketplace", reply(`{"data":{"vehicle":{"vrmLookup":{"model":"Focus","derivativeShort":"1.0 EcoBoost Titanium","stolen":false,"scrapped":false,"writeOffCategory":"none"}}}}`))
	mux.HandleFunc("POST /vin/auth", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":{"token":"vin-token"},"expiresIn":3600}`))
	})
	mux.HandleFunc("POST /vin", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer vin-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reply(`{"status":"ok","plate_lookup":{"vin":"WF0XXXGCDX1234567"}}`)(w, r)
	})
	mux.HandleFunc("POST /webhook", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Embeds []struct {
				Fields []struct {
					Name string `json:"name"`
				} `json:"fields"`
			} `json:"embeds"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		u.mu.Lock()
		for _, e := range payload.Embeds {
			for _, f := range e.Fields {
				u.webhooks = append(u.webhooks, f.Name)
			}
		}
		u.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func (u *fakeUpstream) config() Config {
	return Config{
		HTTPTimeout: 5 * time.Second,
		VES:         provider.VESConfig{URL: u.URL + "/ves", APIKey: "ves-key"},
		MOT: provider.MOTConfig{
			URL:          u.URL + "/mot",
			APIKey:       "mot-key",
			ClientID:     "client",
			ClientSecret: "secret",
			TokenURL:     u.URL + "/token",
		},
		EuroURL:     u.URL + "/euro",
		Marketplace: u.URL + "/marketplace",
		VINURL:      u.URL + "/vin",
		VINAuth:     provider.TokenConfig{AuthURL: u.URL + "/vin/auth", Login: "user", Password: "pass"},
		WebhookURL:  u.URL + "/webhook",
	}
}

func (u *fakeUpstream) severities() map[string]int {
	u.mu.Lock()
	defer u.mu.Unlock()
	counts := make(map[string]int)
	for _, s := range u.webhooks {
		counts[s]++
	}
	return counts
}

func TestBuildAppLooksUpAcrossProviders(t *testing.T) {
	up := newFakeUpstream(t, false)
	a, err := buildApp(up.config(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}

	r, err := a.svc.Lookup(context.Background(), "ab51 abc")
	a.Close()
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(r.Sources) != 5 || len(r.Failures) != 0 {
		t.Fatalf("expected all five sources, got %v (failures %v)", r.Sources, r.Failures)
	}
	if r.Title != "🔵 2017 FORD Focus" {
		t.Fatalf("unexpected title %q", r.Title)
	}
	if r.Description != "1.0 EcoBoost Titanium" || r.Facts.VIN != "WF0XXXGCDX1234567" {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Facts.LEZ.Status != "Euro 6 Petrol\nCompliant" {
		t.Fatalf("unexpected LEZ %+v", r.Facts.LEZ)
	}
	if len(up.severities()) != 0 {
		t.Fatalf("unexpected notifications %v", up.severities())
	}
	if out := a.metrics.Render(); !strings.Contains(out, `vesbot_lookups_total{outcome="complete"} 1`) {
		t.Fatalf("lookup not counted:\n%s", out)
	}
}

func TestBuildAppNotifiesWhenEverythingFails(t *testing.T) {
	up := newFakeUpstream(t, true)
	a, err := buildApp(up.config(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}

	_, err = a.svc.Lookup(context.Background(), "AB51ABC")
	a.Close()
	if !errors.Is(err, domain.ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	got := up.severities()
	if got["critical"] != 1 || got["warning"] != 5 {
		t.Fatalf("unexpected notifications %v", got)
	}
}
