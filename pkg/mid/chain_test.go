package mid

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
})

// --- Chain ---

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler, tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if strings.Join(order, ",") != "outer,inner" {
		t.Fatalf("unexpected order %v", order)
	}
}

// --- RequestID ---

func TestRequestIDGenerated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected uuid, got %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatal("response should echo the request id")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	RequestID()(okHandler).ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != id {
		t.Fatalf("expected %s, got %s", id, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestIDReplacesGarbage(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\nX-Evil: 1")
	rec := httptest.NewRecorder()
	RequestID()(okHandler).ServeHTTP(rec, req)
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatal("malformed ids should be replaced")
	}
}

// --- Logger ---

func TestLoggerRecordsStatusAndRequestID(t *testing.T) {
	log, buf := bufferLogger()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), RequestID(), Logger(log))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/vehicles/AB51ABC", nil))
	out := buf.String()
	for _, want := range []string{"status=404", "path=/api/vehicles/AB51ABC", "request_id=", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestLoggerDefaultsToOK(t *testing.T) {
	log, buf := bufferLogger()
	Logger(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(buf.String(), "status=200") {
		t.Fatalf("expected status=200 in %q", buf.String())
	}
}

func TestLoggerErrorLevel(t *testing.T) {
	log, buf := bufferLogger()
	Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected error level in %q", buf.String())
	}
}

func TestStatusWriterKeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec}
	sw.Write([]byte("body"))
	sw.WriteHeader(http.StatusTeapot)
	if sw.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", sw.status)
	}
}

// --- Recover ---

func TestRecover(t *testing.T) {
	log, buf := bufferLogger()
	h := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Fatal("panic value should be logged")
	}
}

// --- OTel ---

func TestOTelPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	OTel("vesbot")(okHandler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
