package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	c, err := cache.NewMemoryCache(32)
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { runner.Close() })
	return New(runner, cfg, quietLogger()).Handler()
}

func stationBody(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../pkg/pipeline/testdata/station.json")
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status": "ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestRenderSVG(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodPost, "/api/v1/render?highlight=sensor1&scale=auto", stationBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "weather-station.svg") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if got := rec.Header().Get("X-Layout-Cache"); got != "miss" {
		t.Errorf("X-Layout-Cache = %q, want miss", got)
	}
	body := rec.Body.String()
	for _, want := range []string{`<?xml`, `xmlns:xlink=`, `highlighted`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	rec = do(t, h, http.MethodPost, "/api/v1/render?highlight=sensor1&scale=auto", stationBody(t))
	if got := rec.Header().Get("X-Render-Cache"); got != "hit" {
		t.Errorf("second X-Render-Cache = %q, want hit", got)
	}
}

func TestRenderJSON(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodPost, "/api/v1/render?format=json&hide_disconnected=true&width=800&height=600", stationBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var view struct {
		Title       string   `json:"title"`
		HiddenSlots []string `json:"hiddenSlots"`
		Viewport    struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		} `json:"viewport"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Title != "Dataflow view" {
		t.Errorf("title = %q, want Dataflow view", view.Title)
	}
	if len(view.HiddenSlots) == 0 {
		t.Error("hiddenSlots is empty")
	}
	if view.Viewport.Width != 800 || view.Viewport.Height != 600 {
		t.Errorf("viewport = %+v, want 800x600", view.Viewport)
	}
}

func TestRenderWarnings(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodPost, "/api/v1/render?scale=huge", stationBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Warning") == "" {
		t.Error("X-Warning header missing for an invalid scale")
	}
}

func TestLayoutEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodPost, "/api/v1/layout?title=Weather", stationBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp LayoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Title != "Weather" {
		t.Errorf("Title = %q, want Weather", resp.Title)
	}
	if resp.ExportName != "weather-station.svg" {
		t.Errorf("ExportName = %q", resp.ExportName)
	}
	if resp.Layout == nil || len(resp.Layout.Root.Children) != 2 {
		t.Errorf("Layout = %+v, want root with 2 members", resp.Layout)
	}
}

func TestConnectivityEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodPost, "/api/v1/connectivity?member=sensor1", stationBody(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var st connectivity.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Selected != "sensor1" || !st.IsHighlighted("fmt") {
		t.Errorf("state = %+v", st)
	}
}

func TestErrors(t *testing.T) {
	h := newTestServer(t, Config{MaxBodyBytes: 64})
	body := stationBody(t)

	tests := []struct {
		name   string
		target string
		body   []byte
		status int
		code   errors.Code
	}{
		{"malformed", "/api/v1/render", []byte("{"), http.StatusBadRequest, errors.ErrCodeInvalidDefinitions},
		{"too large", "/api/v1/render", body, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", "/api/v1/render?format=gif", []byte("{}"), http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad width", "/api/v1/layout?width=wide", []byte("{}"), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad bool", "/api/v1/layout?refresh=maybe", []byte("{}"), http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no member", "/api/v1/connectivity", []byte("{}"), http.StatusBadRequest, errors.ErrCodeInvalidDefinitions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != string(tt.code) {
				t.Errorf("error = %q, want %q", resp.Error, tt.code)
			}
			if resp.RequestID == "" {
				t.Error("requestId is empty")
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, Config{})
	rec := do(t, h, http.MethodGet, "/api/v1/render", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidScale, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeSuperseded, "x"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodeLayout, "x"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
