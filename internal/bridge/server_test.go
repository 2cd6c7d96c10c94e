package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kingrea/acme-blogs/internal/config"
)

func boolPtr(v bool) *bool { return &v }

func TestSettingsFromConfigHonorsEnv(t *testing.T) {
	t.Setenv("ACMEBLOGS_BRIDGE_PORT", "9001")
	t.Setenv("ACMEBLOGS_BRIDGE_HOST", "0.0.0.0")
	t.Setenv("ACMEBLOGS_BRIDGE_ENABLED", "true")
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "0.0.0.0" {
		t.Fatalf("expected host override, got %s", settings.Host)
	}
	if !settings.Enabled {
		t.Fatalf("expected enabled=true from env override")
	}
}

func TestSettingsFromConfigDefaultsDisabled(t *testing.T) {
	settings := SettingsFromConfig(nil)
	if settings.Enabled {
		t.Fatalf("bridge should be disabled by default")
	}
	if settings.Address() != "127.0.0.1:8766" {
		t.Fatalf("unexpected address %s", settings.Address())
	}
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if settings := SettingsFromConfig(cfg); settings.Enabled || settings.Address() != "127.0.0.1:8766" {
		t.Fatalf("unexpected defaults from config: %+v", settings)
	}
	cfg.Project.Bridge = config.BridgeConfig{Enabled: boolPtr(true), Port: 9100}
	settings = SettingsFromConfig(cfg)
	if !settings.Enabled || settings.URL() != "http://127.0.0.1:9100" {
		t.Fatalf("config not applied: %+v", settings)
	}
}

func TestNewServerFillsZeroSettings(t *testing.T) {
	srv := NewServer(Settings{Enabled: true})
	if srv.settings.MaxBodyBytes != DefaultMaxBodyBytes || srv.settings.Host != config.DefaultBridgeHost {
		t.Fatalf("zero settings not defaulted: %+v", srv.settings)
	}
}

func TestEventValidate(t *testing.T) {
	cases := []struct {
		name    string
		evt     Event
		wantErr bool
	}{
		{"select", Event{Type: "select", Value: "3"}, false},
		{"select empty value", Event{Type: "select"}, false},
		{"toggle", Event{Type: "Toggle", PostID: 4}, false},
		{"toggle without post", Event{Type: "toggle"}, true},
		{"missing type", Event{}, true},
		{"unknown type", Event{Type: "delete"}, true},
		{"bad version", Event{Version: 9, Type: "select"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			evt := tc.evt
			evt.Normalize()
			if evt.EventID == "" {
				t.Fatalf("normalize should assign an event id")
			}
			err := evt.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

type staticViewer string

func (v staticViewer) Outline() string { return string(v) }

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	settings := Settings{Enabled: true, Host: "127.0.0.1", MaxBodyBytes: 256}
	return NewServer(settings, opts...).Handler()
}

func postEvent(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEventsForwardedOnceAndDeduplicated(t *testing.T) {
	fixed := time.Unix(1730000000, 0).UTC()
	var handled atomic.Int32
	var got Event
	h := newTestHandler(t,
		WithClock(func() time.Time { return fixed }),
		WithProcessor(ProcessorFunc(func(_ context.Context, e Event) error {
			handled.Add(1)
			got = e
			return nil
		})))

	body := `{"version":1,"event_id":"evt-1","type":"toggle","post_id":3}`
	rec := postEvent(t, h, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.PostID != 3 || !got.ServerTime.Equal(fixed) {
		t.Fatalf("unexpected event %+v", got)
	}
	rec = postEvent(t, h, body)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "duplicate") {
		t.Fatalf("expected duplicate ack, got %d: %s", rec.Code, rec.Body.String())
	}
	if handled.Load() != 1 {
		t.Fatalf("processor ran %d times, want 1", handled.Load())
	}
}

func TestFailedEventCanBeRetried(t *testing.T) {
	var calls atomic.Int32
	h := newTestHandler(t, WithProcessor(ProcessorFunc(func(context.Context, Event) error {
		if calls.Add(1) == 1 {
			return errors.New("upstream down")
		}
		return nil
	})))
	body := `{"event_id":"evt-2","type":"select","value":"2"}`
	if rec := postEvent(t, h, body); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if rec := postEvent(t, h, body); rec.Code != http.StatusAccepted {
		t.Fatalf("expected retry to be accepted, got %d", rec.Code)
	}
}

func TestEventsRejectsBadInput(t *testing.T) {
	h := newTestHandler(t)
	if rec := postEvent(t, h, "{"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid JSON, got %d", rec.Code)
	}
	if rec := postEvent(t, h, `{"type":"toggle"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing post id, got %d", rec.Code)
	}
	tooLarge := `{"type":"select","value":"` + strings.Repeat("9", 512) + `"}`
	if rec := postEvent(t, h, tooLarge); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestViewRendersOutline(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without viewer, got %d", rec.Code)
	}

	h = newTestHandler(t, WithViewer(staticViewer("main\n  p: hello\n")))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "main\n  p: hello\n" {
		t.Fatalf("unexpected view %d %q", rec.Code, rec.Body.String())
	}
}

func TestServerLifecycle(t *testing.T) {
	disabled := NewServer(Settings{Host: "127.0.0.1"})
	if err := disabled.Start(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}

	settings := Settings{Enabled: true, Host: "127.0.0.1", Port: 0, MaxBodyBytes: 1024, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv := NewServer(settings)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	if srv.Status() != StatusReady {
		t.Fatalf("expected ready, got %s", srv.Status())
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected second start to fail")
	}
	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != string(StatusReady) || health.Version != ProtocolVersion {
		t.Fatalf("unexpected health %+v", health)
	}

	buf, _ := json.Marshal(Event{Type: TypeSelect, Value: "1"})
	resp2, err := http.Post(srv.BaseURL()+"/events", "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post event: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp2.Body)
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp2.StatusCode)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.Addr() != "" {
		t.Fatalf("expected no address after shutdown")
	}
}

func TestDedupeWindowEvictsOldest(t *testing.T) {
	d := newDedupe(2)
	for _, id := range []string{"a", "b", "c"} {
		if !d.remember(id) {
			t.Fatalf("%s should be new", id)
		}
	}
	if !d.remember("a") {
		t.Fatalf("a should have been evicted")
	}
	if d.remember("c") {
		t.Fatalf("c should still be remembered")
	}
	d.forget("c")
	if !d.remember("c") {
		t.Fatalf("c should be new after forget")
	}
}
