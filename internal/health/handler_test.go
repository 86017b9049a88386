package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/transcript-demo/internal/audiofile"
	"github.com/eleven-am/transcript-demo/internal/playback"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSessions []playback.SessionInfo

func (f fakeSessions) List() []playback.SessionInfo { return f }

func setupDeps(t *testing.T) (*gorm.DB, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return db, client, mr
}

func readiness(t *testing.T, h *Handler) (int, HealthResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("Readiness error: %v", err)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, resp
}

func TestHandler_Liveness(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, "test")
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.Liveness(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("Liveness error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Readiness_Healthy(t *testing.T) {
	db, client, _ := setupDeps(t)
	sessions := fakeSessions{
		{SessionID: "ps_1", Playing: true, Subscribers: 2},
		{SessionID: "ps_2", Subscribers: 1},
	}
	h := NewHandler(db, client, nil, sessions, "1.2.3")
	h.IncrementRequests()
	h.IncrementConnections()

	code, resp := readiness(t, h)
	if code != http.StatusOK || resp.Status != StatusHealthy {
		t.Fatalf("expected healthy 200, got %d %s", code, resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Errorf("unexpected version %q", resp.Version)
	}
	if _, ok := resp.Components["remote_files"]; ok {
		t.Error("disabled remote provider should not be checked")
	}
	want := SessionStats{Active: 2, Playing: 1, Subscribers: 3}
	if resp.Stats.Sessions != want {
		t.Errorf("session stats = %+v, want %+v", resp.Stats.Sessions, want)
	}
	if resp.Stats.Requests.TotalRequests != 1 || resp.Stats.Requests.ActiveConnections != 1 {
		t.Errorf("unexpected request stats %+v", resp.Stats.Requests)
	}
}

func TestHandler_Readiness_RedisDown(t *testing.T) {
	db, client, mr := setupDeps(t)
	mr.Close()

	code, resp := readiness(t, NewHandler(db, client, nil, nil, "test"))
	if code != http.StatusServiceUnavailable || resp.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy 503, got %d %s", code, resp.Status)
	}
	if resp.Components["redis"].Error != "ping failed" {
		t.Errorf("unexpected redis component %+v", resp.Components["redis"])
	}
}

func TestHandler_Readiness_RemoteDegraded(t *testing.T) {
	db, client, _ := setupDeps(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewHandler(db, client, audiofile.NewRemoteProvider(srv.URL, nil), nil, "test")
	code, resp := readiness(t, h)
	if code != http.StatusOK || resp.Status != StatusDegraded {
		t.Errorf("expected degraded 200, got %d %s", code, resp.Status)
	}
	if resp.Components["remote_files"].Status != StatusDegraded {
		t.Errorf("unexpected remote component %+v", resp.Components["remote_files"])
	}
}

func TestHandler_Sessions(t *testing.T) {
	h := NewHandler(nil, nil, nil, fakeSessions{{SessionID: "ps_1", FileID: "sample-1", Status: "running"}}, "test")
	e := echo.New()
	rec := httptest.NewRecorder()
	if err := h.Sessions(e.NewContext(httptest.NewRequest(http.MethodGet, "/health/sessions", nil), rec)); err != nil {
		t.Fatalf("Sessions error: %v", err)
	}

	var resp SessionsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Sessions[0].FileID != "sample-1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestComputeOverallStatus(t *testing.T) {
	h := &Handler{}
	tests := []struct {
		name       string
		components map[string]ComponentStatus
		want       Status
	}{
		{"all healthy", map[string]ComponentStatus{"database": {Status: StatusHealthy}, "redis": {Status: StatusHealthy}}, StatusHealthy},
		{"critical down", map[string]ComponentStatus{"database": {Status: StatusUnhealthy}, "redis": {Status: StatusHealthy}}, StatusUnhealthy},
		{"optional degraded", map[string]ComponentStatus{"database": {Status: StatusHealthy}, "remote_files": {Status: StatusDegraded}}, StatusDegraded},
	}
	for _, tt := range tests {
		if got := h.computeOverallStatus(tt.components); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}
