package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
	"dualtor-linkmgrd/pkg/persistence"
)

func newTestServer(t *testing.T) (*Server, *linkmgr.Manager) {
	t.Helper()
	mgr := linkmgr.NewManager(model.DefaultMuxConfig(), 2)
	mgr.AddPort(model.PortConfig{PortName: "Ethernet0", CableType: model.CableActiveStandby})
	t.Cleanup(mgr.Stop)

	audit, err := persistence.OpenLocalAudit(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenLocalAudit: %v", err)
	}
	t.Cleanup(func() { audit.Close() })

	return &Server{Manager: mgr, Audit: audit}, mgr
}

func TestHandlePortsListsRegisteredPorts(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ports", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ports []string
	if err := json.Unmarshal(rec.Body.Bytes(), &ports); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ports) != 1 || ports[0] != "Ethernet0" {
		t.Fatalf("got %v", ports)
	}
}

func TestHandlePortStatusSinglePort(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ports/status?port=Ethernet0", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var snap portSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Port != "Ethernet0" {
		t.Fatalf("got %+v", snap)
	}
}

func TestHandlePortStatusUnknownPort(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ports/status?port=Ethernet99", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleModeOverrideAcceptsAndRecordsAudit(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	body, _ := json.Marshal(modeOverrideRequest{Port: "Ethernet0", Mode: model.ModeStandby})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ports/mode", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	// the mode change is dispatched onto the port's strand asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := s.Audit.RecentActions("Ethernet0", 10)
		if err != nil {
			t.Fatalf("RecentActions: %v", err)
		}
		if len(entries) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("mode override was never recorded to the audit log")
}

func TestHandleModeOverrideUnknownPort(t *testing.T) {
	s, _ := newTestServer(t)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	body, _ := json.Marshal(modeOverrideRequest{Port: "Ethernet99", Mode: model.ModeStandby})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ports/mode", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequireAuthSkippedWithoutDB(t *testing.T) {
	s, _ := newTestServer(t)
	if s.DB != nil {
		t.Fatalf("expected nil DB in this fixture")
	}
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ports", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected unauthenticated access when no DB is wired, got %d", rec.Code)
	}
}
