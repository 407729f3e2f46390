// Package adminapi is the HTTP control surface an operator (or another ToR's
// controller) uses to inspect and, within the bounds of §6's Mode override,
// steer a running linkmgrd: bootstrap/login for admin users, read-only
// port status, and the manual active/standby/auto override.
//
// Adapted from pkg/api/auth.go (bcrypt + JWT bootstrap-admin flow) and the
// read-handler shape of pkg/api/controller.go; TLS wiring follows
// pkg/api/tls.go.
package adminapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dualtor-linkmgrd/pkg/authn"
	"dualtor-linkmgrd/pkg/linkmgr"
	"dualtor-linkmgrd/pkg/model"
	"dualtor-linkmgrd/pkg/persistence"
)

// Server exposes the admin HTTP surface over the running Manager.
type Server struct {
	Manager *linkmgr.Manager
	Audit   *persistence.LocalAudit
	DB      *gorm.DB // optional; nil disables auth/bootstrap endpoints

	// Dispatch carries out the Actions a handler-triggered transition
	// produces (fabric writes, prober suspend/restart, peer switch), the
	// same way the daemon's own watch-driven sink does. Required for
	// handleModeOverride to actually take effect rather than just audit.
	Dispatch func(port string, actions []linkmgr.Action)
}

// RegisterRoutes wires every admin handler onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	if s.DB != nil {
		mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
		mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	}
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/v1/ports", s.requireAuth(s.handlePorts))
	mux.HandleFunc("/api/v1/ports/status", s.requireAuth(s.handlePortStatus))
	mux.HandleFunc("/api/v1/ports/mode", s.requireAdmin(s.handleModeOverride))
	mux.HandleFunc("/api/v1/audit", s.requireAuth(s.handleAudit))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requireAuth enforces a bearer JWT when a DB (and therefore a user table)
// is configured; with no DB the surface is intended for localhost-only or
// reverse-proxy-gated deployments and auth is skipped.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			next(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := authn.Parse(strings.TrimPrefix(h, "Bearer ")); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// requireAdmin additionally requires the bearer token's Claims.IsAdmin —
// used for the one write path this surface exposes (the Mode override).
// With no DB configured the surface skips auth entirely, same as
// requireAuth.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.DB == nil {
			next(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := authn.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleRegister only allows the first user to be created (bootstrap admin),
// mirroring pkg/api/auth.go's handleRegister.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var count int64
	s.DB.Model(&model.User{}).Count(&count)
	if count > 0 {
		http.Error(w, "registration closed", http.StatusForbidden)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}
	user := model.User{Username: req.Username, PasswordHash: string(hash), IsAdmin: true}
	if err := s.DB.Create(&user).Error; err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	token, err := authn.Generate(user.ID, user.Username, user.IsAdmin, 24*time.Hour)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var user model.User
	if err := s.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := authn.Generate(user.ID, user.Username, user.IsAdmin, 24*time.Hour)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// portSnapshot is the read-only view of a port's composite state returned
// by the status endpoints; it never exposes PortSupervisor itself since
// that would let a caller bypass the per-port strand.
type portSnapshot struct {
	Port      string               `json:"port"`
	Composite model.CompositeState `json:"composite"`
	Health    model.Health         `json:"health"`
	Mode      model.Mode           `json:"mode"`
	Peer      model.PeerView       `json:"peer"`
	Reconciled bool                `json:"reconciled"`
}

func (s *Server) handlePorts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Manager.Ports())
}

func (s *Server) handlePortStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	port := r.URL.Query().Get("port")
	if port == "" {
		out := make([]portSnapshot, 0)
		for _, p := range s.Manager.Ports() {
			if sup, ok := s.Manager.Supervisor(p); ok {
				out = append(out, snapshot(p, sup))
			}
		}
		writeJSON(w, http.StatusOK, out)
		return
	}
	sup, ok := s.Manager.Supervisor(port)
	if !ok {
		http.Error(w, "unknown port", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(port, sup))
}

func snapshot(port string, sup *linkmgr.PortSupervisor) portSnapshot {
	return portSnapshot{
		Port:       port,
		Composite:  sup.State.Composite,
		Health:     sup.State.Health,
		Mode:       sup.State.Mode,
		Peer:       sup.State.Peer,
		Reconciled: sup.State.Reconciled,
	}
}

type modeOverrideRequest struct {
	Port string     `json:"port"`
	Mode model.Mode `json:"mode"`
}

// handleModeOverride is the one write path this surface exposes: an
// operator-forced Mode transition (§2's ModeLabel), routed through the same
// OnModeChange entrypoint the platform's own mode-change notifications use
// so there is exactly one code path for this transition regardless of
// source.
func (s *Server) handleModeOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req modeOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Port == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if _, ok := s.Manager.Supervisor(req.Port); !ok {
		http.Error(w, "unknown port", http.StatusNotFound)
		return
	}
	s.Manager.Apply(req.Port, func(sup *linkmgr.PortSupervisor) []linkmgr.Action {
		return sup.OnModeChange(req.Mode)
	}, false, func(port string, actions []linkmgr.Action) {
		if s.Audit != nil {
			s.Audit.RecordAction(port, "mode_override", string(rune(req.Mode)), "via admin API")
		}
		if s.Dispatch != nil {
			s.Dispatch(port, actions)
		}
	})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Audit == nil {
		writeJSON(w, http.StatusOK, []model.AuditEntry{})
		return
	}
	port := r.URL.Query().Get("port")
	limit := 100
	entries, err := s.Audit.RecentActions(port, limit)
	if err != nil {
		http.Error(w, "failed to read audit log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
