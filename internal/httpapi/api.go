package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"labvault.app/internal/auth"
	"labvault.app/internal/obs"
	"labvault.app/internal/reports"
	"labvault.app/internal/stream"
)

// Uploads carry report scans, so the body cap sits well above typical JSON
// payloads.
const defaultMaxBodyBytes = 50 << 20

// ReadyProbe — readiness check backed by the database, when one is wired.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries everything the HTTP layer depends on.
type Config struct {
	Version       string
	Sessions      *auth.Sessions
	Users         auth.UserStore
	IdentityCache *auth.IdentityCache
	Reports       *reports.Service
	Stream        *stream.Stream
	ReadyProbe    ReadyProbe

	// SecureCookies marks session cookies Secure; on in every deployment
	// except local development over plain HTTP.
	SecureCookies bool
	AllowedOrigin string
	RateBurst     int
	RatePerSec    int
	MaxBodyBytes  int64

	// MediaDir, when set, serves locally stored report files under /media/.
	// Production deployments use an external media host instead.
	MediaDir string
}

// API — the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	sessions *auth.Sessions
	users    auth.UserStore
	idCache  *auth.IdentityCache
	reports  *reports.Service
	stream   *stream.Stream

	secureCookies bool
	allowedOrigin string
	rateBurst     int
	ratePerSec    int
	maxBodyBytes  int64
}

func New(cfg Config) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    cfg.ReadyProbe,
		version:       cfg.Version,
		sessions:      cfg.Sessions,
		users:         cfg.Users,
		idCache:       cfg.IdentityCache,
		reports:       cfg.Reports,
		stream:        cfg.Stream,
		secureCookies: cfg.SecureCookies,
		allowedOrigin: cfg.AllowedOrigin,
		rateBurst:     cfg.RateBurst,
		ratePerSec:    cfg.RatePerSec,
		maxBodyBytes:  cfg.MaxBodyBytes,
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = defaultMaxBodyBytes
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// Session lifecycle
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/profile", a.withSession(a.handleProfile))

	// Reports
	a.mux.HandleFunc("/v1/reports/upload", a.withSession(a.handleReportUpload))
	a.mux.HandleFunc("/v1/reports/events", a.withSession(a.handleReportEvents))
	a.mux.HandleFunc("/v1/reports/user/", a.withSession(a.handleReportsByUser))
	a.mux.HandleFunc("/v1/reports/", a.withSession(a.handleReportResource))

	if cfg.MediaDir != "" {
		a.mux.Handle("/media/", http.StripPrefix("/media/",
			http.FileServer(http.Dir(cfg.MediaDir))))
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully-wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	if a.rateBurst > 0 && a.ratePerSec > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSec)
	}
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = SecurityHeaders(h)
	if a.allowedOrigin != "" {
		h = CORS(h, a.allowedOrigin)
	}
	h = RequestID(h)
	return h
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "labvault-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "labvault-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
