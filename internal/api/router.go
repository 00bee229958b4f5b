package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erazemk/lostfound/internal/archive"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/ratelimit"
)

// Config holds the dependencies of the API.
type Config struct {
	DB            *sql.DB
	EmailDomain   string
	AdminEmail    string
	ReceiptSecret string
	Limiter       ratelimit.Limiter
	Sweeper       *archive.Sweeper
	Images        imaging.Processor
	AllowOrigins  []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{DB: cfg.DB, Images: cfg.Images}
	claimsHandler := &ClaimsHandler{DB: cfg.DB, EmailDomain: cfg.EmailDomain, ReceiptSecret: cfg.ReceiptSecret}
	usersHandler := &UsersHandler{DB: cfg.DB, EmailDomain: cfg.EmailDomain, AdminEmail: cfg.AdminEmail, Limiter: cfg.Limiter}
	missingHandler := &MissingHandler{DB: cfg.DB, EmailDomain: cfg.EmailDomain}
	archiveHandler := &ArchiveHandler{DB: cfg.DB, Sweeper: cfg.Sweeper}

	// Found items.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("PUT /api/items/{id}/image", itemsHandler.UploadImage)
	mux.HandleFunc("GET /api/items/{id}/image", itemsHandler.GetImage)

	// Claims.
	mux.HandleFunc("GET /api/claims", claimsHandler.List)
	mux.HandleFunc("GET /api/claims/pending", claimsHandler.ListPending)
	mux.HandleFunc("GET /api/claims/audit", claimsHandler.Audit)
	mux.HandleFunc("GET /api/claims/{id}", claimsHandler.Get)
	mux.HandleFunc("POST /api/claims", claimsHandler.Create)
	mux.HandleFunc("PUT /api/claims/{id}/resolve", claimsHandler.Resolve)
	mux.HandleFunc("DELETE /api/claims/{id}", claimsHandler.Delete)
	mux.HandleFunc("GET /api/claims/receipt/{token}", claimsHandler.Receipt)

	// Users.
	mux.HandleFunc("POST /api/users/register", usersHandler.Register)
	mux.HandleFunc("POST /api/users/login", usersHandler.Login)
	mux.HandleFunc("POST /api/users/admin-login", usersHandler.AdminLogin)
	mux.HandleFunc("GET /api/users", usersHandler.List)
	mux.HandleFunc("GET /api/users/{id}", usersHandler.Get)
	mux.HandleFunc("GET /api/users/validate-email/{email}", usersHandler.ValidateEmail)

	// Missing reports and the archive.
	mux.HandleFunc("GET /api/missing", missingHandler.List)
	mux.HandleFunc("POST /api/missing", missingHandler.Create)
	mux.HandleFunc("PUT /api/missing/{id}/match", missingHandler.Match)
	mux.HandleFunc("GET /api/archive", archiveHandler.List)
	mux.HandleFunc("POST /api/archive/run", archiveHandler.Run)

	// Operations.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.DB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("database not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return LoggingMiddleware(CORSMiddleware(cfg.AllowOrigins)(metrics.HTTPMetricsMiddleware(mux)))
}
