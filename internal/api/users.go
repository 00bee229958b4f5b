package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/ratelimit"
	"github.com/erazemk/lostfound/internal/store"
)

// UsersHandler handles registration and credential checks. Neither login
// issues a session: a successful check returns the account summary.
type UsersHandler struct {
	DB          *sql.DB
	EmailDomain string
	AdminEmail  string
	Limiter     ratelimit.Limiter
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

type validateEmailResponse struct {
	Email   string `json:"email"`
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}. Deleted accounts are not found.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// ValidateEmail handles GET /api/users/validate-email/{email}.
func (h *UsersHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PathValue("email"))
	resp := validateEmailResponse{Email: email, IsValid: model.EmailInDomain(email, h.EmailDomain)}
	if resp.IsValid {
		resp.Message = "valid @" + h.EmailDomain + " address"
	} else {
		resp.Message = "email must be a @" + h.EmailDomain + " address"
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Register handles POST /api/users/register.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "name, email, and password required")
		return
	}
	if !model.EmailInDomain(req.Email, h.EmailDomain) {
		jsonError(w, http.StatusBadRequest, "email must be a @"+h.EmailDomain+" address")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		storeError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Name, req.Email, hash, model.RoleStudent)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("user registered", "user", user.ID, "email", user.Email)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/users/login.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}
	if !model.EmailInDomain(req.Email, h.EmailDomain) {
		jsonError(w, http.StatusBadRequest, "email must be a @"+h.EmailDomain+" address")
		return
	}

	key := "login:" + strings.ToLower(req.Email)
	if !h.allow(r.Context(), key) {
		metrics.ObserveLogin("student", "throttled")
		jsonError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		metrics.ObserveLogin("student", "failure")
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.reset(r.Context(), key)
	metrics.ObserveLogin("student", "success")
	slog.Info("user logged in", "user", user.ID, "role", user.Role)
	jsonResponse(w, http.StatusOK, user.Summary())
}

// AdminLogin handles POST /api/users/admin-login. The shared admin secret is
// checked and the admin account is created on first use.
func (h *UsersHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := "admin-login:" + clientIP(r)
	if !h.allow(r.Context(), key) {
		metrics.ObserveLogin("admin", "throttled")
		jsonError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	ok, err := auth.CheckAdminSecret(r.Context(), h.DB, req.Password)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if !ok {
		slog.Warn("admin login failed", "remote", r.RemoteAddr)
		metrics.ObserveLogin("admin", "failure")
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	admin, err := store.EnsureAdmin(r.Context(), h.DB, h.AdminEmail)
	if err != nil {
		storeError(w, r, err)
		return
	}

	h.reset(r.Context(), key)
	metrics.ObserveLogin("admin", "success")
	slog.Info("admin logged in", "user", admin.ID)
	jsonResponse(w, http.StatusOK, admin.Summary())
}

// allow consults the limiter. Throttling is best effort: if the limiter
// backend fails the attempt goes through.
func (h *UsersHandler) allow(ctx context.Context, key string) bool {
	if h.Limiter == nil {
		return true
	}
	ok, err := h.Limiter.Allow(ctx, key)
	if err != nil {
		slog.Error("rate limiter unavailable", "key", key, "error", err)
		return true
	}
	return ok
}

func (h *UsersHandler) reset(ctx context.Context, key string) {
	if h.Limiter == nil {
		return
	}
	if err := h.Limiter.Reset(ctx, key); err != nil {
		slog.Error("resetting rate limit", "key", key, "error", err)
	}
}
