package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/lostfound/internal/archive"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// MissingHandler handles reports of lost items.
type MissingHandler struct {
	DB          *sql.DB
	EmailDomain string
}

type createMissingRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Building      string `json:"building"`
	Room          string `json:"room"`
	DateLost      string `json:"dateLost"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	ReportedBy    string `json:"reportedBy"`
}

type matchRequest struct {
	ItemID string `json:"itemId"`
}

// List handles GET /api/missing.
func (h *MissingHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := store.ListMissingReports(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Create handles POST /api/missing.
func (h *MissingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMissingRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ReporterEmail != "" && !model.EmailInDomain(req.ReporterEmail, h.EmailDomain) {
		jsonError(w, http.StatusBadRequest, "reporterEmail must be a @"+h.EmailDomain+" address")
		return
	}

	n := store.NewMissingReport{
		Name:          req.Name,
		Description:   req.Description,
		Building:      req.Building,
		Room:          req.Room,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		ReportedBy:    optionalID(req.ReportedBy),
	}
	if req.DateLost != "" {
		dateLost, err := parseDate("dateLost", req.DateLost)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		n.DateLost = &dateLost
	}

	report, err := store.CreateMissingReport(r.Context(), h.DB, n)
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("missing item reported", "report", report.ID, "name", report.Name)
	jsonResponse(w, http.StatusCreated, report)
}

// Match handles PUT /api/missing/{id}/match.
func (h *MissingHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		jsonError(w, http.StatusBadRequest, "itemId required")
		return
	}

	id := r.PathValue("id")
	if err := store.MatchMissingReport(r.Context(), h.DB, id, req.ItemID); err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("missing report matched", "report", id, "item", req.ItemID)
	w.WriteHeader(http.StatusNoContent)
}

// ArchiveHandler exposes the archive of stale missing reports.
type ArchiveHandler struct {
	DB      *sql.DB
	Sweeper *archive.Sweeper
}

// List handles GET /api/archive.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := store.ListArchivedReports(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, reports)
}

// Run handles POST /api/archive/run.
func (h *ArchiveHandler) Run(w http.ResponseWriter, r *http.Request) {
	moved, err := h.Sweeper.Run(r.Context(), archive.TriggerManual)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"archived": moved})
}
