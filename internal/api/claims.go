package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/receipt"
	"github.com/erazemk/lostfound/internal/store"
)

// ClaimsHandler handles claim submission and administration.
type ClaimsHandler struct {
	DB            *sql.DB
	EmailDomain   string
	ReceiptSecret string
}

type createClaimRequest struct {
	ItemID           string `json:"itemId"`
	ClaimerName      string `json:"claimerName"`
	ClaimerEmail     string `json:"claimerEmail"`
	LastSeenBuilding string `json:"lastSeenBuilding"`
	LastSeenRoom     string `json:"lastSeenRoom"`
	OwnershipDetails string `json:"ownershipDetails"`
	ClaimDate        string `json:"claimDate"`
	ClaimedBy        string `json:"claimedBy"`
}

type createClaimResponse struct {
	*model.Claim
	Receipt string `json:"receipt"`
}

type resolveClaimRequest struct {
	ResolvedBy string `json:"resolvedBy"`
}

type receiptResponse struct {
	ClaimID       string     `json:"claimId"`
	ItemID        string     `json:"itemId"`
	ItemName      string     `json:"itemName,omitempty"`
	Status        string     `json:"status"`
	DateSubmitted time.Time  `json:"dateSubmitted"`
	ResolvedDate  *time.Time `json:"resolvedDate,omitempty"`
	Withdrawn     bool       `json:"withdrawn"`
}

// List handles GET /api/claims. ?status= narrows to pending or resolved.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := store.ListClaims(r.Context(), h.DB, r.URL.Query().Get("status"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

// ListPending handles GET /api/claims/pending.
func (h *ClaimsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	claims, err := store.ListPendingClaims(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

// Audit handles GET /api/claims/audit.
func (h *ClaimsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	claims, err := store.ListClaimAudit(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, claims)
}

// Get handles GET /api/claims/{id}.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claim, err := store.GetClaim(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	if claim == nil {
		jsonError(w, http.StatusNotFound, "claim not found")
		return
	}
	jsonResponse(w, http.StatusOK, claim)
}

// Create handles POST /api/claims.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ClaimerEmail != "" && !model.EmailInDomain(req.ClaimerEmail, h.EmailDomain) {
		jsonError(w, http.StatusBadRequest, "claimerEmail must be a @"+h.EmailDomain+" address")
		return
	}

	claimDate, err := parseDate("claimDate", req.ClaimDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	claim, err := store.CreateClaim(r.Context(), h.DB, store.NewClaim{
		ItemID:           req.ItemID,
		ClaimerName:      req.ClaimerName,
		ClaimerEmail:     req.ClaimerEmail,
		LastSeenBuilding: req.LastSeenBuilding,
		LastSeenRoom:     req.LastSeenRoom,
		OwnershipDetails: req.OwnershipDetails,
		ClaimDate:        claimDate,
		ClaimedBy:        optionalID(req.ClaimedBy),
	})
	if err != nil {
		storeError(w, r, err)
		return
	}

	token, err := receipt.Issue(h.ReceiptSecret, claim.ID, claim.ItemID, claim.DateSubmitted)
	if err != nil {
		storeError(w, r, err)
		return
	}

	metrics.ObserveClaim(metrics.ClaimCreated)
	slog.Info("claim submitted", "claim", claim.ID, "item", claim.ItemID)
	jsonResponse(w, http.StatusCreated, createClaimResponse{Claim: claim, Receipt: token})
}

// Resolve handles PUT /api/claims/{id}/resolve. A claim is resolved once; a
// second attempt answers 409.
func (h *ClaimsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveClaimRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	if err := store.ResolveClaim(r.Context(), h.DB, id, optionalID(req.ResolvedBy)); err != nil {
		storeError(w, r, err)
		return
	}

	metrics.ObserveClaim(metrics.ClaimResolved)
	slog.Info("claim resolved", "claim", id, "resolved_by", req.ResolvedBy)
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/claims/{id}.
func (h *ClaimsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteClaim(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err)
		return
	}

	metrics.ObserveClaim(metrics.ClaimDeleted)
	slog.Info("claim deleted", "claim", id)
	w.WriteHeader(http.StatusNoContent)
}

// Receipt handles GET /api/claims/receipt/{token}.
func (h *ClaimsHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	claims, err := receipt.Verify(h.ReceiptSecret, r.PathValue("token"))
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid receipt")
		return
	}

	claim, err := store.GetClaimStatus(r.Context(), h.DB, claims.ClaimID())
	if err != nil {
		storeError(w, r, err)
		return
	}
	if claim == nil {
		jsonError(w, http.StatusNotFound, "claim not found")
		return
	}

	resp := receiptResponse{
		ClaimID:       claim.ID,
		ItemID:        claim.ItemID,
		Status:        claim.Status,
		DateSubmitted: claim.DateSubmitted,
		ResolvedDate:  claim.ResolvedDate,
		Withdrawn:     claim.DeletedAt != nil,
	}
	if claim.Item != nil {
		resp.ItemName = claim.Item.Name
	}
	jsonResponse(w, http.StatusOK, resp)
}
