// Package client is a Go client for the lost-and-found API, with Mirror, a
// local copy of server state for front-ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/model"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status of an APIError, or 0 for other errors.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to a lost-and-found server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// ItemInput is the body of a found-item submission.
type ItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Building    string `json:"building"`
	Room        string `json:"room,omitempty"`
	DateFound   string `json:"dateFound"`
	AddedBy     string `json:"addedBy,omitempty"`
}

// ClaimInput is the body of a claim submission.
type ClaimInput struct {
	ItemID           string `json:"itemId"`
	ClaimerName      string `json:"claimerName"`
	ClaimerEmail     string `json:"claimerEmail"`
	LastSeenBuilding string `json:"lastSeenBuilding"`
	LastSeenRoom     string `json:"lastSeenRoom,omitempty"`
	OwnershipDetails string `json:"ownershipDetails"`
	ClaimDate        string `json:"claimDate"`
	ClaimedBy        string `json:"claimedBy,omitempty"`
}

// MissingInput is the body of a missing-item report.
type MissingInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Building      string `json:"building"`
	Room          string `json:"room,omitempty"`
	DateLost      string `json:"dateLost,omitempty"`
	ReporterName  string `json:"reporterName"`
	ReporterEmail string `json:"reporterEmail"`
	ReportedBy    string `json:"reportedBy,omitempty"`
}

// SubmittedClaim is a created claim together with its receipt.
type SubmittedClaim struct {
	model.Claim
	Receipt string `json:"receipt"`
}

// ReceiptStatus is the public status of a claim looked up by receipt.
type ReceiptStatus struct {
	ClaimID       string     `json:"claimId"`
	ItemID        string     `json:"itemId"`
	ItemName      string     `json:"itemName,omitempty"`
	Status        string     `json:"status"`
	DateSubmitted time.Time  `json:"dateSubmitted"`
	ResolvedDate  *time.Time `json:"resolvedDate,omitempty"`
	Withdrawn     bool       `json:"withdrawn"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ListItems returns all found items, newest first.
func (c *Client) ListItems(ctx context.Context) ([]model.FoundItem, error) {
	var items []model.FoundItem
	if err := c.do(ctx, http.MethodGet, "/api/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem returns one found item.
func (c *Client) GetItem(ctx context.Context, id string) (*model.FoundItem, error) {
	var item model.FoundItem
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem logs a found item.
func (c *Client) CreateItem(ctx context.Context, in ItemInput) (*model.FoundItem, error) {
	var item model.FoundItem
	if err := c.do(ctx, http.MethodPost, "/api/items", in, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem deletes a found item and its claims.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

// ListClaims returns non-deleted claims. An empty status returns all of them.
func (c *Client) ListClaims(ctx context.Context, status string) ([]model.Claim, error) {
	path := "/api/claims"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var claims []model.Claim
	if err := c.do(ctx, http.MethodGet, path, nil, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ListPendingClaims returns claims awaiting resolution.
func (c *Client) ListPendingClaims(ctx context.Context) ([]model.Claim, error) {
	var claims []model.Claim
	if err := c.do(ctx, http.MethodGet, "/api/claims/pending", nil, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GetClaim returns one claim.
func (c *Client) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	var claim model.Claim
	if err := c.do(ctx, http.MethodGet, "/api/claims/"+url.PathEscape(id), nil, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// SubmitClaim submits a claim for a found item.
func (c *Client) SubmitClaim(ctx context.Context, in ClaimInput) (*SubmittedClaim, error) {
	var claim SubmittedClaim
	if err := c.do(ctx, http.MethodPost, "/api/claims", in, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// ResolveClaim resolves a pending claim.
func (c *Client) ResolveClaim(ctx context.Context, id, resolvedBy string) error {
	body := map[string]string{"resolvedBy": resolvedBy}
	return c.do(ctx, http.MethodPut, "/api/claims/"+url.PathEscape(id)+"/resolve", body, nil)
}

// DeleteClaim withdraws a claim.
func (c *Client) DeleteClaim(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/claims/"+url.PathEscape(id), nil, nil)
}

// ClaimReceipt looks up a claim's status by its receipt.
func (c *Client) ClaimReceipt(ctx context.Context, token string) (*ReceiptStatus, error) {
	var status ReceiptStatus
	if err := c.do(ctx, http.MethodGet, "/api/claims/receipt/"+url.PathEscape(token), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Register creates a student account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	var user model.User
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/register", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks student credentials.
func (c *Client) Login(ctx context.Context, email, password string) (*model.UserSummary, error) {
	var user model.UserSummary
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminLogin checks the admin secret.
func (c *Client) AdminLogin(ctx context.Context, password string) (*model.UserSummary, error) {
	var user model.UserSummary
	if err := c.do(ctx, http.MethodPost, "/api/users/admin-login", map[string]string{"password": password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns active accounts.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns one active account.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ValidateEmail reports whether email passes the server's domain gate.
func (c *Client) ValidateEmail(ctx context.Context, email string) (bool, error) {
	var result struct {
		IsValid bool `json:"isValid"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/validate-email/"+url.PathEscape(email), nil, &result); err != nil {
		return false, err
	}
	return result.IsValid, nil
}

// ListMissing returns active missing reports.
func (c *Client) ListMissing(ctx context.Context) ([]model.MissingReport, error) {
	var reports []model.MissingReport
	if err := c.do(ctx, http.MethodGet, "/api/missing", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ReportMissing files a missing-item report.
func (c *Client) ReportMissing(ctx context.Context, in MissingInput) (*model.MissingReport, error) {
	var report model.MissingReport
	if err := c.do(ctx, http.MethodPost, "/api/missing", in, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// MatchMissing links a missing report to a found item.
func (c *Client) MatchMissing(ctx context.Context, reportID, itemID string) error {
	return c.do(ctx, http.MethodPut, "/api/missing/"+url.PathEscape(reportID)+"/match",
		map[string]string{"itemId": itemID}, nil)
}

// ListArchive returns archived missing reports.
func (c *Client) ListArchive(ctx context.Context) ([]model.ArchivedReport, error) {
	var reports []model.ArchivedReport
	if err := c.do(ctx, http.MethodGet, "/api/archive", nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// RunArchive triggers the archive sweep and returns how many reports moved.
func (c *Client) RunArchive(ctx context.Context) (int, error) {
	var result struct {
		Archived int `json:"archived"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/archive/run", nil, &result); err != nil {
		return 0, err
	}
	return result.Archived, nil
}
