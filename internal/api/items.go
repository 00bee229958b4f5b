package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/store"
)

// ItemsHandler handles found-item endpoints.
type ItemsHandler struct {
	DB     *sql.DB
	Images imaging.Processor
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Building    string `json:"building"`
	Room        string `json:"room"`
	DateFound   string `json:"dateFound"`
	AddedBy     string `json:"addedBy"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dateFound, err := parseDate("dateFound", req.DateFound)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, store.NewItem{
		Name:        req.Name,
		Description: req.Description,
		Building:    req.Building,
		Room:        req.Room,
		DateFound:   dateFound,
		AddedBy:     optionalID(req.AddedBy),
	})
	if err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("found item logged", "item", item.ID, "name", item.Name, "building", item.Building)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetItem(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Claims on the item go with it.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		storeError(w, r, err)
		return
	}

	slog.Info("found item deleted", "item", id)
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Room for the multipart envelope on top of the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+64<<10)

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := h.Images.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Image, result.Thumbnail, result.MIME); err != nil {
		storeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image. ?size=thumb returns the
// thumbnail.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	thumb := r.URL.Query().Get("size") == "thumb"

	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"), thumb)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
