// Package api serves the enriched monuments over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"monument/internal/models"
	"monument/internal/store"
)

// Reader is the read side of the monument store.
type Reader interface {
	List(ctx context.Context) ([]models.EnrichedRecord, error)
	Get(ctx context.Context, id string) (models.EnrichedRecord, error)
}

// Monument is the JSON shape of one record.
type Monument struct {
	ID             string   `json:"id"`
	OfficialNumber string   `json:"officialNumber"`
	Category       string   `json:"category"`
	Address        string   `json:"address"`
	URL            string   `json:"url"`
	EntryDate      *string  `json:"entryDate"`
	DeletionDate   *string  `json:"deletionDate"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
}

func toMonument(r models.EnrichedRecord) Monument {
	m := Monument{
		ID:             r.ID,
		OfficialNumber: r.OfficialNumber,
		Category:       r.Category,
		Address:        r.Address,
		URL:            r.DetailURL,
	}
	if r.EntryDate.Valid() {
		s := r.EntryDate.String()
		m.EntryDate = &s
	}
	if r.DeletionDate.Valid() {
		s := r.DeletionDate.String()
		m.DeletionDate = &s
	}
	if r.Coordinate != nil {
		lat, lng := r.Coordinate.Lat, r.Coordinate.Lng
		m.Lat, m.Lng = &lat, &lng
	}
	return m
}

type Handler struct {
	store Reader
}

func NewHandler(s Reader) *Handler {
	return &Handler{store: s}
}

// Routes are mounted under /api/monuments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listMonuments)
	r.Get("/{monumentID}", h.getMonument)
	return r
}

func (h *Handler) listMonuments(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		zap.L().Error("list monuments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list monuments")
		return
	}
	out := make([]Monument, len(records))
	for i, rec := range records {
		out[i] = toMonument(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getMonument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "monumentID")
	rec, err := h.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "monument not found")
		return
	}
	if err != nil {
		zap.L().Error("get monument", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load monument")
		return
	}
	writeJSON(w, http.StatusOK, toMonument(rec))
}

// writeJSON serializes v as JSON with the provided status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
