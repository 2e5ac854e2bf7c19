package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/hearthstone-io/hearthscout/internal/adapters/detail"
	"github.com/hearthstone-io/hearthscout/internal/adapters/fetch"
	"github.com/hearthstone-io/hearthscout/internal/app"
	"github.com/hearthstone-io/hearthscout/internal/domain"
	"github.com/hearthstone-io/hearthscout/internal/roi"
)

// DetailFetcher is the slice of the detail extractor the handlers need.
type DetailFetcher interface {
	Description(ctx context.Context, url string) (string, error)
}

type Handlers struct {
	Scrapes *app.ScrapeService
	Q       *app.QueryService
	Detail  DetailFetcher
	Sources []string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/sources", h.listSources)
	s.mux.Post("/v1/scrapes", h.createScrape)
	s.mux.Get("/v1/batches/{id}", h.getBatch)
	s.mux.Get("/v1/batches/{id}/stats", h.getStats)
	s.mux.Post("/v1/roi", h.computeROI)
	s.mux.Get("/v1/detail", h.getDetail)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": h.Sources})
}

func (h *Handlers) createScrape(w http.ResponseWriter, r *http.Request) {
	var req app.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be JSON")
		return
	}

	batch, err := h.Scrapes.Scrape(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrEmptyLocation), errors.Is(err, domain.ErrUnknownSource):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	default:
		log.Error().Err(err).Msg("scrape failed")
		writeProblem(w, http.StatusInternalServerError, "Scrape failed", "")
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

// batchFilters reads the filter vocabulary out of query parameters.
func batchFilters(r *http.Request) (domain.Filters, bool) {
	q := r.URL.Query()
	var f domain.Filters
	var any bool

	num := func(key string) *float64 {
		v := q.Get(key)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		any = true
		return &n
	}
	f.MinPrice = num("min_price")
	f.MaxPrice = num("max_price")
	f.MinBeds = num("min_beds")
	f.MinBaths = num("min_baths")

	if v := q.Get("types"); v != "" {
		any = true
		for _, t := range strings.Split(v, ",") {
			f.PropertyTypes = append(f.PropertyTypes, domain.PropertyType(strings.TrimSpace(t)))
		}
	}
	if v := q.Get("sources"); v != "" {
		any = true
		f.Sources = strings.Split(v, ",")
	}
	if v := q.Get("cities"); v != "" {
		any = true
		f.Cities = strings.Split(v, ",")
	}
	return f, any
}

func (h *Handlers) getBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}

	var batch domain.Batch
	if f, filtered := batchFilters(r); filtered {
		batch, err = h.Q.Filter(r.Context(), id, f)
	} else {
		batch, err = h.Q.GetBatch(r.Context(), id)
	}
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "batch not found")
		return
	}
	writeCached(w, r, batch)
}

func (h *Handlers) getStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	st, err := h.Q.Stats(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "batch not found")
		return
	}
	writeCached(w, r, st)
}

type roiRequest struct {
	Listing     domain.CanonicalListing      `json:"listing"`
	Assumptions *domain.FinancialAssumptions `json:"assumptions"`
}

func (h *Handlers) computeROI(w http.ResponseWriter, r *http.Request) {
	var req roiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be JSON")
		return
	}
	a := roi.Defaults()
	if req.Assumptions != nil {
		a = *req.Assumptions
	}
	writeJSON(w, http.StatusOK, roi.Compute(req.Listing, a))
}

func (h *Handlers) getDetail(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeProblem(w, http.StatusBadRequest, "Missing url", "url query parameter is required")
		return
	}

	text, err := h.Detail.Description(r.Context(), url)
	switch {
	case err == nil:
	case errors.Is(err, detail.ErrNoDescription):
		writeProblem(w, http.StatusNotFound, "Not Found", "no description on page")
		return
	case fetch.IsBlocked(err):
		writeProblem(w, http.StatusBadGateway, "Blocked", "the source rejected the request")
		return
	default:
		log.Warn().Err(err).Str("url", url).Msg("detail fetch failed")
		writeProblem(w, http.StatusBadGateway, "Fetch failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url, "description": text})
}
