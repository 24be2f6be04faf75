package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/academic-radar/internal/hash/sha256"
	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

const (
	defaultListingLimit = 50
	maxListingLimit     = 600
	// UrgentDays is the deadline horizon for ?urgent=true.
	UrgentDays = 3
)

// ListingHandler exposes read-only listing endpoints.
type ListingHandler struct {
	reader  Reader
	clock   Clock
	timeout time.Duration
	hasher  *sha256.Hasher
	logger  *zap.Logger
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// NewListingHandler wires the reader, clock and logger.
func NewListingHandler(reader Reader, clock Clock, logger *zap.Logger) *ListingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = wallClock{}
	}
	return &ListingHandler{
		reader:  reader,
		clock:   clock,
		timeout: loadTimeout,
		hasher:  sha256.New(),
		logger:  logger,
	}
}

// Archive handles GET /jobs.json. It returns the stored array newest first
// in the archive file encoding, 503 when the store is not configured, or 500
// if it cannot be read. Responses carry an ETag; a matching If-None-Match
// gets 304.
func (h *ListingHandler) Archive(w http.ResponseWriter, r *http.Request) {
	listings, ok := h.load(w, r)
	if !ok {
		return
	}
	body, err := store.Encode(listings)
	if err != nil {
		h.logger.Error("encode archive failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to encode listings")
		return
	}
	etag := h.hasher.ETag(body)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write archive failed", zap.Error(err))
	}
}

// List handles GET /api/listings?category=&source=&urgent=&limit=&offset=.
// It returns {"total": n, "listings": [...]} on success and 400 for invalid
// filters.
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	listings, ok := h.load(w, r)
	if !ok {
		return
	}
	matched := f.apply(listings, h.clock.Now())
	total := len(matched)
	start := min(f.offset, total)
	end := min(start+f.limit, total)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"listings": matched[start:end],
	})
}

// Ready handles GET /readyz by checking that the store can be read.
func (h *ListingHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.load(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *ListingHandler) load(w http.ResponseWriter, r *http.Request) ([]listing.JobListing, bool) {
	if h.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "listing store unavailable")
		return nil, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	listings, err := h.reader.Load(ctx)
	if err != nil {
		h.logger.Error("load listings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load listings")
		return nil, false
	}
	if listings == nil {
		listings = []listing.JobListing{}
	}
	store.Sort(listings)
	return listings, true
}

type filter struct {
	category listing.Category
	source   listing.Source
	urgent   bool
	limit    int
	offset   int
}

func (f filter) apply(in []listing.JobListing, now time.Time) []listing.JobListing {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]listing.JobListing, 0, len(in))
	for _, l := range in {
		if f.category != "" && !l.HasCategory(f.category) {
			continue
		}
		if f.source != "" && l.Source != f.source {
			continue
		}
		if f.urgent && !isUrgent(l, today) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func isUrgent(l listing.JobListing, today time.Time) bool {
	deadline, ok := l.Deadline()
	if !ok {
		return false
	}
	days := int(deadline.Sub(today).Hours() / 24)
	return days >= 0 && days <= UrgentDays
}

func parseFilter(r *http.Request) (filter, error) {
	q := r.URL.Query()
	f := filter{limit: defaultListingLimit}
	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		c := listing.Category(strings.ToLower(raw))
		if !slices.Contains(listing.Categories, c) {
			return filter{}, errors.New("invalid category")
		}
		f.category = c
	}
	if raw := strings.TrimSpace(q.Get("source")); raw != "" {
		s := listing.Source(strings.ToUpper(raw))
		if s != listing.SourceMOE && s != listing.SourceNSTC {
			return filter{}, errors.New("invalid source")
		}
		f.source = s
	}
	if raw := q.Get("urgent"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter{}, errors.New("invalid urgent flag")
		}
		f.urgent = v
	}
	if raw := q.Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 {
			return filter{}, errors.New("invalid limit")
		}
		f.limit = min(val, maxListingLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 0 {
			return filter{}, errors.New("invalid offset")
		}
		f.offset = val
	}
	return f, nil
}
