// Curatus - Personalized Content Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/feed"
	"github.com/tomtom215/curatus/internal/ingest"
	"github.com/tomtom215/curatus/internal/models"
	"github.com/tomtom215/curatus/internal/preference"
	"github.com/tomtom215/curatus/internal/validation"
)

// statsTopCategories is how many affinity entries the stats endpoint
// reports.
const statsTopCategories = 5

// Handler holds the endpoint implementations and their collaborators.
type Handler struct {
	pipeline *feed.Pipeline
	tracker  *preference.Tracker
	ingest   *ingest.Service
	catalog  models.Catalog

	defaultFeedCount int
	maxFeedCount     int

	version string
	logger  zerolog.Logger
}

// NewHandler creates the endpoint handler set.
func NewHandler(pipeline *feed.Pipeline, tracker *preference.Tracker, ingestSvc *ingest.Service,
	catalog models.Catalog, defaultFeedCount, maxFeedCount int, version string,
	logger zerolog.Logger) *Handler {

	if defaultFeedCount <= 0 {
		defaultFeedCount = 20
	}
	if maxFeedCount <= 0 {
		maxFeedCount = 100
	}
	return &Handler{
		pipeline:         pipeline,
		tracker:          tracker,
		ingest:           ingestSvc,
		catalog:          catalog,
		defaultFeedCount: defaultFeedCount,
		maxFeedCount:     maxFeedCount,
		version:          version,
		logger:           logger.With().Str("component", "api").Logger(),
	}
}

// Feed handles GET /api/v1/feed/{userID}?count=N.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	count := h.defaultFeedCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, ErrCodeValidationError,
				"count must be a positive integer",
				map[string]interface{}{"count": raw})
			return
		}
		count = parsed
	}
	if count > h.maxFeedCount {
		count = h.maxFeedCount
	}

	items, err := h.pipeline.ComputeFeed(r.Context(), userID, count)
	if err != nil {
		h.internalError(w, err, "feed computation failed")
		return
	}

	out := make([]models.FeedItem, len(items))
	for i, s := range items {
		out[i] = models.FeedItem{
			ID:           s.Item.ID,
			Title:        s.Item.Title,
			Category:     s.Item.Category,
			Author:       s.Item.Author,
			URL:          s.Item.URL,
			ContentType:  s.Item.ContentType.String(),
			Score:        s.Score,
			RawScore:     s.Item.RawScore,
			CommentCount: s.Item.CommentCount,
			AgeHours:     s.Item.AgeHours,
			Source:       string(s.Source),
		}
	}

	writeSuccess(w, http.StatusOK, models.FeedResponse{
		UserID: userID,
		Items:  out,
		Count:  len(out),
	}, start)
}

// Feedback handles POST /api/v1/feedback/{userID}.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	var req models.FeedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
			"invalid JSON body: "+err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.validationError(w, verr)
		return
	}

	interactionType, ok := models.ParseInteractionType(req.Type)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrCodeValidationError,
			"unknown interaction type", map[string]interface{}{"type": req.Type})
		return
	}

	event := models.InteractionEvent{
		UserID:          userID,
		ItemID:          req.ItemID,
		Type:            interactionType,
		DurationSeconds: req.DurationSeconds,
		Timestamp:       time.Now().UTC(),
	}
	if err := h.pipeline.RecordFeedback(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, models.ErrItemNotFound):
			writeError(w, http.StatusNotFound, ErrCodeNotFound,
				"item not found", map[string]interface{}{"item_id": req.ItemID})
		case errors.Is(err, models.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, ErrCodeNotFound,
				"user not found", map[string]interface{}{"user_id": userID})
		default:
			h.internalError(w, err, "feedback failed")
		}
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"result": "recorded"}, start)
}

// CreateUser handles POST /api/v1/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
			"invalid JSON body: "+err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.validationError(w, verr)
		return
	}

	profile, err := h.tracker.Create(r.Context(), req.UserID, req.Username, req.ExplorationRate)
	if err != nil {
		h.internalError(w, err, "user creation failed")
		return
	}

	writeSuccess(w, http.StatusCreated, statsResponse(profile), start)
}

// UserStats handles GET /api/v1/users/{userID}/stats.
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID := chi.URLParam(r, "userID")

	profile, err := h.tracker.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound,
				"user not found", map[string]interface{}{"user_id": userID})
			return
		}
		h.internalError(w, err, "stats lookup failed")
		return
	}

	writeSuccess(w, http.StatusOK, statsResponse(profile), start)
}

// ListUsers handles GET /api/v1/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	profiles, err := h.tracker.List(r.Context())
	if err != nil {
		h.internalError(w, err, "user listing failed")
		return
	}

	users := make([]models.UserStatsResponse, 0, len(profiles))
	for _, profile := range profiles {
		users = append(users, statsResponse(profile))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })

	writeSuccess(w, http.StatusOK, models.UserListResponse{
		Users: users,
		Total: len(users),
	}, start)
}

// GetItem handles GET /api/v1/items/{itemID}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	itemID := chi.URLParam(r, "itemID")

	item, err := h.catalog.GetByID(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound,
				"item not found", map[string]interface{}{"item_id": itemID})
			return
		}
		h.internalError(w, err, "item lookup failed")
		return
	}

	writeSuccess(w, http.StatusOK, models.FeedItem{
		ID:           item.ID,
		Title:        item.Title,
		Category:     item.Category,
		Author:       item.Author,
		URL:          item.URL,
		ContentType:  item.ContentType.String(),
		RawScore:     item.RawScore,
		CommentCount: item.CommentCount,
		AgeHours:     item.AgeHours,
	}, start)
}

// IngestItems handles POST /api/v1/items. The body is a JSON array of
// items; the whole batch is validated before anything is stored.
func (h *Handler) IngestItems(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reqs []models.IngestItemRequest
	if err := decodeBody(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest,
			"invalid JSON body: "+err.Error(), nil)
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidationError,
			"empty item batch", nil)
		return
	}

	items := make([]models.Item, len(reqs))
	for i, req := range reqs {
		if verr := validation.ValidateStruct(&req); verr != nil {
			h.validationError(w, verr)
			return
		}
		items[i] = ingestItem(req)
	}

	accepted, embedded, err := h.ingest.IngestBatch(r.Context(), items)
	if err != nil {
		h.internalError(w, err, "ingest failed")
		return
	}

	writeSuccess(w, http.StatusCreated, models.IngestResponse{
		Accepted: accepted,
		Embedded: embedded,
	}, start)
}

// Rebuild handles POST /api/v1/admin/rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	size, err := h.pipeline.RebuildIndex(r.Context())
	if err != nil {
		h.internalError(w, err, "index rebuild failed")
		return
	}

	writeSuccess(w, http.StatusOK, models.RebuildResponse{
		IndexSize:  size,
		DurationMS: time.Since(start).Milliseconds(),
	}, start)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	writeSuccess(w, http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Version:   h.version,
		IndexSize: h.pipeline.IndexSize(),
	}, start)
}

func (h *Handler) validationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

func (h *Handler) internalError(w http.ResponseWriter, err error, msg string) {
	h.logger.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, msg, nil)
}

// statsResponse assembles the user stats payload from a profile.
func statsResponse(profile *models.UserProfile) models.UserStatsResponse {
	top := make([]models.CategoryAffinity, 0, len(profile.Affinity))
	for category, weight := range profile.Affinity {
		top = append(top, models.CategoryAffinity{Category: category, Weight: weight})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Weight != top[j].Weight {
			return top[i].Weight > top[j].Weight
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > statsTopCategories {
		top = top[:statsTopCategories]
	}

	return models.UserStatsResponse{
		UserID:            profile.ID,
		TotalInteractions: profile.TotalInteractions,
		TotalLikes:        profile.TotalLikes,
		TotalDislikes:     profile.TotalDislikes,
		AvgReadSeconds:    profile.AvgReadSeconds,
		ExplorationRate:   profile.ExplorationRate,
		ColdStart:         profile.IsCold(),
		TopCategories:     top,
		UpdatedAt:         profile.UpdatedAt,
	}
}

// ingestItem converts a validated ingest request into the domain item.
func ingestItem(req models.IngestItemRequest) models.Item {
	contentType := models.ContentText
	switch req.ContentType {
	case "link":
		contentType = models.ContentLink
	case "video":
		contentType = models.ContentVideo
	}

	return models.Item{
		ID:           req.ID,
		Title:        req.Title,
		Body:         req.Body,
		Category:     req.Category,
		Author:       req.Author,
		URL:          req.URL,
		RawScore:     req.RawScore,
		CommentCount: req.CommentCount,
		UpvoteRatio:  req.UpvoteRatio,
		AgeHours:     req.AgeHours,
		ContentType:  contentType,
		Unsafe:       req.Unsafe,
	}
}
