package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "clipscan/internal/application/analysis"
	"clipscan/internal/domain/providers"
	"clipscan/internal/middleware"
)

type Router struct {
	svc *appanalysis.Service
	log *slog.Logger
}

func NewRouter(svc *appanalysis.Service, log *slog.Logger) http.Handler {
	r := &Router{svc: svc, log: log}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{channel}", func(rt chi.Router) {
		rt.Post("/webhook/video-flagged", r.wrap(r.handleVideoFlagged))
		rt.Get("/verdicts/latest", r.wrap(r.handleLatest))
		rt.Get("/verdicts/{id}", r.wrap(r.handleGet))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, providers.ErrUnavailable) {
				http.Error(w, "screening provider unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/{channel}/webhook/video-flagged
// Body: {"video_id": "...", "video_ref": "...", "thumbnail_url": "...", "priority": 0}
// Queues a screening run and answers immediately; the run continues in the
// background until done.
func (r *Router) handleVideoFlagged(w http.ResponseWriter, req *http.Request) error {
	channel := chi.URLParam(req, "channel")

	var body struct {
		VideoID      string `json:"video_id"`
		VideoRef     string `json:"video_ref"`
		ThumbnailURL string `json:"thumbnail_url"`
		Priority     int    `json:"priority"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, fmt.Errorf("invalid payload: %w", err))
	}
	if err := middleware.ValidateChannelID(channel); err != nil {
		return badRequest(w, err)
	}
	if err := middleware.ValidateVideoID(body.VideoID); err != nil {
		return badRequest(w, err)
	}
	if err := middleware.ValidateVideoRef(body.VideoRef); err != nil {
		return badRequest(w, err)
	}
	if body.ThumbnailURL != "" {
		if err := middleware.ValidateURL(body.ThumbnailURL); err != nil {
			return badRequest(w, err)
		}
	}
	if err := middleware.ValidatePriority(body.Priority); err != nil {
		return badRequest(w, err)
	}

	cmd := appanalysis.ScreenVideoCommand{
		ChannelID:    channel,
		VideoID:      body.VideoID,
		VideoRef:     body.VideoRef,
		ThumbnailURL: body.ThumbnailURL,
		Priority:     body.Priority,
	}

	jobID, err := r.svc.EnqueueScreening(req.Context(), cmd)
	if err != nil {
		return err
	}

	middleware.IncrementRuns()
	go func() {
		middleware.IncrementRunsRunning()
		defer middleware.DecrementRunsRunning()
		if err := r.svc.RunJob(jobID, cmd); err != nil {
			middleware.IncrementRunsFailed()
		}
	}()

	resp := map[string]any{
		"status":    "queued",
		"job_id":    jobID,
		"channel":   channel,
		"video_id":  body.VideoID,
		"queued_at": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/{channel}/verdicts/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	channel := chi.URLParam(req, "channel")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.svc.Latest(req.Context(), channel, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{channel}/verdicts/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	channel := chi.URLParam(req, "channel")
	id := chi.URLParam(req, "id")

	verdict, err := r.svc.Get(req.Context(), channel, id)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(verdict)
}

// GET /v1/{channel}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	channel := chi.URLParam(req, "channel")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.svc.Summary(req.Context(), channel, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}

func badRequest(w http.ResponseWriter, err error) error {
	http.Error(w, err.Error(), http.StatusBadRequest)
	return nil
}
