package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"solar-orrery/simulator/simulation"
)

// Recorder receives intent outcomes and speed changes, e.g. for metrics.
type Recorder interface {
	RecordIntent(intent string, err error)
	ObserveSpeeds(states []simulation.BodyState)
}

// Notifier announces applied intents to other services.
type Notifier interface {
	Notify(ctx context.Context, kind, body string)
}

type Handler struct {
	driver   *simulation.Driver
	frames   *simulation.FrameBuffer
	recorder Recorder
	notifier Notifier
	limiter  *IPRateLimiter
	stream   http.Handler
}

type Option func(*Handler)

func WithRecorder(r Recorder) Option { return func(h *Handler) { h.recorder = r } }

func WithNotifier(n Notifier) Option { return func(h *Handler) { h.notifier = n } }

func WithRateLimiter(l *IPRateLimiter) Option { return func(h *Handler) { h.limiter = l } }

// WithStream mounts a frame stream (see Hub) at /stream.
func WithStream(s http.Handler) Option { return func(h *Handler) { h.stream = s } }

func New(driver *simulation.Driver, frames *simulation.FrameBuffer, opts ...Option) *Handler {
	h := &Handler{driver: driver, frames: frames}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /positions", h.GetPositions)
	mux.HandleFunc("GET /bodies", h.GetBodies)
	mux.HandleFunc("GET /bodies/{name}", h.GetBody)
	mux.HandleFunc("GET /limits", h.GetLimits)
	mux.Handle("POST /bodies/{name}/speed", h.limit(http.HandlerFunc(h.SetSpeed)))
	mux.Handle("POST /bodies/{name}/reset", h.limit(http.HandlerFunc(h.ResetSpeed)))
	mux.Handle("POST /reset", h.limit(http.HandlerFunc(h.ResetAll)))
	mux.Handle("POST /pause", h.limit(http.HandlerFunc(h.TogglePause)))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if h.stream != nil {
		mux.Handle("GET /stream", h.stream)
	}
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return h.limiter.Middleware(next)
}

func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.frames.Last())
}

func (h *Handler) GetBodies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.driver.Store().Snapshot())
}

func (h *Handler) GetBody(w http.ResponseWriter, r *http.Request) {
	state, err := h.driver.Store().State(r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) GetLimits(w http.ResponseWriter, r *http.Request) {
	store := h.driver.Store()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"min":    store.Limits().Min,
		"max":    store.Limits().Max,
		"policy": store.Policy().String(),
	})
}

type speedRequest struct {
	Speed *float64 `json:"speed"`
}

func (h *Handler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req speedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Speed == nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	_, err := h.driver.Store().SetSpeed(name, *req.Speed)
	h.applied(r.Context(), "speed", name, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.GetBody(w, r)
}

func (h *Handler) ResetSpeed(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := h.driver.Store().ResetSpeed(name)
	h.applied(r.Context(), "reset", name, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.GetBody(w, r)
}

func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	h.driver.Store().ResetAll()
	h.applied(r.Context(), "reset", "", nil)
	h.GetBodies(w, r)
}

func (h *Handler) TogglePause(w http.ResponseWriter, r *http.Request) {
	paused := h.driver.TogglePause()
	kind := "resume"
	if paused {
		kind = "pause"
	}
	h.applied(r.Context(), kind, "", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

func (h *Handler) applied(ctx context.Context, kind, body string, err error) {
	if h.recorder != nil {
		h.recorder.RecordIntent(kind, err)
		if err == nil {
			h.recorder.ObserveSpeeds(h.driver.Store().Snapshot())
		}
	}
	if err == nil && h.notifier != nil {
		h.notifier.Notify(ctx, kind, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("❌ Failed to write response:", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var unknown *simulation.UnknownBodyError
	var outOfRange *simulation.OutOfRangeSpeedError
	switch {
	case errors.As(err, &unknown):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &outOfRange):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
