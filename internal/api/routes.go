package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nepfaff/drake-blender-recorder/internal/render"
)

const bannerHTML = `<!doctype html>
<html><body><h1>Drake Pose Recording Server</h1></body></html>
`

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/", bannerHandler())
	r.Post("/render", renderHandler(cfg))
	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/frames", listFramesHandler(cfg))
	})

	return r
}

// bannerHandler displays a banner page at the server root.
func bannerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(bannerHTML))
	}
}

// renderHandler accepts a render request and returns the generated image.
//
// In practice the handler records the scene's object poses as a keyframe
// and returns a placeholder image to satisfy the caller; no rendering
// happens. Every failure maps to the same 500 payload, and no partial
// frame survives a failed request.
func renderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := render.ParseRequest(r, cfg.ScratchDir)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
			return
		}
		// The uploaded scene is only needed for this one request.
		defer os.Remove(params.Scene)

		if _, err := cfg.Recorder.Record(r.Context(), params); err != nil {
			WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
			return
		}

		img := render.Placeholder(params.Width, params.Height, cfg.Recorder.Background())
		w.Header().Set("Content-Type", "image/png")
		if err := render.EncodePNG(w, img); err != nil {
			cfg.Logger.Error("failed to write placeholder image", "error", err)
		}
	}
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := "idle"
		frames := cfg.Recorder.FrameCount()
		if frames > 0 {
			state = "recording"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:          state,
			FramesRecorded: frames,
			DumpPath:       cfg.Recorder.DumpPath(),
			ExportPath:     cfg.Recorder.ExportPath(),
			Exported:       cfg.Recorder.Exported(),
		})
	}
}

func listFramesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.Repository.ListFrames(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list frames")
			return
		}

		resp := FramesResponse{Frames: make([]FrameResponse, len(records))}
		for i, rec := range records {
			resp.Frames[i] = FrameToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
