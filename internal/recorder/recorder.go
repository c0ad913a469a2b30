// Package recorder ties the scene session, the keyframe store and the
// session catalog together into the per-request recording pipeline.
package recorder

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/nepfaff/drake-blender-recorder/internal/catalog"
	"github.com/nepfaff/drake-blender-recorder/internal/keyframe"
	"github.com/nepfaff/drake-blender-recorder/internal/render"
	"github.com/nepfaff/drake-blender-recorder/internal/scene"
)

// Recorder owns the only mutable recording state: the scene session, the
// frame store and the exported-snapshot flag. All requests are serialized
// through its mutex; the underlying session is not safe for concurrent
// use and the protocol is explicitly single-threaded.
type Recorder struct {
	mu       sync.Mutex
	session  *scene.Session
	store    *keyframe.Store
	repo     catalog.Repository
	logger   *slog.Logger
	exportTo string
	exported bool
}

// Config wires a Recorder. Repository may be nil in tests; catalog
// logging is then skipped.
type Config struct {
	Session    *scene.Session
	Store      *keyframe.Store
	Repository catalog.Repository
	ExportPath string
	Logger     *slog.Logger
}

func New(cfg Config) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		session:  cfg.Session,
		store:    cfg.Store,
		repo:     cfg.Repository,
		logger:   logger,
		exportTo: cfg.ExportPath,
	}
}

// Record runs one render request to completion: import the scene, append
// the captured poses, persist the frame list, export the project snapshot
// after the first frame, and log the frame to the catalog. On error the
// frame list is left exactly as it was.
func (r *Recorder) Record(ctx context.Context, params *render.Params) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame, err := r.session.Capture(params.Scene)
	if err != nil {
		return 0, err
	}

	// The snapshot is exported before the frame list is persisted: a
	// failed export fails the whole request, and a failed request must
	// leave the durable frame list exactly as it was.
	if !r.exported {
		if err := r.session.ExportProject(r.exportTo); err != nil {
			return 0, fmt.Errorf("failed to export project snapshot: %w", err)
		}
		r.exported = true
		r.logger.Info("exported project snapshot", "path", r.exportTo)
	}

	if err := r.store.Append(frame); err != nil {
		return 0, err
	}
	idx := r.store.Len() - 1

	if r.repo != nil {
		rec := &catalog.FrameRecord{
			Idx:         idx,
			SceneSHA256: params.SceneSHA256,
			ImageType:   params.ImageType,
			Width:       params.Width,
			Height:      params.Height,
			ObjectCount: len(frame),
			ReceivedAt:  time.Now().UTC(),
		}
		if err := r.repo.LogFrame(ctx, rec); err != nil {
			// The catalog is supplemental; a failed log never fails the
			// request or desyncs the frame list.
			r.logger.Warn("failed to log frame to catalog", "error", err, "frame", idx)
		}
	}

	r.logger.Info("saved keyframe", "frame", r.store.Len(), "objects", len(frame))
	return idx, nil
}

// FrameCount returns the number of recorded frames.
func (r *Recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Len()
}

// Exported reports whether the project snapshot has been written.
func (r *Recorder) Exported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exported
}

// Background returns the placeholder background from the session's
// effective settings.
func (r *Recorder) Background() color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Background()
}

// DumpPath returns the frame-list dump path.
func (r *Recorder) DumpPath() string {
	return r.store.Path()
}

// ExportPath returns the project snapshot path.
func (r *Recorder) ExportPath() string {
	return r.exportTo
}
