package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nepfaff/drake-blender-recorder/internal/db"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestLogFrame_AndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.LogFrame(ctx, &FrameRecord{
			Idx:         i,
			SceneSHA256: "abc123",
			ImageType:   "color",
			Width:       64,
			Height:      48,
			ObjectCount: 2,
			ReceivedAt:  time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("LogFrame(%d) error = %v", i, err)
		}
	}

	count, err := repo.CountFrames(ctx)
	if err != nil {
		t.Fatalf("CountFrames() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountFrames() = %d, want 3", count)
	}

	frames, err := repo.ListFrames(ctx)
	if err != nil {
		t.Fatalf("ListFrames() error = %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Idx != i {
			t.Errorf("frames[%d].Idx = %d, want %d", i, f.Idx, i)
		}
	}
	if frames[0].Width != 64 || frames[0].Height != 48 {
		t.Errorf("frames[0] size = %dx%d, want 64x48", frames[0].Width, frames[0].Height)
	}
}

func TestLogFrame_DuplicateIndexRejected(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := &FrameRecord{Idx: 0, SceneSHA256: "x", ImageType: "color", ReceivedAt: time.Now()}
	if err := repo.LogFrame(ctx, rec); err != nil {
		t.Fatalf("LogFrame() error = %v", err)
	}
	if err := repo.LogFrame(ctx, rec); err == nil {
		t.Fatal("expected duplicate idx to be rejected, got nil")
	}
}

func TestConfig_RoundTripAndUpsert(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	got, err := repo.GetConfig(ctx, "device_id")
	if err != nil {
		t.Fatalf("GetConfig() on empty table error = %v", err)
	}
	if got != "" {
		t.Errorf("GetConfig() = %q, want empty", got)
	}

	if err := repo.SetConfig(ctx, "device_id", "abc"); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}
	if err := repo.SetConfig(ctx, "device_id", "def"); err != nil {
		t.Fatalf("SetConfig() upsert error = %v", err)
	}

	got, err = repo.GetConfig(ctx, "device_id")
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got != "def" {
		t.Errorf("GetConfig() = %q, want def", got)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
