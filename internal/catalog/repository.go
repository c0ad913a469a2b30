package catalog

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	LogFrame(ctx context.Context, frame *FrameRecord) error
	ListFrames(ctx context.Context) ([]*FrameRecord, error)
	CountFrames(ctx context.Context) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) LogFrame(ctx context.Context, f *FrameRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO frames (idx, scene_sha256, image_type, width, height, object_count, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.Idx, f.SceneSHA256, f.ImageType, f.Width, f.Height, f.ObjectCount, f.ReceivedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) ListFrames(ctx context.Context) ([]*FrameRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT idx, scene_sha256, image_type, width, height, object_count, received_at
		FROM frames ORDER BY idx ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []*FrameRecord
	for rows.Next() {
		var f FrameRecord
		var receivedAt string

		if err := rows.Scan(&f.Idx, &f.SceneSHA256, &f.ImageType, &f.Width, &f.Height, &f.ObjectCount, &receivedAt); err != nil {
			return nil, err
		}
		f.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
		frames = append(frames, &f)
	}
	return frames, rows.Err()
}

func (r *SQLiteRepository) CountFrames(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM frames").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
