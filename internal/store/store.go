package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yuchdev/subswap/internal/artifact"
	"github.com/yuchdev/subswap/internal/types"
)

// Store manages the PostgreSQL connection holding scan results: probed
// video metadata, raw detections and resolved subtitle segments.
type Store struct {
	conn *pgx.Conn
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the necessary tables if they don't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS video_metadata (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL,
			fps DOUBLE PRECISION NOT NULL,
			frame_count INT NOT NULL,
			sample_stride INT NOT NULL,
			indexed_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS detections (
			id BIGSERIAL PRIMARY KEY,
			video_id TEXT REFERENCES video_metadata(id) ON DELETE CASCADE,
			frame_index INT NOT NULL,
			text TEXT NOT NULL,
			x INT NOT NULL,
			y INT NOT NULL,
			w INT NOT NULL,
			h INT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL
		);
		CREATE TABLE IF NOT EXISTS segments (
			id BIGSERIAL PRIMARY KEY,
			video_id TEXT REFERENCES video_metadata(id) ON DELETE CASCADE,
			start_frame INT NOT NULL,
			end_frame INT NOT NULL,
			text TEXT NOT NULL,
			x INT NOT NULL,
			y INT NOT NULL,
			w INT NOT NULL,
			h INT NOT NULL,
			source_lang TEXT NOT NULL DEFAULT '',
			translated_text TEXT NOT NULL DEFAULT '',
			members JSONB NOT NULL DEFAULT '[]'
		);
		CREATE INDEX IF NOT EXISTS detections_video_id_idx ON detections (video_id, frame_index);
		CREATE INDEX IF NOT EXISTS segments_video_id_idx ON segments (video_id, start_frame);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// EnsureVideoMetadata registers the video in the database. Re-scanning a
// known video wipes its previous detections and segments first, so the
// operation stays idempotent.
func (s *Store) EnsureVideoMetadata(ctx context.Context, v artifact.VideoInfo) error {
	if _, err := s.conn.Exec(ctx, "DELETE FROM detections WHERE video_id = $1", v.ID); err != nil {
		return err
	}
	if _, err := s.conn.Exec(ctx, "DELETE FROM segments WHERE video_id = $1", v.ID); err != nil {
		return err
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO video_metadata (id, path, width, height, fps, frame_count, sample_stride, indexed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			indexed_at = NOW(),
			path = EXCLUDED.path,
			width = EXCLUDED.width,
			height = EXCLUDED.height,
			fps = EXCLUDED.fps,
			frame_count = EXCLUDED.frame_count,
			sample_stride = EXCLUDED.sample_stride
	`, v.ID, v.Path, v.Width, v.Height, v.FPS, v.FrameCount, v.SampleStride)
	return err
}

// GetVideoMetadata loads a previously scanned video by ID.
func (s *Store) GetVideoMetadata(ctx context.Context, videoID string) (artifact.VideoInfo, error) {
	var v artifact.VideoInfo
	err := s.conn.QueryRow(ctx, `
		SELECT id, path, width, height, fps, frame_count, sample_stride
		FROM video_metadata WHERE id = $1
	`, videoID).Scan(&v.ID, &v.Path, &v.Width, &v.Height, &v.FPS, &v.FrameCount, &v.SampleStride)
	if err == pgx.ErrNoRows {
		return v, fmt.Errorf("video %s has not been scanned yet", videoID)
	}
	return v, err
}

// InsertDetections saves the raw per-frame OCR output in one batch.
func (s *Store) InsertDetections(ctx context.Context, videoID string, detections []types.Detection) error {
	batch := &pgx.Batch{}
	for _, d := range detections {
		batch.Queue(`
			INSERT INTO detections (video_id, frame_index, text, x, y, w, h, confidence)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, videoID, d.FrameIndex, d.Text, d.Box.X, d.Box.Y, d.Box.W, d.Box.H, d.Confidence)
	}
	return s.conn.SendBatch(ctx, batch).Close()
}

// ListDetections returns a video's detections ordered by frame.
func (s *Store) ListDetections(ctx context.Context, videoID string) ([]types.Detection, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT frame_index, text, x, y, w, h, confidence
		FROM detections WHERE video_id = $1 ORDER BY frame_index, id
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Detection
	for rows.Next() {
		var d types.Detection
		if err := rows.Scan(&d.FrameIndex, &d.Text, &d.Box.X, &d.Box.Y, &d.Box.W, &d.Box.H, &d.Confidence); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertSegments saves resolved subtitle segments. Member observations go
// into a JSONB column so re-grouping does not need the detections table.
func (s *Store) InsertSegments(ctx context.Context, videoID string, segments []types.Segment) error {
	batch := &pgx.Batch{}
	for _, seg := range segments {
		batch.Queue(`
			INSERT INTO segments (video_id, start_frame, end_frame, text, x, y, w, h, source_lang, translated_text, members)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, videoID, seg.StartFrame, seg.EndFrame, seg.Text,
			seg.Box.X, seg.Box.Y, seg.Box.W, seg.Box.H,
			seg.SourceLang, seg.Translated, seg.Members)
	}
	return s.conn.SendBatch(ctx, batch).Close()
}

// ListSegments returns a video's segments ordered by start frame.
func (s *Store) ListSegments(ctx context.Context, videoID string) ([]types.Segment, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, start_frame, end_frame, text, x, y, w, h, source_lang, translated_text, members
		FROM segments WHERE video_id = $1 ORDER BY start_frame, id
	`, videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Segment
	for rows.Next() {
		var seg types.Segment
		if err := rows.Scan(&seg.ID, &seg.StartFrame, &seg.EndFrame, &seg.Text,
			&seg.Box.X, &seg.Box.Y, &seg.Box.W, &seg.Box.H,
			&seg.SourceLang, &seg.Translated, &seg.Members); err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

// UpdateSegmentTranslation stores the translation (and detected source
// language) for one segment, matched by its row id. Same-span segments from
// different screen regions stay independent.
func (s *Store) UpdateSegmentTranslation(ctx context.Context, videoID string, seg types.Segment) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE segments SET source_lang = $1, translated_text = $2
		WHERE video_id = $3 AND id = $4
	`, seg.SourceLang, seg.Translated, videoID, seg.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no segment [%d, %d] found for video %s", seg.StartFrame, seg.EndFrame, videoID)
	}
	return nil
}

// Reset drops all application tables to clear the database state.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS detections CASCADE;
		DROP TABLE IF EXISTS segments CASCADE;
		DROP TABLE IF EXISTS video_metadata CASCADE;
	`)
	return err
}
