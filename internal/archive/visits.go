package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/mpoapostolis/galerra-game-server/internal/gallery"
)

// VisitRepository writes completed room visits to Postgres for
// occupancy analytics. Inserts are best-effort; the room layer ignores
// failures.
type VisitRepository struct {
	db *sql.DB
}

func NewVisitRepository(databaseURL string) (*VisitRepository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &VisitRepository{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS gallery_visits (
    id         BIGSERIAL PRIMARY KEY,
    room_id    TEXT NOT NULL,
    session_id TEXT NOT NULL,
    user_id    TEXT,
    device_id  TEXT,
    name       TEXT,
    joined_at  TIMESTAMPTZ NOT NULL,
    left_at    TIMESTAMPTZ NOT NULL
)`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := db.ExecContext(ctx, ddl)
	return err
}

func (r *VisitRepository) SaveVisit(ctx context.Context, v gallery.Visit) error {
	if r == nil || r.db == nil {
		return nil
	}
	const q = `
INSERT INTO gallery_visits (room_id, session_id, user_id, device_id, name, joined_at, left_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		v.RoomID, v.SessionID, v.UserID, v.DeviceID, v.Name, v.JoinedAt, v.LeftAt)
	return err
}

func (r *VisitRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
