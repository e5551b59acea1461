package publish

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const createFixesTable = `
CREATE TABLE IF NOT EXISTS fixes (
	id BIGSERIAL PRIMARY KEY,
	session TEXT NOT NULL,
	sentence_type TEXT NOT NULL,
	received_at TIMESTAMPTZ NOT NULL,
	fix_time TIMESTAMPTZ,
	valid BOOLEAN NOT NULL,
	lat_deg DOUBLE PRECISION NOT NULL,
	lon_deg DOUBLE PRECISION NOT NULL,
	altitude_m DOUBLE PRECISION NOT NULL,
	speed_kph DOUBLE PRECISION NOT NULL,
	heading_deg DOUBLE PRECISION NOT NULL,
	hdop DOUBLE PRECISION NOT NULL,
	vdop DOUBLE PRECISION NOT NULL,
	satellites INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fixes_session_received ON fixes (session, received_at);`

const insertFix = `INSERT INTO fixes
	(session, sentence_type, received_at, fix_time, valid, lat_deg, lon_deg,
	 altitude_m, speed_kph, heading_deg, hdop, vdop, satellites)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Postgres appends every published fix to the fixes table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresWithDB(db), nil
}

// NewPostgresWithDB wraps an open handle (useful for testing).
func NewPostgresWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the fixes table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createFixesTable); err != nil {
		return fmt.Errorf("failed to create fixes table: %w", err)
	}
	return nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Publish(ctx context.Context, msg Message) error {
	var fixTime sql.NullTime
	if t := msg.Fix.Time(); !t.IsZero() {
		fixTime = sql.NullTime{Time: t, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, insertFix,
		msg.Session,
		msg.Type.String(),
		msg.ReceivedUTC,
		fixTime,
		msg.Fix.Valid,
		msg.LatDeg,
		msg.LonDeg,
		msg.Fix.AltitudeM,
		msg.Fix.SpeedKph,
		msg.Fix.HeadingDeg,
		msg.Fix.HDOP,
		msg.Fix.VDOP,
		int64(msg.Fix.Satellites),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fix: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
