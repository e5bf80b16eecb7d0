package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound reports an unknown session identifier.
var ErrSessionNotFound = errors.New("mount session not found")

// Session is one recorded mount.
type Session struct {
	ID         string     `json:"id"`
	Device     string     `json:"device"`
	MountPoint string     `json:"mount_point"`
	Platform   string     `json:"platform"`
	CreatedDir bool       `json:"created_dir"`
	Reused     bool       `json:"reused"`
	MountedAt  time.Time  `json:"mounted_at"`
	Unmounted  *time.Time `json:"unmounted_at,omitempty"`
	Cleaned    *time.Time `json:"cleaned_at,omitempty"`
}

// Open reports whether the session has not been unmounted.
func (s Session) Open() bool {
	return s.Unmounted == nil
}

// State summarises the session lifecycle for display.
func (s Session) State() string {
	switch {
	case s.Cleaned != nil:
		return "cleaned"
	case s.Unmounted != nil:
		return "unmounted"
	default:
		return "mounted"
	}
}

const sessionColumns = `id, device, mount_point, platform, created_dir, reused, mounted_at, unmounted_at, cleaned_at`

// StartSession records a new mount and returns it with its identifier and
// timestamp filled in.
func (s *Store) StartSession(ctx context.Context, session Session) (Session, error) {
	session.ID = uuid.NewString()
	session.MountedAt = s.now().UTC()
	session.Unmounted = nil
	session.Cleaned = nil

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mount_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL)`,
		session.ID,
		session.Device,
		session.MountPoint,
		session.Platform,
		boolToInt(session.CreatedDir),
		boolToInt(session.Reused),
		session.MountedAt.Format(timeLayout),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert mount session: %w", err)
	}
	return session, nil
}

// EndSessions marks every open session at mountPoint as unmounted and
// returns how many were closed.
func (s *Store) EndSessions(ctx context.Context, mountPoint string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mount_sessions SET unmounted_at = ? WHERE mount_point = ? AND unmounted_at IS NULL`,
		s.timestamp(), mountPoint,
	)
	if err != nil {
		return 0, fmt.Errorf("end mount sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// MarkCleaned records that the session's mount point directory was removed.
func (s *Store) MarkCleaned(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE mount_sessions SET cleaned_at = ? WHERE id = ?`,
		s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("mark session cleaned: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Get fetches a session by identifier.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM mount_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get mount session: %w", err)
	}
	return session, nil
}

// History returns the most recent sessions, newest first. A limit <= 0
// returns all of them.
func (s *Store) History(ctx context.Context, limit int) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM mount_sessions ORDER BY mounted_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.querySessions(ctx, query, args...)
}

// OpenSessions returns sessions that have not been unmounted, oldest first.
func (s *Store) OpenSessions(ctx context.Context) ([]Session, error) {
	return s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM mount_sessions WHERE unmounted_at IS NULL ORDER BY mounted_at, rowid`)
}

// PendingCleanup returns unmounted sessions whose mount point directory was
// created by shuttle and has not been removed yet.
func (s *Store) PendingCleanup(ctx context.Context) ([]Session, error) {
	return s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM mount_sessions
         WHERE created_dir = 1 AND unmounted_at IS NOT NULL AND cleaned_at IS NULL
         ORDER BY mounted_at, rowid`)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mount sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mount session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mount sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		session    Session
		createdDir int
		reused     int
		mountedAt  string
		unmounted  sql.NullString
		cleaned    sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.Device,
		&session.MountPoint,
		&session.Platform,
		&createdDir,
		&reused,
		&mountedAt,
		&unmounted,
		&cleaned,
	); err != nil {
		return Session{}, err
	}
	session.CreatedDir = createdDir != 0
	session.Reused = reused != 0

	var err error
	if session.MountedAt, err = parseTime(strings.TrimSpace(mountedAt)); err != nil {
		return Session{}, fmt.Errorf("parse mounted_at: %w", err)
	}
	if session.Unmounted, err = parseNullTime(unmounted); err != nil {
		return Session{}, fmt.Errorf("parse unmounted_at: %w", err)
	}
	if session.Cleaned, err = parseNullTime(cleaned); err != nil {
		return Session{}, fmt.Errorf("parse cleaned_at: %w", err)
	}
	return session, nil
}
