// Package sqlite provides the SQLite-backed durable store implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/CallMeTrinity/sae501-api-server/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'waiting',
	players_number INTEGER NOT NULL DEFAULT 0,
	host_id TEXT NOT NULL DEFAULT '',
	killer_id INTEGER NOT NULL DEFAULT 0,
	killer_type TEXT NOT NULL DEFAULT '',
	hints_left INTEGER NOT NULL DEFAULT 0,
	active_player_index INTEGER NOT NULL DEFAULT 0,
	questions TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_code ON sessions(code);

CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	solution TEXT NOT NULL DEFAULT '',
	feedback TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_questions_type_active ON questions(type, active);

CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	skin TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS suspects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS suspect_hints (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	suspect_id INTEGER NOT NULL REFERENCES suspects(id),
	hint_text TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_suspect_hints_suspect ON suspect_hints(suspect_id);
`

// Store persists game state in SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if necessary) a SQLite store at path and bootstraps
// the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Sessions

const sessionColumns = `id, code, status, players_number, host_id, killer_id, killer_type,
	hints_left, active_player_index, questions, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*store.SessionRecord, error) {
	var rec store.SessionRecord
	var answered string
	var created, updated int64
	err := row.Scan(&rec.ID, &rec.Code, &rec.Status, &rec.PlayersNumber, &rec.HostID,
		&rec.KillerID, &rec.KillerType, &rec.HintsLeft, &rec.ActivePlayerIndex,
		&answered, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if err := json.Unmarshal([]byte(answered), &rec.AnsweredQuestionIDs); err != nil {
		return nil, fmt.Errorf("decode answered question ids: %w", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	return &rec, nil
}

// GetSession returns one session snapshot by id.
func (s *Store) GetSession(ctx context.Context, id string) (*store.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetSessionByCode returns the first session snapshot matching a join code.
func (s *Store) GetSessionByCode(ctx context.Context, code string) (*store.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE code = ? LIMIT 1`, code)
	return scanSession(row)
}

// ListSessions returns all session snapshots.
func (s *Store) ListSessions(ctx context.Context) ([]*store.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*store.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateSession inserts one session snapshot.
func (s *Store) CreateSession(ctx context.Context, rec *store.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	answered := rec.AnsweredQuestionIDs
	if answered == nil {
		answered = []int{}
	}
	encoded, err := json.Marshal(answered)
	if err != nil {
		return fmt.Errorf("encode answered question ids: %w", err)
	}
	now := time.Now()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Code, rec.Status, rec.PlayersNumber, rec.HostID,
		rec.KillerID, rec.KillerType, rec.HintsLeft, rec.ActivePlayerIndex,
		string(encoded), toMillis(createdAt), toMillis(now))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SaveTurnState persists the active-player index and the cumulative
// answered-question id list for a session.
func (s *Store) SaveTurnState(ctx context.Context, sessionID string, activePlayerIndex int, answeredIDs []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if answeredIDs == nil {
		answeredIDs = []int{}
	}
	encoded, err := json.Marshal(answeredIDs)
	if err != nil {
		return fmt.Errorf("encode answered question ids: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET active_player_index = ?, questions = ?, updated_at = ? WHERE id = ?`,
		activePlayerIndex, string(encoded), toMillis(time.Now()), sessionID)
	if err != nil {
		return fmt.Errorf("save turn state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Questions

func scanQuestion(row interface{ Scan(...any) error }) (store.Question, error) {
	var q store.Question
	var active int
	err := row.Scan(&q.ID, &q.Type, &q.Content, &q.Solution, &q.Feedback, &active)
	if err != nil {
		return q, err
	}
	q.Active = active != 0
	return q, nil
}

// GetQuestion returns one question by id.
func (s *Store) GetQuestion(ctx context.Context, id int) (*store.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, content, solution, feedback, active FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

// QuestionsByIDs returns the questions for the given ids, skipping ids that
// no longer exist.
func (s *Store) QuestionsByIDs(ctx context.Context, ids []int) ([]store.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, solution, feedback, active FROM questions WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("questions by ids: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ListActiveQuestions returns every active question.
func (s *Store) ListActiveQuestions(ctx context.Context) ([]store.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, solution, feedback, active FROM questions WHERE active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list active questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// ActiveUnanswered returns active questions of the given types excluding the
// already-answered ids. Exclusion happens at the query so a question id is
// never selected twice within one session.
func (s *Store) ActiveUnanswered(ctx context.Context, types []string, exclude []int) ([]store.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, nil
	}
	var sb strings.Builder
	sb.WriteString(`SELECT id, type, content, solution, feedback, active FROM questions WHERE active = 1 AND type IN (`)
	args := make([]any, 0, len(types)+len(exclude))
	for i, t := range types {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("?")
		args = append(args, t)
	}
	sb.WriteString(")")
	if len(exclude) > 0 {
		sb.WriteString(" AND id NOT IN (")
		for i, id := range exclude {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("?")
			args = append(args, id)
		}
		sb.WriteString(")")
	}
	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("active unanswered questions: %w", err)
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func collectQuestions(rows *sql.Rows) ([]store.Question, error) {
	var out []store.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Players

// SavePlayer upserts a durable player identity.
func (s *Store) SavePlayer(ctx context.Context, p *store.PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO players (id, name, skin) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, skin = excluded.skin`,
		p.ID, p.Name, p.Skin)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

// Suspects

// ListSuspects returns all suspects.
func (s *Store) ListSuspects(ctx context.Context) ([]store.Suspect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM suspects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list suspects: %w", err)
	}
	defer rows.Close()

	var out []store.Suspect
	for rows.Next() {
		var sp store.Suspect
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Description); err != nil {
			return nil, fmt.Errorf("scan suspect: %w", err)
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// SuspectHints returns the hints attached to one suspect.
func (s *Store) SuspectHints(ctx context.Context, suspectID int) ([]store.SuspectHint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, suspect_id, hint_text FROM suspect_hints WHERE suspect_id = ? ORDER BY id`, suspectID)
	if err != nil {
		return nil, fmt.Errorf("suspect hints: %w", err)
	}
	defer rows.Close()

	var out []store.SuspectHint
	for rows.Next() {
		var h store.SuspectHint
		if err := rows.Scan(&h.ID, &h.SuspectID, &h.HintText); err != nil {
			return nil, fmt.Errorf("scan suspect hint: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Seeding helpers used by tests and local tooling.

// InsertQuestion inserts one question and returns its id.
func (s *Store) InsertQuestion(ctx context.Context, q store.Question) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	active := 0
	if q.Active {
		active = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (type, content, solution, feedback, active) VALUES (?, ?, ?, ?, ?)`,
		q.Type, q.Content, q.Solution, q.Feedback, active)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert question id: %w", err)
	}
	return int(id), nil
}

// InsertSuspect inserts one suspect and returns its id.
func (s *Store) InsertSuspect(ctx context.Context, sp store.Suspect) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO suspects (name, description) VALUES (?, ?)`, sp.Name, sp.Description)
	if err != nil {
		return 0, fmt.Errorf("insert suspect: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert suspect id: %w", err)
	}
	return int(id), nil
}

// InsertSuspectHint inserts one hint for a suspect.
func (s *Store) InsertSuspectHint(ctx context.Context, suspectID int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suspect_hints (suspect_id, hint_text) VALUES (?, ?)`, suspectID, text)
	if err != nil {
		return fmt.Errorf("insert suspect hint: %w", err)
	}
	return nil
}
