// Package db provides SQLite storage for schedule blocks, recurrence
// patterns, pending review batches, and the change journal.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nidoapp/nido/internal/approval"
	"github.com/nidoapp/nido/internal/change"
	"github.com/nidoapp/nido/internal/journal"
	"github.com/nidoapp/nido/internal/recurrence"
	"github.com/nidoapp/nido/internal/schedule"
	"github.com/nidoapp/nido/internal/slotclock"
)

// SQLite is the persistence collaborator: the engine only relies on the
// load/save contract and treats each call as atomic.
type SQLite struct {
	db *sql.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadBlocks returns every stored time block.
func (s *SQLite) LoadBlocks(ctx context.Context) ([]*schedule.TimeBlock, error) {
	query := `
		SELECT id, date, start_slot, end_slot, provider, note
		FROM blocks
		ORDER BY date, start_slot
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []*schedule.TimeBlock
	for rows.Next() {
		var (
			b          schedule.TimeBlock
			date       string
			start, end int
		)
		if err := rows.Scan(&b.ID, &date, &start, &end, &b.Provider, &b.Note); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		b.Date, err = parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parsing block date: %w", err)
		}
		b.Start = slotclock.Slot(start)
		b.End = slotclock.Slot(end)
		blocks = append(blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blocks: %w", err)
	}

	return blocks, nil
}

// SaveBlocks replaces the stored schedule with the given blocks in a
// single transaction.
func (s *SQLite) SaveBlocks(ctx context.Context, blocks []*schedule.TimeBlock) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return fmt.Errorf("clearing blocks: %w", err)
	}

	query := `
		INSERT INTO blocks (id, date, start_slot, end_slot, provider, note)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, b := range blocks {
		_, err := stmt.ExecContext(ctx,
			b.ID,
			b.Date.Format("2006-01-02"),
			int(b.Start),
			int(b.End),
			b.Provider,
			b.Note,
		)
		if err != nil {
			return fmt.Errorf("inserting block %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// SavePattern inserts or replaces a recurrence pattern.
func (s *SQLite) SavePattern(ctx context.Context, p *recurrence.Pattern) error {
	var until any
	if p.Until != nil {
		until = p.Until.Format("2006-01-02")
	}

	query := `
		INSERT OR REPLACE INTO patterns (id, weekdays, start_slot, end_slot, provider, from_date, until_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		encodeWeekdays(p.Weekdays),
		int(p.Start),
		int(p.End),
		p.Provider,
		p.From.Format("2006-01-02"),
		until,
	)
	if err != nil {
		return fmt.Errorf("saving pattern: %w", err)
	}
	return nil
}

// ListPatterns returns every stored recurrence pattern.
func (s *SQLite) ListPatterns(ctx context.Context) ([]*recurrence.Pattern, error) {
	query := `
		SELECT id, weekdays, start_slot, end_slot, provider, from_date, until_date
		FROM patterns
		ORDER BY from_date
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []*recurrence.Pattern
	for rows.Next() {
		var (
			p          recurrence.Pattern
			weekdays   string
			start, end int
			from       string
			until      sql.NullString
		)
		if err := rows.Scan(&p.ID, &weekdays, &start, &end, &p.Provider, &from, &until); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}
		p.Weekdays, err = decodeWeekdays(weekdays)
		if err != nil {
			return nil, fmt.Errorf("parsing pattern weekdays: %w", err)
		}
		p.Start = slotclock.Slot(start)
		p.End = slotclock.Slot(end)
		p.From, err = parseDate(from)
		if err != nil {
			return nil, fmt.Errorf("parsing pattern start date: %w", err)
		}
		if until.Valid {
			u, err := parseDate(until.String)
			if err != nil {
				return nil, fmt.Errorf("parsing pattern end date: %w", err)
			}
			p.Until = &u
		}
		patterns = append(patterns, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}

	return patterns, nil
}

// DeletePattern removes a pattern by id.
func (s *SQLite) DeletePattern(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting pattern: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("pattern %s not found", id)
	}
	return nil
}

// SaveWorkflow inserts or updates a review workflow so pending batches
// survive process restarts. The batch travels as a JSON payload.
func (s *SQLite) SaveWorkflow(ctx context.Context, w *approval.Workflow) error {
	payload, err := json.Marshal(w.Batch())
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO reviews (id, state, summary, payload, failure, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		w.ID(),
		string(w.State()),
		w.Batch().Summary,
		string(payload),
		w.Failure(),
		w.CreatedAt().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// LoadWorkflows rehydrates every stored review workflow, oldest first.
func (s *SQLite) LoadWorkflows(ctx context.Context) ([]*approval.Workflow, error) {
	query := `
		SELECT id, state, payload, failure, created_at
		FROM reviews
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var workflows []*approval.Workflow
	for rows.Next() {
		var (
			id, state, payload, failure string
			createdAt                   string
		)
		if err := rows.Scan(&id, &state, &payload, &failure, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}

		var batch change.Batch
		if err := json.Unmarshal([]byte(payload), &batch); err != nil {
			return nil, fmt.Errorf("decoding batch payload: %w", err)
		}

		created, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing review timestamp: %w", err)
		}

		workflows = append(workflows, approval.Restore(id, approval.State(state), batch, failure, created))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}

	return workflows, nil
}

// Append stores a journal entry and fills in its ID and CreatedAt.
// Implements journal.Recorder.
func (s *SQLite) Append(ctx context.Context, entry *journal.Entry) error {
	dates := make([]string, len(entry.AffectedDates))
	for i, d := range entry.AffectedDates {
		dates[i] = d.Format("2006-01-02")
	}
	datesJSON, err := json.Marshal(dates)
	if err != nil {
		return fmt.Errorf("encoding affected dates: %w", err)
	}
	shiftJSON, err := json.Marshal(entry.BalanceShift)
	if err != nil {
		return fmt.Errorf("encoding balance shift: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO journal (created_at, actor, instruction, ai_summary, applied_count, affected_dates, balance_shift)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		now.Format(time.RFC3339),
		entry.Actor,
		entry.Instruction,
		entry.AISummary,
		entry.AppliedCount,
		string(datesJSON),
		string(shiftJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now

	return nil
}

// List returns the most recent journal entries, newest first.
// Implements journal.Recorder.
func (s *SQLite) List(ctx context.Context, limit int) ([]*journal.Entry, error) {
	query := `
		SELECT id, created_at, actor, instruction, ai_summary, applied_count, affected_dates, balance_shift
		FROM journal
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*journal.Entry
	for rows.Next() {
		var (
			e                    journal.Entry
			createdAt            string
			datesJSON, shiftJSON string
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Actor, &e.Instruction, &e.AISummary, &e.AppliedCount, &datesJSON, &shiftJSON); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}

		e.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp: %w", err)
		}

		var dates []string
		if err := json.Unmarshal([]byte(datesJSON), &dates); err != nil {
			return nil, fmt.Errorf("decoding affected dates: %w", err)
		}
		for _, d := range dates {
			parsed, err := parseDate(d)
			if err != nil {
				return nil, fmt.Errorf("parsing affected date: %w", err)
			}
			e.AffectedDates = append(e.AffectedDates, parsed)
		}

		if err := json.Unmarshal([]byte(shiftJSON), &e.BalanceShift); err != nil {
			return nil, fmt.Errorf("decoding balance shift: %w", err)
		}

		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}

	return entries, nil
}

// encodeWeekdays serializes a weekday set as comma-separated ints.
func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

// decodeWeekdays parses the comma-separated weekday encoding.
func decodeWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday value %q", part)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

// parseDate parses a date string in the formats SQLite might return.
// Date-only values are parsed in local timezone to match time.Now()
// based dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}

	// SQLite returns DATE columns as "2006-01-02T00:00:00Z"; extract the
	// date part and treat it as local midnight.
	if len(s) == 20 && s[10] == 'T' && s[19] == 'Z' {
		if t, err := time.ParseInLocation("2006-01-02", s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	for _, f := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
