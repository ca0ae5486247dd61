package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Baehyeonu/classwatch/internal/types"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const participantColumns = `
	id, display_name, chat_handle, is_admin,
	is_cam_on, last_status_change, last_leave_time,
	status_kind, status_set_at, alarm_blocked_until, status_auto_reset,
	is_excused, excused_type,
	last_alert_sent, alert_count, last_absence_alert,
	last_admin_leave_alert, last_return_request,
	response_status, response_time,
	created_at, updated_at`

// timeArg encodes a timestamp as Unix milliseconds for storage; the zero
// time maps to NULL.
func timeArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

func columnTime(stmt *sqlite.Stmt, col int) time.Time {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return time.Time{}
	}
	millis := stmt.ColumnInt64(col)
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}

func scanParticipant(stmt *sqlite.Stmt) types.Participant {
	return types.Participant{
		ID:                  stmt.ColumnInt64(0),
		DisplayName:         stmt.ColumnText(1),
		ChatHandle:          stmt.ColumnText(2),
		IsAdmin:             stmt.ColumnInt64(3) != 0,
		CameraOn:            stmt.ColumnInt64(4) != 0,
		LastStatusChange:    columnTime(stmt, 5),
		LastLeaveTime:       columnTime(stmt, 6),
		Status:              types.StatusKind(stmt.ColumnText(7)),
		StatusSetAt:         columnTime(stmt, 8),
		AlarmBlockedUntil:   columnTime(stmt, 9),
		StatusAutoReset:     columnTime(stmt, 10),
		Excused:             stmt.ColumnInt64(11) != 0,
		ExcusedType:         types.ExcusedKind(stmt.ColumnText(12)),
		LastAlertSent:       columnTime(stmt, 13),
		AlertCount:          int(stmt.ColumnInt64(14)),
		LastAbsenceAlert:    columnTime(stmt, 15),
		LastAdminLeaveAlert: columnTime(stmt, 16),
		LastReturnRequest:   columnTime(stmt, 17),
		ResponseStatus:      stmt.ColumnText(18),
		ResponseTime:        columnTime(stmt, 19),
		CreatedAt:           columnTime(stmt, 20),
		UpdatedAt:           columnTime(stmt, 21),
	}
}

// Create registers a new participant. Registration is driven by external
// collaborators; the core only ever mutates existing rows.
func (s *Store) Create(ctx context.Context, displayName string, chatHandle string, isAdmin bool) (types.Participant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	now := time.Now().UTC()
	var handle any
	if chatHandle != "" {
		handle = chatHandle
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO participants (
			display_name, chat_handle, is_admin, last_status_change, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?);`,
		&sqlitex.ExecOptions{
			Args: []any{displayName, handle, isAdmin, now.UnixMilli(), now.UnixMilli(), now.UnixMilli()},
		})
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not create participant: %w", err)
	}

	return s.byQuery(conn, `SELECT`+participantColumns+` FROM participants WHERE id = last_insert_rowid();`)
}

func (s *Store) byQuery(conn *sqlite.Conn, query string, args ...any) (types.Participant, error) {
	var p types.Participant
	found := false

	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			p = scanParticipant(stmt)
			found = true
			return nil
		},
	})
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not query participant: %w", err)
	}
	if !found {
		return types.Participant{}, ErrNotFound
	}
	return p, nil
}

func (s *Store) ByID(ctx context.Context, id int64) (types.Participant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	return s.byQuery(conn, `SELECT`+participantColumns+` FROM participants WHERE id = ?;`, id)
}

func (s *Store) ByName(ctx context.Context, displayName string) (types.Participant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	return s.byQuery(conn, `SELECT`+participantColumns+` FROM participants WHERE display_name = ?;`, displayName)
}

func (s *Store) ByHandle(ctx context.Context, chatHandle string) (types.Participant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return types.Participant{}, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	return s.byQuery(conn, `SELECT`+participantColumns+` FROM participants WHERE chat_handle = ?;`, chatHandle)
}

// All returns every participant ordered by ID. The ascending order is relied
// on by the fuzzy-match tie-break, which picks the lowest ID among equally
// close names.
func (s *Store) All(ctx context.Context) ([]types.Participant, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	var all []types.Participant
	err = sqlitex.Execute(conn, `SELECT`+participantColumns+` FROM participants ORDER BY id;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				all = append(all, scanParticipant(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("could not list participants: %w", err)
	}
	return all, nil
}

// AdminHandles returns the chat handles of every administrator.
func (s *Store) AdminHandles(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	var handles []string
	err = sqlitex.Execute(conn, `
		SELECT chat_handle FROM participants
		WHERE is_admin = 1 AND chat_handle IS NOT NULL;`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				if handle := stmt.ColumnText(0); handle != "" {
					handles = append(handles, handle)
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("could not list admin handles: %w", err)
	}
	return handles, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("could not get connection from database: %w", err)
	}
	defer s.pool.Put(conn)

	if err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args}); err != nil {
		return fmt.Errorf("could not update participant: %w", err)
	}
	return nil
}

// ApplyCameraOn records a camera-on transition: the leave fact clears, and
// the alert bookkeeping resets to its empty state since the participant is
// visibly back.
func (s *Store) ApplyCameraOn(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET
			is_cam_on = 1,
			last_status_change = ?,
			last_leave_time = NULL,
			last_alert_sent = NULL,
			alert_count = 0,
			response_status = NULL,
			response_time = NULL,
			updated_at = ?
		WHERE id = ?;`,
		at.UnixMilli(), time.Now().UnixMilli(), id)
}

func (s *Store) ApplyCameraOff(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET
			is_cam_on = 0,
			last_status_change = ?,
			updated_at = ?
		WHERE id = ?;`,
		at.UnixMilli(), time.Now().UnixMilli(), id)
}

// RecordLeave stamps the disconnect and forces the camera fact off.
func (s *Store) RecordLeave(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET
			is_cam_on = 0,
			last_status_change = ?,
			last_leave_time = ?,
			updated_at = ?
		WHERE id = ?;`,
		at.UnixMilli(), at.UnixMilli(), time.Now().UnixMilli(), id)
}

// ClearAbsence wipes the excused step-out state and its reminder
// bookkeeping, used when a participant rejoins.
func (s *Store) ClearAbsence(ctx context.Context, id int64) error {
	return s.exec(ctx, `
		UPDATE participants SET
			is_excused = 0,
			excused_type = '',
			last_leave_time = NULL,
			last_absence_alert = NULL,
			last_admin_leave_alert = NULL,
			last_return_request = NULL,
			updated_at = ?
		WHERE id = ?;`,
		time.Now().UnixMilli(), id)
}

// SetExcused flags an acknowledged step-out; the absence reminder starts
// firing only after its own cooldown, so the initial stamp points at the end
// of the current day in keeping with once-per-day acknowledgements.
func (s *Store) SetExcused(ctx context.Context, id int64, kind types.ExcusedKind, firstReminderAt time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET
			is_excused = 1,
			excused_type = ?,
			last_absence_alert = ?,
			updated_at = ?
		WHERE id = ?;`,
		string(kind), timeArg(firstReminderAt), time.Now().UnixMilli(), id)
}

func (s *Store) SetStatusOverride(ctx context.Context, id int64, kind types.StatusKind, setAt, blockedUntil, autoReset time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET
			status_kind = ?,
			status_set_at = ?,
			alarm_blocked_until = ?,
			status_auto_reset = ?,
			updated_at = ?
		WHERE id = ?;`,
		string(kind), timeArg(setAt), timeArg(blockedUntil), timeArg(autoReset), time.Now().UnixMilli(), id)
}

func (s *Store) ClearStatusOverride(ctx context.Context, id int64) error {
	return s.exec(ctx, `
		UPDATE participants SET
			status_kind = '',
			status_set_at = NULL,
			alarm_blocked_until = NULL,
			status_auto_reset = NULL,
			updated_at = ?
		WHERE id = ?;`,
		time.Now().UnixMilli(), id)
}

// RecordAlertsSent stamps a camera-off alert attempt for each participant.
// Cooldowns are based on the attempt, not delivery confirmation.
func (s *Store) RecordAlertsSent(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		err := s.exec(ctx, `
			UPDATE participants SET
				last_alert_sent = ?,
				alert_count = alert_count + 1,
				updated_at = ?
			WHERE id = ?;`,
			at.UnixMilli(), time.Now().UnixMilli(), id)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RecordAbsenceAlert(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET last_absence_alert = ?, updated_at = ? WHERE id = ?;`,
		at.UnixMilli(), time.Now().UnixMilli(), id)
}

func (s *Store) RecordAdminLeaveAlerts(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		err := s.exec(ctx, `
			UPDATE participants SET last_admin_leave_alert = ?, updated_at = ? WHERE id = ?;`,
			at.UnixMilli(), time.Now().UnixMilli(), id)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) RecordReturnRequest(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET last_return_request = ?, updated_at = ? WHERE id = ?;`,
		at.UnixMilli(), time.Now().UnixMilli(), id)
}

func (s *Store) RecordResponse(ctx context.Context, id int64, status string, at time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET response_status = ?, response_time = ?, updated_at = ? WHERE id = ?;`,
		status, at.UnixMilli(), time.Now().UnixMilli(), id)
}

// RearmAbsenceReminder rewinds the camera-off alert stamp so the next
// reminder comes after a short interval instead of a full cooldown.
func (s *Store) RearmAbsenceReminder(ctx context.Context, id int64, rewindTo time.Time) error {
	return s.exec(ctx, `
		UPDATE participants SET last_alert_sent = ?, updated_at = ? WHERE id = ?;`,
		rewindTo.UnixMilli(), time.Now().UnixMilli(), id)
}

// ResetCameraOffTimers re-anchors the off-duration clock for off-camera
// participants to the given instant, used at the lunch boundaries so lunch
// time never counts against the threshold. Only the given participants (the
// joined-today set) are touched.
func (s *Store) ResetCameraOffTimers(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		err := s.exec(ctx, `
			UPDATE participants SET last_status_change = ?, updated_at = ?
			WHERE id = ? AND is_cam_on = 0;`,
			at.UnixMilli(), time.Now().UnixMilli(), id)
		if err != nil {
			return err
		}
	}
	return nil
}

// ResetAlertBookkeeping clears alert bookkeeping and status overrides.
// Presence facts (camera state, leave time) are never touched by a reset.
// When boundary is non-zero only participants whose last status change is at
// or before the boundary are reset, preserving anyone already active today.
func (s *Store) ResetAlertBookkeeping(ctx context.Context, boundary time.Time) error {
	query := `
		UPDATE participants SET
			last_alert_sent = NULL,
			alert_count = 0,
			response_status = NULL,
			response_time = NULL,
			is_excused = 0,
			excused_type = '',
			last_absence_alert = NULL,
			last_admin_leave_alert = NULL,
			last_return_request = NULL,
			status_kind = '',
			status_set_at = NULL,
			alarm_blocked_until = NULL,
			status_auto_reset = NULL,
			updated_at = ?`
	args := []any{time.Now().UnixMilli()}

	if !boundary.IsZero() {
		query += ` WHERE last_status_change <= ?`
		args = append(args, boundary.UnixMilli())
	}

	return s.exec(ctx, query+";", args...)
}

// ClearResponseState wipes in-flight acknowledgements for all participants.
// Run at the end of a reconciliation pass: a restart must not assume stale
// responses are still valid, while cooldown stamps stay to prevent duplicate
// alerts from firing immediately.
func (s *Store) ClearResponseState(ctx context.Context) error {
	return s.exec(ctx, `
		UPDATE participants SET
			response_status = NULL,
			response_time = NULL,
			updated_at = ?;`,
		time.Now().UnixMilli())
}
