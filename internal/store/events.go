package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventCreator is the recorded creator of an event. UserID may be empty for
// legacy rows imported without one.
type EventCreator struct {
	UserID   string `json:"user_id,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Status       string       `json:"status"`
	Location     string       `json:"location,omitempty"`
	StartsAt     time.Time    `json:"starts_at"`
	EndsAt       time.Time    `json:"ends_at"`
	Creator      EventCreator `json:"creator"`
	ManagerIDs   []string     `json:"manager_ids"`
	ExpertIDs    []string     `json:"expert_ids"`
	SpectatorIDs []string     `json:"spectator_ids"`
	ProjectIDs   []string     `json:"project_ids"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// MemberRole selects which membership list of an event is being modified.
type MemberRole string

const (
	MemberManager   MemberRole = "manager"
	MemberExpert    MemberRole = "expert"
	MemberSpectator MemberRole = "spectator"
)

func (m MemberRole) column() (string, error) {
	switch m {
	case MemberManager:
		return "manager_ids", nil
	case MemberExpert:
		return "expert_ids", nil
	case MemberSpectator:
		return "spectator_ids", nil
	default:
		return "", fmt.Errorf("unknown member role: %s", m)
	}
}

type EventFilter struct {
	Status string
}

type EventsStore struct {
	db *pgxpool.Pool
}

const eventColumns = `id, title, description, status, location, starts_at, ends_at,
       creator_user_id, creator_full_name, manager_ids, expert_ids, spectator_ids, project_ids,
       created_at, updated_at`

func (s *EventsStore) Create(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Status == "" {
		event.Status = "planned"
	}

	query := `
        INSERT INTO events (id, title, description, status, location, starts_at, ends_at, creator_user_id, creator_full_name)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at, updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Status,
		event.Location,
		event.StartsAt,
		event.EndsAt,
		event.Creator.UserID,
		event.Creator.FullName,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
}

func (s *EventsStore) GetByID(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	event, err := scanEvent(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *EventsStore) List(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int, error) {
	countQuery := `SELECT COUNT(*) FROM events WHERE ($1 = '' OR status = $1)`

	query := `SELECT ` + eventColumns + `
        FROM events
        WHERE ($1 = '' OR status = $1)
        ORDER BY starts_at DESC
        LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := s.db.QueryRow(ctx, countQuery, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, query, filter.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *event)
	}
	return events, total, rows.Err()
}

func scanEvent(row pgx.Row) (*Event, error) {
	event := &Event{}
	var creatorUserID, creatorFullName *string

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Status,
		&event.Location,
		&event.StartsAt,
		&event.EndsAt,
		&creatorUserID,
		&creatorFullName,
		&event.ManagerIDs,
		&event.ExpertIDs,
		&event.SpectatorIDs,
		&event.ProjectIDs,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if creatorUserID != nil {
		event.Creator.UserID = *creatorUserID
	}
	if creatorFullName != nil {
		event.Creator.FullName = *creatorFullName
	}
	return event, nil
}

func (s *EventsStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !isValidEventField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE events SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isValidEventField(field string) bool {
	validFields := map[string]bool{
		"title":       true,
		"description": true,
		"status":      true,
		"location":    true,
		"starts_at":   true,
		"ends_at":     true,
	}
	return validFields[field]
}

func (s *EventsStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EventsStore) AddMember(ctx context.Context, eventID string, role MemberRole, userID string) error {
	column, err := role.column()
	if err != nil {
		return err
	}

	return s.execMembership(ctx, appendOnceQuery(column), userID, eventID)
}

// appendOnceQuery builds an UPDATE that appends a value to an array column
// unless it is already present. The column is coalesced to an empty array so
// a NULL value in a legacy row cannot void the guard and swallow the write.
func appendOnceQuery(column string) string {
	return fmt.Sprintf(`
        UPDATE events
        SET %[1]s = array_append(COALESCE(%[1]s, '{}'), $1), updated_at = NOW()
        WHERE id = $2 AND NOT ($1 = ANY(COALESCE(%[1]s, '{}')))
    `, column)
}

func (s *EventsStore) RemoveMember(ctx context.Context, eventID string, role MemberRole, userID string) error {
	column, err := role.column()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
        UPDATE events
        SET %[1]s = array_remove(%[1]s, $1), updated_at = NOW()
        WHERE id = $2
    `, column)

	return s.execMembership(ctx, query, userID, eventID)
}

func (s *EventsStore) AttachProject(ctx context.Context, eventID, projectID string) error {
	return s.execMembership(ctx, appendOnceQuery("project_ids"), projectID, eventID)
}

func (s *EventsStore) DetachProject(ctx context.Context, eventID, projectID string) error {
	query := `
        UPDATE events
        SET project_ids = array_remove(project_ids, $1), updated_at = NOW()
        WHERE id = $2
    `
	return s.execMembership(ctx, query, projectID, eventID)
}

func (s *EventsStore) execMembership(ctx context.Context, query, memberID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, memberID, eventID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		// Either the event does not exist or the membership was already in the
		// requested state; callers that care check existence first.
		exists, err := s.exists(ctx, eventID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (s *EventsStore) exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`
	err := s.db.QueryRow(ctx, query, eventID).Scan(&exists)
	return exists, err
}
