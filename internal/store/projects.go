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

type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Template    string    `json:"template,omitempty"`
	Status      string    `json:"status"`
	AuthorID    string    `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProjectsStore struct {
	db *pgxpool.Pool
}

func (s *ProjectsStore) Create(ctx context.Context, project *Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	if project.Status == "" {
		project.Status = "draft"
	}

	query := `
        INSERT INTO projects (id, title, description, template, status, author_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		project.ID,
		project.Title,
		project.Description,
		project.Template,
		project.Status,
		project.AuthorID,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
}

func (s *ProjectsStore) GetByID(ctx context.Context, id string) (*Project, error) {
	query := `
        SELECT id, title, description, template, status, author_id, created_at, updated_at
        FROM projects
        WHERE id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	project := &Project{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Template,
		&project.Status,
		&project.AuthorID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return project, nil
}

func (s *ProjectsStore) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]Project, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM projects WHERE author_id = $1`
	if err := s.db.QueryRow(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, title, description, template, status, author_id, created_at, updated_at
        FROM projects
        WHERE author_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	projects, err := s.queryProjects(ctx, query, authorID, limit, offset)
	return projects, total, err
}

func (s *ProjectsStore) List(ctx context.Context, limit, offset int) ([]Project, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM projects`
	if err := s.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, title, description, template, status, author_id, created_at, updated_at
        FROM projects
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	projects, err := s.queryProjects(ctx, query, limit, offset)
	return projects, total, err
}

func (s *ProjectsStore) queryProjects(ctx context.Context, query string, args ...interface{}) ([]Project, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Template,
			&p.Status,
			&p.AuthorID,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *ProjectsStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !isValidProjectField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE projects SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isValidProjectField(field string) bool {
	validFields := map[string]bool{
		"title":       true,
		"description": true,
		"template":    true,
		"status":      true,
	}
	return validFields[field]
}

func (s *ProjectsStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`

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
