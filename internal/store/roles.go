package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRecord is the persisted mapping from a role name to its per-service
// permission sets. Rows are maintained by administrative tooling; this store
// only reads them.
type RoleRecord struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Permissions map[string][]string `json:"permissions"`
}

type RolesStore struct {
	db *pgxpool.Pool
}

func (s *RolesStore) FindByRole(ctx context.Context, name string) (*RoleRecord, error) {
	query := `SELECT name, description, permissions FROM roles WHERE name = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	record := &RoleRecord{}
	err := s.db.QueryRow(ctx, query, name).Scan(
		&record.Name,
		&record.Description,
		&record.Permissions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *RolesStore) List(ctx context.Context) ([]RoleRecord, error) {
	query := `SELECT name, description, permissions FROM roles ORDER BY name`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RoleRecord
	for rows.Next() {
		var r RoleRecord
		if err := rows.Scan(&r.Name, &r.Description, &r.Permissions); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
