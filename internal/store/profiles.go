package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrDuplicateEmail = errors.New("a user with that email already exists")

type Profile struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	MiddleName string    `json:"middle_name,omitempty"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	City       string    `json:"city,omitempty"`
	RoleName   string    `json:"role_name"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	Password   password  `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// password keeps the plaintext out of JSON and the hash out of handlers.
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

type ProfileFilter struct {
	RoleName string
	City     string
}

type ProfilesStore struct {
	db *pgxpool.Pool
}

func (s *ProfilesStore) Create(ctx context.Context, profile *Profile) error {
	if profile.UserID == "" {
		profile.UserID = uuid.New().String()
	}
	if profile.RoleName == "" {
		profile.RoleName = "user"
	}

	query := `
        INSERT INTO profiles (user_id, username, full_name, first_name, last_name, middle_name, email, phone, city, role_name, password)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING created_at, updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		profile.UserID,
		profile.Username,
		profile.FullName,
		profile.FirstName,
		profile.LastName,
		profile.MiddleName,
		profile.Email,
		profile.Phone,
		profile.City,
		profile.RoleName,
		profile.Password.hash,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *ProfilesStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	query := `
        SELECT user_id, username, full_name, first_name, last_name, middle_name, email, phone, city, role_name, photo_url, password, created_at, updated_at
        FROM profiles
        WHERE user_id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	profile := &Profile{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Username,
		&profile.FullName,
		&profile.FirstName,
		&profile.LastName,
		&profile.MiddleName,
		&profile.Email,
		&profile.Phone,
		&profile.City,
		&profile.RoleName,
		&profile.PhotoURL,
		&profile.Password.hash,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfilesStore) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `
        SELECT user_id, username, full_name, first_name, last_name, middle_name, email, phone, city, role_name, photo_url, password, created_at, updated_at
        FROM profiles
        WHERE email = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	profile := &Profile{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&profile.UserID,
		&profile.Username,
		&profile.FullName,
		&profile.FirstName,
		&profile.LastName,
		&profile.MiddleName,
		&profile.Email,
		&profile.Phone,
		&profile.City,
		&profile.RoleName,
		&profile.PhotoURL,
		&profile.Password.hash,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *ProfilesStore) List(ctx context.Context, filter ProfileFilter, limit, offset int) ([]Profile, int, error) {
	countQuery := `
        SELECT COUNT(*)
        FROM profiles
        WHERE ($1 = '' OR role_name = $1)
          AND ($2 = '' OR city = $2)
    `

	query := `
        SELECT user_id, username, full_name, first_name, last_name, middle_name, email, phone, city, role_name, photo_url, created_at, updated_at
        FROM profiles
        WHERE ($1 = '' OR role_name = $1)
          AND ($2 = '' OR city = $2)
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	if err := s.db.QueryRow(ctx, countQuery, filter.RoleName, filter.City).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, query, filter.RoleName, filter.City, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		err := rows.Scan(
			&p.UserID,
			&p.Username,
			&p.FullName,
			&p.FirstName,
			&p.LastName,
			&p.MiddleName,
			&p.Email,
			&p.Phone,
			&p.City,
			&p.RoleName,
			&p.PhotoURL,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (s *ProfilesStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !isValidProfileField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE profiles SET %s, updated_at = NOW() WHERE user_id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isValidProfileField(field string) bool {
	validFields := map[string]bool{
		"username":    true,
		"full_name":   true,
		"first_name":  true,
		"last_name":   true,
		"middle_name": true,
		"phone":       true,
		"city":        true,
	}
	return validFields[field]
}

func (s *ProfilesStore) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM profiles WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProfilesStore) SetRole(ctx context.Context, userID, roleName string) error {
	query := `UPDATE profiles SET role_name = $1, updated_at = NOW() WHERE user_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, roleName, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProfilesStore) SetPhotoURL(ctx context.Context, userID, url string) error {
	query := `UPDATE profiles SET photo_url = $1, updated_at = NOW() WHERE user_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, url, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
