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
)

// CriteriaEvaluation holds the per-criterion expert scores for a project.
type CriteriaEvaluation struct {
	TeamExperienceCompetencies         int `json:"team_experience_competencies" validate:"min=0,max=10"`
	ProjectRelevanceSocialSignificance int `json:"project_relevance_social_significance" validate:"min=0,max=10"`
	SolutionUniqueness                 int `json:"solution_uniqueness_addressing_problem" validate:"min=0,max=10"`
	ProjectScale                       int `json:"project_scale" validate:"min=0,max=10"`
	ProjectPerspectivePotential        int `json:"project_perspective_potential" validate:"min=0,max=10"`
	ProjectInformationTransparency     int `json:"project_information_transparency" validate:"min=0,max=10"`
	ProjectFeasibilityEffectiveness    int `json:"project_feasibility_effectiveness" validate:"min=0,max=10"`
	OwnContributionResources           int `json:"own_contribution_additional_resources" validate:"min=0,max=10"`
	PlannedProjectExpenses             int `json:"planned_project_expenses" validate:"min=0,max=10"`
	ProjectBudgetRealism               int `json:"project_budget_realism" validate:"min=0,max=10"`
}

// Total sums every criterion score.
func (c CriteriaEvaluation) Total() int {
	return c.TeamExperienceCompetencies +
		c.ProjectRelevanceSocialSignificance +
		c.SolutionUniqueness +
		c.ProjectScale +
		c.ProjectPerspectivePotential +
		c.ProjectInformationTransparency +
		c.ProjectFeasibilityEffectiveness +
		c.OwnContributionResources +
		c.PlannedProjectExpenses +
		c.ProjectBudgetRealism
}

type Review struct {
	ID               string             `json:"id"`
	ProjectID        string             `json:"project_id"`
	ReviewerID       string             `json:"reviewer_id"`
	ReviewerFullName string             `json:"reviewer_full_name,omitempty"`
	Criteria         CriteriaEvaluation `json:"criteria_evaluation"`
	ExpertComment    string             `json:"expert_comment,omitempty"`
	TotalScore       int                `json:"total_score"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	if review.ID == "" {
		review.ID = uuid.New().String()
	}
	review.TotalScore = review.Criteria.Total()

	query := `
        INSERT INTO reviews (id, project_id, reviewer_id, reviewer_full_name, criteria, expert_comment, total_score)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		review.ID,
		review.ProjectID,
		review.ReviewerID,
		review.ReviewerFullName,
		review.Criteria,
		review.ExpertComment,
		review.TotalScore,
	).Scan(&review.CreatedAt, &review.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// One review per reviewer per project.
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ReviewsStore) GetByID(ctx context.Context, id string) (*Review, error) {
	query := `
        SELECT id, project_id, reviewer_id, reviewer_full_name, criteria, expert_comment, total_score, created_at, updated_at
        FROM reviews
        WHERE id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	review := &Review{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.ProjectID,
		&review.ReviewerID,
		&review.ReviewerFullName,
		&review.Criteria,
		&review.ExpertComment,
		&review.TotalScore,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewsStore) List(ctx context.Context, limit, offset int) ([]Review, int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM reviews`
	if err := s.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, project_id, reviewer_id, reviewer_full_name, criteria, expert_comment, total_score, created_at, updated_at
        FROM reviews
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `
	reviews, err := s.queryReviews(ctx, query, limit, offset)
	return reviews, total, err
}

func (s *ReviewsStore) ListByProject(ctx context.Context, projectID string) ([]Review, error) {
	query := `
        SELECT id, project_id, reviewer_id, reviewer_full_name, criteria, expert_comment, total_score, created_at, updated_at
        FROM reviews
        WHERE project_id = $1
        ORDER BY created_at DESC
    `
	return s.queryReviews(ctx, query, projectID)
}

func (s *ReviewsStore) queryReviews(ctx context.Context, query string, args ...interface{}) ([]Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		err := rows.Scan(
			&r.ID,
			&r.ProjectID,
			&r.ReviewerID,
			&r.ReviewerFullName,
			&r.Criteria,
			&r.ExpertComment,
			&r.TotalScore,
			&r.CreatedAt,
			&r.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *ReviewsStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !isValidReviewField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE reviews SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isValidReviewField(field string) bool {
	validFields := map[string]bool{
		"criteria":       true,
		"expert_comment": true,
		"total_score":    true,
	}
	return validFields[field]
}

func (s *ReviewsStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

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
