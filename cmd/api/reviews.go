package main

import (
	"errors"
	"net/http"

	"polaris/internal/authority"
	"polaris/internal/params"
	"polaris/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateReviewPayload struct {
	Criteria      store.CriteriaEvaluation `json:"criteria_evaluation" validate:"required"`
	ExpertComment string                   `json:"expert_comment" validate:"omitempty,max=2000"`
}

type UpdateReviewPayload struct {
	Criteria      *store.CriteriaEvaluation `json:"criteria_evaluation"`
	ExpertComment *string                   `json:"expert_comment" validate:"omitempty,max=2000"`
}

// createReviewHandler godoc
//
//	@Summary		Creates a review
//	@Description	Records an expert review for a project with the authenticated user as reviewer. One review per reviewer per project.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string				true	"Project ID"
//	@Param			payload		body		CreateReviewPayload	true	"Criteria scores and comment"
//	@Success		201			{object}	store.Review		"Created review"
//	@Failure		400			{object}	ErrorResponse		"Bad request"
//	@Failure		403			{object}	ErrorResponse		"Forbidden"
//	@Failure		404			{object}	ErrorResponse		"Not found"
//	@Failure		409			{object}	ErrorResponse		"Review already exists"
//	@Security		ApiKeyAuth
//	@Router			/projects/{projectID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	projectID := chi.URLParam(r, "projectID")

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Category: authority.CategoryHighLevelReview,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	// The project must exist before a review is recorded against it.
	if _, err := app.store.Projects.GetByID(r.Context(), projectID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	review := &store.Review{
		ProjectID:     projectID,
		ReviewerID:    claims.SubjectID,
		Criteria:      payload.Criteria,
		ExpertComment: payload.ExpertComment,
	}
	if profile, err := app.store.Profiles.GetByUserID(r.Context(), claims.SubjectID); err == nil {
		review.ReviewerFullName = profile.FullName
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReviewsByProjectHandler godoc
//
//	@Summary		Lists reviews for a project
//	@Description	Lists every review recorded for a project. Requires the any-scope reviews permission.
//	@Tags			reviews
//	@Produce		json
//	@Param			projectID	path		string			true	"Project ID"
//	@Success		200			{array}		store.Review	"Reviews"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/projects/{projectID}/reviews [get]
func (app *application) getReviewsByProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	projectID := chi.URLParam(r, "projectID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceReviews,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListByProject(r.Context(), projectID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReviewsHandler godoc
//
//	@Summary		Lists all reviews
//	@Description	Lists every review on the platform. Restricted to administrative roles.
//	@Tags			reviews
//	@Produce		json
//	@Param			page	query		int				false	"Page number (default: 1)"
//	@Param			limit	query		int				false	"Items per page (default: 15, max: 30)"
//	@Success		200		{array}		store.Review	"Reviews"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/reviews [get]
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Category: authority.CategoryHighLevel,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	reviews, total, err := app.store.Reviews.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"reviews":    reviews,
		"pagination": p,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getReviewHandler godoc
//
//	@Summary		Fetches a review
//	@Description	Fetches a review by ID. Reading another reviewer's review requires the any-scope reviews permission.
//	@Tags			reviews
//	@Produce		json
//	@Param			reviewID	path		string			true	"Review ID"
//	@Success		200			{object}	store.Review	"Review"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [get]
func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	reviewID := chi.URLParam(r, "reviewID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceReviews,
		Entity:  &authority.EntityRef{Kind: authority.EntityReview, ID: reviewID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateReviewHandler godoc
//
//	@Summary		Updates a review
//	@Description	Updates criteria scores or comment; the total score is recomputed. Updating another reviewer's review requires the any-scope reviews permission.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		string				true	"Review ID"
//	@Param			payload		body		UpdateReviewPayload	true	"Fields to update"
//	@Success		200			{object}	store.Review		"Updated review"
//	@Failure		400			{object}	ErrorResponse		"Bad request"
//	@Failure		403			{object}	ErrorResponse		"Forbidden"
//	@Failure		404			{object}	ErrorResponse		"Not found"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [patch]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	reviewID := chi.URLParam(r, "reviewID")

	var payload UpdateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Criteria != nil {
		if err := Validate.Struct(payload.Criteria); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceReviews,
		Entity:  &authority.EntityRef{Kind: authority.EntityReview, ID: reviewID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Criteria != nil {
		updates["criteria"] = *payload.Criteria
		updates["total_score"] = payload.Criteria.Total()
	}
	if payload.ExpertComment != nil {
		updates["expert_comment"] = *payload.ExpertComment
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Reviews.Update(r.Context(), reviewID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Deletes a review
//	@Description	Deletes a review. Deleting another reviewer's review requires the any-scope reviews permission.
//	@Tags			reviews
//	@Param			reviewID	path	string	true	"Review ID"
//	@Success		204			"Review deleted"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	reviewID := chi.URLParam(r, "reviewID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceReviews,
		Entity:  &authority.EntityRef{Kind: authority.EntityReview, ID: reviewID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), reviewID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
