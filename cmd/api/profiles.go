package main

import (
	"errors"
	"net/http"

	"polaris/internal/authority"
	"polaris/internal/params"
	"polaris/internal/store"

	"github.com/go-chi/chi/v5"
)

type UpdateProfilePayload struct {
	Username   *string `json:"username" validate:"omitempty,max=50"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=50"`
	LastName   *string `json:"last_name" validate:"omitempty,max=50"`
	MiddleName *string `json:"middle_name" validate:"omitempty,max=50"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	City       *string `json:"city" validate:"omitempty,max=100"`
}

// listUsersHandler godoc
//
//	@Summary		Lists users
//	@Description	Lists profiles, optionally filtered by role or city. Role filtering requires an administrative role.
//	@Tags			users
//	@Produce		json
//	@Param			role	query		string			false	"Filter by role name"
//	@Param			city	query		string			false	"Filter by city"
//	@Param			page	query		int				false	"Page number (default: 1)"
//	@Param			limit	query		int				false	"Items per page (default: 15, max: 30)"
//	@Success		200		{array}		store.Profile	"Profiles"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/users [get]
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)

	q := r.URL.Query()
	p := params.ParsePagination(q)
	filter := store.ProfileFilter{
		RoleName: q.Get("role"),
		City:     q.Get("city"),
	}

	// Filtering by role enumerates staff accounts, so it is reserved for
	// administrative roles. An unfiltered or city-scoped listing is open to
	// any authenticated user.
	if filter.RoleName != "" {
		if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
			Category: authority.CategoryHighLevel,
		}); err != nil {
			app.authorizationErrorResponse(w, r, err)
			return
		}
	}

	profiles, total, err := app.store.Profiles.List(r.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"users":      profiles,
		"pagination": p,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getUserProfileHandler godoc
//
//	@Summary		Fetches a user profile
//	@Description	Fetches a profile by user ID. Reading another user's profile requires the any-scope profile permission.
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		string			true	"User ID"
//	@Success		200		{object}	store.Profile	"Profile"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [get]
func (app *application) getUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	userID := chi.URLParam(r, "userID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service:         authority.ServiceProfile,
		TargetSubjectID: userID,
		Entity:          &authority.EntityRef{Kind: authority.EntityProfile, ID: userID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	profile, err := app.store.Profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, profile); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateUserProfileHandler godoc
//
//	@Summary		Updates a user profile
//	@Description	Updates profile fields. Updating another user's profile requires the any-scope profile permission.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string					true	"User ID"
//	@Param			payload	body		UpdateProfilePayload	true	"Fields to update"
//	@Success		200		{object}	store.Profile			"Updated profile"
//	@Failure		400		{object}	ErrorResponse			"Bad request"
//	@Failure		403		{object}	ErrorResponse			"Forbidden"
//	@Failure		404		{object}	ErrorResponse			"Not found"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [patch]
func (app *application) updateUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	userID := chi.URLParam(r, "userID")

	var payload UpdateProfilePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service:         authority.ServiceProfile,
		TargetSubjectID: userID,
		Entity:          &authority.EntityRef{Kind: authority.EntityProfile, ID: userID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Username != nil {
		updates["username"] = *payload.Username
	}
	if payload.FirstName != nil {
		updates["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		updates["last_name"] = *payload.LastName
	}
	if payload.MiddleName != nil {
		updates["middle_name"] = *payload.MiddleName
	}
	if payload.Phone != nil {
		updates["phone"] = *payload.Phone
	}
	if payload.City != nil {
		updates["city"] = *payload.City
	}
	if payload.FirstName != nil || payload.LastName != nil {
		current, err := app.store.Profiles.GetByUserID(r.Context(), userID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		first, last := current.FirstName, current.LastName
		if payload.FirstName != nil {
			first = *payload.FirstName
		}
		if payload.LastName != nil {
			last = *payload.LastName
		}
		updates["full_name"] = first + " " + last
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Profiles.Update(r.Context(), userID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	profile, err := app.store.Profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, profile); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteUserProfileHandler godoc
//
//	@Summary		Deletes a user profile
//	@Description	Deletes a profile. Deleting another user's profile requires the any-scope profile permission.
//	@Tags			users
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Profile deleted"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [delete]
func (app *application) deleteUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	userID := chi.URLParam(r, "userID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service:         authority.ServiceProfile,
		TargetSubjectID: userID,
		Entity:          &authority.EntityRef{Kind: authority.EntityProfile, ID: userID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := app.store.Profiles.Delete(r.Context(), userID); err != nil {
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
