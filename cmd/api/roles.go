package main

import (
	"errors"
	"net/http"

	"polaris/internal/authority"
	"polaris/internal/mailer"
	"polaris/internal/store"

	"github.com/go-chi/chi/v5"
)

type AssignRolePayload struct {
	Role string `json:"role" validate:"required,oneof=admin moderator event_manager expert user"`
}

// assignUserRoleHandler godoc
//
//	@Summary		Assigns a role to a user
//	@Description	Replaces the user's role. Restricted to administrative roles.
//	@Tags			roles
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string				true	"User ID"
//	@Param			payload	body		AssignRolePayload	true	"Role to assign"
//	@Success		200		{object}	store.Profile		"Updated profile"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		403		{object}	ErrorResponse		"Forbidden"
//	@Failure		404		{object}	ErrorResponse		"Not found"
//	@Security		ApiKeyAuth
//	@Router			/users/{userID}/role [patch]
func (app *application) assignUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	userID := chi.URLParam(r, "userID")

	var payload AssignRolePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Category: authority.CategoryHighLevel,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := app.store.Profiles.SetRole(r.Context(), userID, payload.Role); err != nil {
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

	go func() {
		vars := struct {
			Username string
			Role     string
		}{Username: profile.Username, Role: payload.Role}
		if _, err := app.mailer.Send(mailer.RoleAssignedTemplate, profile.Username, profile.Email, vars); err != nil {
			app.logger.Errorw("failed to send role assignment email", "email", profile.Email, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusOK, profile); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listRolesHandler godoc
//
//	@Summary		Lists role permission records
//	@Description	Returns every role with its per-service permission sets. Restricted to administrative roles.
//	@Tags			roles
//	@Produce		json
//	@Success		200	{array}		store.RoleRecord	"Role records"
//	@Failure		403	{object}	ErrorResponse		"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/roles [get]
func (app *application) listRolesHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Category: authority.CategoryHighLevel,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	records, err := app.store.Roles.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}
