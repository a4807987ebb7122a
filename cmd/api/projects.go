package main

import (
	"errors"
	"net/http"

	"polaris/internal/authority"
	"polaris/internal/params"
	"polaris/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateProjectPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Template    string `json:"template" validate:"omitempty,max=100"`
}

type UpdateProjectPayload struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Template    *string `json:"template" validate:"omitempty,max=100"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft submitted archived"`
}

// createProjectHandler godoc
//
//	@Summary		Creates a project
//	@Description	Creates a project owned by the authenticated user
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateProjectPayload	true	"Project fields"
//	@Success		201		{object}	store.Project			"Created project"
//	@Failure		400		{object}	ErrorResponse			"Bad request"
//	@Security		ApiKeyAuth
//	@Router			/projects [post]
func (app *application) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)

	var payload CreateProjectPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	project := &store.Project{
		Title:       payload.Title,
		Description: payload.Description,
		Template:    payload.Template,
		AuthorID:    claims.SubjectID,
	}

	if err := app.store.Projects.Create(r.Context(), project); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, project); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listProjectsHandler godoc
//
//	@Summary		Lists projects
//	@Description	Lists projects by author when the author query parameter is set; listing everything is restricted to administrative roles.
//	@Tags			projects
//	@Produce		json
//	@Param			author	query		string			false	"Author user ID"
//	@Param			page	query		int				false	"Page number (default: 1)"
//	@Param			limit	query		int				false	"Items per page (default: 15, max: 30)"
//	@Success		200		{array}		store.Project	"Projects"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/projects [get]
func (app *application) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	q := r.URL.Query()
	p := params.ParsePagination(q)
	authorID := q.Get("author")

	var (
		projects []store.Project
		total    int
	)

	if authorID == "" {
		if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
			Category: authority.CategoryHighLevel,
		}); err != nil {
			app.authorizationErrorResponse(w, r, err)
			return
		}

		var err error
		projects, total, err = app.store.Projects.List(r.Context(), p.Limit, p.Offset)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
	} else {
		if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
			Service:         authority.ServiceProjects,
			TargetSubjectID: authorID,
		}); err != nil {
			app.authorizationErrorResponse(w, r, err)
			return
		}

		var err error
		projects, total, err = app.store.Projects.ListByAuthor(r.Context(), authorID, p.Limit, p.Offset)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"projects":   projects,
		"pagination": p,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProjectHandler godoc
//
//	@Summary		Fetches a project
//	@Description	Fetches a project by ID. Reading another author's project requires the any-scope projects permission.
//	@Tags			projects
//	@Produce		json
//	@Param			projectID	path		string			true	"Project ID"
//	@Success		200			{object}	store.Project	"Project"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/projects/{projectID} [get]
func (app *application) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	projectID := chi.URLParam(r, "projectID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceProjects,
		Entity:  &authority.EntityRef{Kind: authority.EntityProject, ID: projectID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	project, err := app.store.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, project); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateProjectHandler godoc
//
//	@Summary		Updates a project
//	@Description	Updates project fields. Updating another author's project requires the any-scope projects permission.
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string					true	"Project ID"
//	@Param			payload		body		UpdateProjectPayload	true	"Fields to update"
//	@Success		200			{object}	store.Project			"Updated project"
//	@Failure		400			{object}	ErrorResponse			"Bad request"
//	@Failure		403			{object}	ErrorResponse			"Forbidden"
//	@Failure		404			{object}	ErrorResponse			"Not found"
//	@Security		ApiKeyAuth
//	@Router			/projects/{projectID} [patch]
func (app *application) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	projectID := chi.URLParam(r, "projectID")

	var payload UpdateProjectPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceProjects,
		Entity:  &authority.EntityRef{Kind: authority.EntityProject, ID: projectID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Title != nil {
		updates["title"] = *payload.Title
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Template != nil {
		updates["template"] = *payload.Template
	}
	if payload.Status != nil {
		updates["status"] = *payload.Status
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Projects.Update(r.Context(), projectID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	project, err := app.store.Projects.GetByID(r.Context(), projectID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, project); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteProjectHandler godoc
//
//	@Summary		Deletes a project
//	@Description	Deletes a project. Deleting another author's project requires the any-scope projects permission.
//	@Tags			projects
//	@Param			projectID	path	string	true	"Project ID"
//	@Success		204			"Project deleted"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/projects/{projectID} [delete]
func (app *application) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	projectID := chi.URLParam(r, "projectID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceProjects,
		Entity:  &authority.EntityRef{Kind: authority.EntityProject, ID: projectID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := app.store.Projects.Delete(r.Context(), projectID); err != nil {
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
