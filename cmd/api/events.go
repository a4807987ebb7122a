package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"polaris/internal/authority"
	"polaris/internal/params"
	"polaris/internal/store"

	"github.com/go-chi/chi/v5"
)

type CreateEventPayload struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Location    string    `json:"location" validate:"omitempty,max=200"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

type UpdateEventPayload struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=draft published ongoing completed cancelled"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	StartsAt    *time.Time `json:"starts_at" validate:"omitempty"`
	EndsAt      *time.Time `json:"ends_at" validate:"omitempty"`
}

// createEventHandler godoc
//
//	@Summary		Creates an event
//	@Description	Creates an event with the authenticated user recorded as creator. Restricted to event-managing roles.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateEventPayload	true	"Event fields"
//	@Success		201		{object}	store.Event			"Created event"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		403		{object}	ErrorResponse		"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/events [post]
func (app *application) createEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)

	var payload CreateEventPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Category: authority.CategoryHighLevelEvent,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	creator := store.EventCreator{UserID: claims.SubjectID}
	if profile, err := app.store.Profiles.GetByUserID(r.Context(), claims.SubjectID); err == nil {
		creator.FullName = profile.FullName
	}

	event := &store.Event{
		Title:       payload.Title,
		Description: payload.Description,
		Location:    payload.Location,
		StartsAt:    payload.StartsAt,
		EndsAt:      payload.EndsAt,
		Creator:     creator,
	}

	if err := app.store.Events.Create(r.Context(), event); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, event); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listEventsHandler godoc
//
//	@Summary		Lists events
//	@Description	Lists events, optionally filtered by status
//	@Tags			events
//	@Produce		json
//	@Param			status	query		string		false	"Filter by status"
//	@Param			page	query		int			false	"Page number (default: 1)"
//	@Param			limit	query		int			false	"Items per page (default: 15, max: 30)"
//	@Success		200		{array}		store.Event	"Events"
//	@Security		ApiKeyAuth
//	@Router			/events [get]
func (app *application) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)
	filter := store.EventFilter{Status: q.Get("status")}

	events, total, err := app.store.Events.List(r.Context(), filter, p.Limit, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"events":     events,
		"pagination": p,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getEventHandler godoc
//
//	@Summary		Fetches an event
//	@Description	Fetches an event by ID
//	@Tags			events
//	@Produce		json
//	@Param			eventID	path		string			true	"Event ID"
//	@Success		200		{object}	store.Event		"Event"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID} [get]
func (app *application) getEventHandler(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := app.store.Events.GetByID(r.Context(), eventID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, event); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateEventHandler godoc
//
//	@Summary		Updates an event
//	@Description	Updates event fields. Updating an event you did not create requires the any-scope events permission.
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			eventID	path		string				true	"Event ID"
//	@Param			payload	body		UpdateEventPayload	true	"Fields to update"
//	@Success		200		{object}	store.Event			"Updated event"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		403		{object}	ErrorResponse		"Forbidden"
//	@Failure		404		{object}	ErrorResponse		"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID} [patch]
func (app *application) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	eventID := chi.URLParam(r, "eventID")

	var payload UpdateEventPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceEvents,
		Entity:  &authority.EntityRef{Kind: authority.EntityEvent, ID: eventID},
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
	if payload.Status != nil {
		updates["status"] = *payload.Status
	}
	if payload.Location != nil {
		updates["location"] = *payload.Location
	}
	if payload.StartsAt != nil {
		updates["starts_at"] = *payload.StartsAt
	}
	if payload.EndsAt != nil {
		updates["ends_at"] = *payload.EndsAt
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("no fields to update"))
		return
	}

	if err := app.store.Events.Update(r.Context(), eventID, updates); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	event, err := app.store.Events.GetByID(r.Context(), eventID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, event); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteEventHandler godoc
//
//	@Summary		Deletes an event
//	@Description	Deletes an event. Deleting an event you did not create requires the any-scope events permission.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Success		204		"Event deleted"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID} [delete]
func (app *application) deleteEventHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)
	eventID := chi.URLParam(r, "eventID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceEvents,
		Entity:  &authority.EntityRef{Kind: authority.EntityEvent, ID: eventID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := app.store.Events.Delete(r.Context(), eventID); err != nil {
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

// assignManagerHandler godoc
//
//	@Summary		Assigns an event manager
//	@Description	Adds a user to the event's manager list. Restricted to administrative roles.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Manager assigned"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/managers/{userID} [put]
func (app *application) assignManagerHandler(w http.ResponseWriter, r *http.Request) {
	app.changeEventMembership(w, r, store.MemberManager, authority.Request{
		Category: authority.CategoryHighLevel,
	}, app.store.Events.AddMember)
}

// removeManagerHandler godoc
//
//	@Summary		Removes an event manager
//	@Description	Removes a user from the event's manager list. Restricted to administrative roles.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Manager removed"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/managers/{userID} [delete]
func (app *application) removeManagerHandler(w http.ResponseWriter, r *http.Request) {
	app.changeEventMembership(w, r, store.MemberManager, authority.Request{
		Category: authority.CategoryHighLevel,
	}, app.store.Events.RemoveMember)
}

// assignExpertHandler godoc
//
//	@Summary		Assigns an event expert
//	@Description	Adds a user to the event's expert list. Requires event permissions for this event.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Expert assigned"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/experts/{userID} [put]
func (app *application) assignExpertHandler(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	app.changeEventMembership(w, r, store.MemberExpert, authority.Request{
		Service: authority.ServiceEvents,
		Entity:  &authority.EntityRef{Kind: authority.EntityEvent, ID: eventID},
	}, app.store.Events.AddMember)
}

// removeExpertHandler godoc
//
//	@Summary		Removes an event expert
//	@Description	Removes a user from the event's expert list. Requires event permissions for this event.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Expert removed"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/experts/{userID} [delete]
func (app *application) removeExpertHandler(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	app.changeEventMembership(w, r, store.MemberExpert, authority.Request{
		Service: authority.ServiceEvents,
		Entity:  &authority.EntityRef{Kind: authority.EntityEvent, ID: eventID},
	}, app.store.Events.RemoveMember)
}

// registerSpectatorHandler godoc
//
//	@Summary		Registers a spectator
//	@Description	Adds a user to the event's spectator list. Registering someone else requires the any-scope events permission.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Spectator registered"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/spectators/{userID} [put]
func (app *application) registerSpectatorHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	app.changeEventMembership(w, r, store.MemberSpectator, authority.Request{
		Service:         authority.ServiceEvents,
		TargetSubjectID: userID,
	}, app.store.Events.AddMember)
}

// removeSpectatorHandler godoc
//
//	@Summary		Removes a spectator
//	@Description	Removes a user from the event's spectator list. Removing someone else requires the any-scope events permission.
//	@Tags			events
//	@Param			eventID	path	string	true	"Event ID"
//	@Param			userID	path	string	true	"User ID"
//	@Success		204		"Spectator removed"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Failure		404		{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/spectators/{userID} [delete]
func (app *application) removeSpectatorHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	app.changeEventMembership(w, r, store.MemberSpectator, authority.Request{
		Service:         authority.ServiceEvents,
		TargetSubjectID: userID,
	}, app.store.Events.RemoveMember)
}

// changeEventMembership authorizes the given request and applies one
// membership mutation to the event named in the URL.
func (app *application) changeEventMembership(
	w http.ResponseWriter,
	r *http.Request,
	member store.MemberRole,
	check authority.Request,
	apply func(ctx context.Context, eventID string, member store.MemberRole, userID string) error,
) {
	claims := getClaimsFromContext(r)
	eventID := chi.URLParam(r, "eventID")
	userID := chi.URLParam(r, "userID")

	if _, err := app.authority.Authorize(r.Context(), claims, check); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := apply(r.Context(), eventID, member, userID); err != nil {
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

// attachProjectHandler godoc
//
//	@Summary		Attaches a project to an event
//	@Description	Adds a project to the event's project list. Attaching another author's project requires the any-scope projects permission.
//	@Tags			events
//	@Param			eventID		path	string	true	"Event ID"
//	@Param			projectID	path	string	true	"Project ID"
//	@Success		204			"Project attached"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/projects/{projectID} [put]
func (app *application) attachProjectHandler(w http.ResponseWriter, r *http.Request) {
	app.changeEventProjects(w, r, app.store.Events.AttachProject)
}

// detachProjectHandler godoc
//
//	@Summary		Detaches a project from an event
//	@Description	Removes a project from the event's project list. Detaching another author's project requires the any-scope projects permission.
//	@Tags			events
//	@Param			eventID		path	string	true	"Event ID"
//	@Param			projectID	path	string	true	"Project ID"
//	@Success		204			"Project detached"
//	@Failure		403			{object}	ErrorResponse	"Forbidden"
//	@Failure		404			{object}	ErrorResponse	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/events/{eventID}/projects/{projectID} [delete]
func (app *application) detachProjectHandler(w http.ResponseWriter, r *http.Request) {
	app.changeEventProjects(w, r, app.store.Events.DetachProject)
}

func (app *application) changeEventProjects(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, eventID, projectID string) error,
) {
	claims := getClaimsFromContext(r)
	eventID := chi.URLParam(r, "eventID")
	projectID := chi.URLParam(r, "projectID")

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service: authority.ServiceProjects,
		Entity:  &authority.EntityRef{Kind: authority.EntityProject, ID: projectID},
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	if err := apply(r.Context(), eventID, projectID); err != nil {
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
