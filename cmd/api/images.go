package main

import (
	"errors"
	"fmt"
	"net/http"

	"polaris/internal/authority"
	"polaris/internal/store"
)

// uploadProfilePictureHandler godoc
//
//	@Summary		Uploads a profile picture
//	@Description	Replaces the authenticated user's profile picture. Accepts a multipart form with a "photo" file field.
//	@Tags			users
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			photo	formData	file			true	"Image file"
//	@Success		200		{object}	map[string]string	"Photo URL"
//	@Failure		400		{object}	ErrorResponse	"Bad request"
//	@Failure		403		{object}	ErrorResponse	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/users/profile-picture [post]
func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	claims := getClaimsFromContext(r)

	if _, err := app.authority.Authorize(r.Context(), claims, authority.Request{
		Service:         authority.ServiceProfile,
		TargetSubjectID: claims.SubjectID,
	}); err != nil {
		app.authorizationErrorResponse(w, r, err)
		return
	}

	const maxBytes = 5 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("photo file is required: %w", err))
		return
	}
	defer file.Close()

	// Drop the previous asset when the profile already carries one.
	if profile, err := app.store.Profiles.GetByUserID(r.Context(), claims.SubjectID); err == nil && profile.PhotoURL != "" {
		if err := app.deletePhotoFromCloudinary(profile.PhotoURL); err != nil {
			app.logger.Warnw("failed to delete previous profile photo", "user_id", claims.SubjectID, "error", err)
		}
	}

	photoURL, err := app.uploadProfilePhoto(file, claims.SubjectID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Profiles.SetPhotoURL(r.Context(), claims.SubjectID, photoURL); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"photo_url": photoURL}); err != nil {
		app.internalServerError(w, r, err)
	}
}
