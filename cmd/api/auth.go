package main

import (
	"errors"
	"net/http"

	"polaris/internal/mailer"
	"polaris/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

// ErrorResponse represents the standard error format for API responses.
//
//	@name			ErrorResponse
//	@description	Standard error response format returned by all API endpoints
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"insufficient permissions"`
	Status  int    `json:"status" example:"403"`
}

type RegisterUserPayload struct {
	Username  string `json:"username" validate:"required,max=50"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type CreateTokenPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// registerUserHandler godoc
//
//	@Summary		Registers a user
//	@Description	Creates a profile with the default user role and sends a welcome email
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"User credentials"
//	@Success		201		{object}	store.Profile		"User registered"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		500		{object}	ErrorResponse		"Internal Server Error"
//	@Router			/authentication/user [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile := &store.Profile{
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		FullName:  payload.FirstName + " " + payload.LastName,
		Email:     payload.Email,
	}
	if err := profile.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Profiles.Create(r.Context(), profile); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	go func() {
		vars := struct{ Username string }{Username: profile.Username}
		if _, err := app.mailer.Send(mailer.UserWelcomeTemplate, profile.Username, profile.Email, vars); err != nil {
			app.logger.Errorw("failed to send welcome email", "email", profile.Email, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusCreated, profile); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createTokenHandler godoc
//
//	@Summary		Creates a token pair
//	@Description	Exchanges email and password for an access/refresh token pair
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateTokenPayload	true	"User credentials"
//	@Success		200		{object}	TokenPairResponse	"Token pair"
//	@Failure		400		{object}	ErrorResponse		"Bad request"
//	@Failure		401		{object}	ErrorResponse		"Unauthorized"
//	@Router			/authentication/token [post]
func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	profile, err := app.store.Profiles.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := profile.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(profile.UserID, profile.RoleName, profile.Email)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// refreshTokenHandler godoc
//
//	@Summary		Refreshes a token pair
//	@Description	Exchanges a valid refresh token for a new access/refresh token pair
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RefreshTokenPayload	true	"Refresh token"
//	@Success		200		{object}	TokenPairResponse	"Token pair"
//	@Failure		401		{object}	ErrorResponse		"Unauthorized"
//	@Router			/authentication/refresh [post]
func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("unexpected claims type"))
		return
	}
	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		app.unauthorizedErrorResponse(w, r, errors.New("refresh token has no subject"))
		return
	}

	// Re-read the profile so a role change takes effect on refresh.
	profile, err := app.store.Profiles.GetByUserID(r.Context(), sub)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(profile.UserID, profile.RoleName, profile.Email)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
