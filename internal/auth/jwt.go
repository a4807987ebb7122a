package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type JWTAuthenticator struct {
	secret          string
	refreshSecret   string
	aud             string
	iss             string
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
}

func NewJWTAuthenticator(secret, refreshSecret, aud, iss string, accessExp, refreshExp time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:          secret,
		refreshSecret:   refreshSecret,
		aud:             aud,
		iss:             iss,
		accessTokenExp:  accessExp,
		refreshTokenExp: refreshExp,
	}
}

// GenerateTokens generates both access and refresh tokens. The access token
// carries the subject id, role and email the authorization layer consumes.
func (a *JWTAuthenticator) GenerateTokens(userID, role, email string) (string, string, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"sub":   userID,
		"role":  role,
		"email": email,
		"exp":   now.Add(a.accessTokenExp).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"iss":   a.iss,
		"aud":   a.aud,
	}

	refreshClaims := jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(a.refreshTokenExp).Unix(),
		"iat": now.Unix(),
		"iss": a.iss,
	}

	accessToken, err := a.generateTokenWithClaims(accessClaims, a.secret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.generateTokenWithClaims(refreshClaims, a.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (a *JWTAuthenticator) generateTokenWithClaims(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates the access token
func (a *JWTAuthenticator) ValidateAccessToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.secret)
}

// ValidateRefreshToken validates the refresh token
func (a *JWTAuthenticator) ValidateRefreshToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.refreshSecret)
}

func (a *JWTAuthenticator) validate(token, secret string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
}
