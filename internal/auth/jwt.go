// Package auth validates bearer tokens and enforces capability checks.
package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// CapabilityEditOthersPosts gates uploads into the shared media library.
	CapabilityEditOthersPosts = "edit_others_posts"
	// RoleAdmin implies every capability.
	RoleAdmin = "admin"

	contextKey = "user"
)

// Claims is the JWT payload issued to API callers.
type Claims struct {
	UserID       string   `json:"user_id"`
	Role         string   `json:"role,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	jwt.RegisteredClaims
}

// Can reports whether the claims grant capability.
func (c *Claims) Can(capability string) bool {
	if c == nil {
		return false
	}
	if strings.EqualFold(c.Role, RoleAdmin) {
		return true
	}
	return slices.Contains(c.Capabilities, capability)
}

// JWTMiddleware validates HS256 bearer tokens and stores the parsed token on the echo context.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(secret),
		ContextKey:  contextKey,
		Skipper:     skipper,
		TokenLookup: "header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		},
	})
}

// ClaimsFromContext returns the claims stored by JWTMiddleware.
func ClaimsFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// UserIDFromContext returns the caller's user id.
func UserIDFromContext(c echo.Context) (string, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return "", err
	}
	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		userID = strings.TrimSpace(claims.Subject)
	}
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user id missing")
	}
	return userID, nil
}

// RequireCapability rejects callers whose token lacks capability with 403.
func RequireCapability(capability string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return err
			}
			if !claims.Can(capability) {
				return echo.NewHTTPError(http.StatusForbidden, "Sorry, you are not allowed to do that.")
			}
			return next(c)
		}
	}
}

// GenerateToken signs a token for userID with the given role and capabilities.
func GenerateToken(userID, role string, capabilities []string, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, errors.New("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := Claims{
		UserID:       userID,
		Role:         role,
		Capabilities: capabilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
