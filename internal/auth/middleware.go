// Package auth resolves the caller identity for session-keyed operations.
// Tokens are issued elsewhere; this boundary only verifies them. Anonymous
// callers act as "guest", matching the mobile client's behavior.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// GuestUser is the identity used when no credentials are presented.
	GuestUser = "guest"

	userContextKey = "auth.user_id"
)

// UserID returns the identity resolved by Middleware, or GuestUser.
func UserID(c echo.Context) string {
	if v, ok := c.Get(userContextKey).(string); ok && v != "" {
		return v
	}
	return GuestUser
}

// Middleware verifies a Bearer JWT when one is presented and stores the
// subject in the request context. Requests without a token pass through as
// guest. When enforce is false a bad token also degrades to guest instead of
// failing, which keeps local development tokenless.
func Middleware(secret string, enforce bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(userContextKey, GuestUser)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				if enforce {
					return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
				}
				return next(c)
			}

			sub, err := verify(raw, secret)
			if err != nil {
				if enforce {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				return next(c)
			}
			c.Set(userContextKey, sub)
			return next(c)
		}
	}
}

func verify(raw, secret string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
