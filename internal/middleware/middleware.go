package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Echo context keys filled from validated JWT claims.
const (
	ContextUserID = "user_id"
	ContextEmail  = "user_email"
)

// JWTAuth validates the Authorization bearer token and stores the user ID
// claim on the context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			tokenStr := strings.TrimPrefix(header, "Bearer ")
			if tokenStr == "" || tokenStr == header {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"msg":    "توکن احراز هویت ارسال نشده است",
					"obj":    nil,
				})
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"msg":    "توکن نامعتبر است",
					"obj":    nil,
				})
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status": false,
					"msg":    "توکن نامعتبر است",
					"obj":    nil,
				})
			}

			c.Set(ContextUserID, sub)
			if email, _ := claims["email"].(string); email != "" {
				c.Set(ContextEmail, email)
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user ID from the context.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// UserEmail returns the authenticated user's email, if the token carried one.
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextEmail).(string)
	return email
}

// CORS sets permissive CORS headers for the web frontend.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if c.Request().Method == "OPTIONS" {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
