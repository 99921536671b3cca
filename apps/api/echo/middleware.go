package echoapi

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	adminKeyHeader = "X-Admin-Key"
	adminKeyQuery  = "admin_key"

	ctxStudentKey = "student"
)

// adminKeyMiddleware guards admin endpoints with the configured API key.
// Websocket clients can't set headers, hence the query fallback.
func adminKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + adminKeyHeader + ",query:" + adminKeyQuery,
		Validator: func(key string, _ echo.Context) (bool, error) {
			if apiKey == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
		ErrorHandler: func(_ error, ctx echo.Context) error {
			if ctx.Request().Header.Get(adminKeyHeader) == "" && ctx.QueryParam(adminKeyQuery) == "" {
				return errHttpMissingKey
			}
			return errHttpUnauthorized
		},
	})
}
