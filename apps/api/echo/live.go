package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerLiveAPI(admin *echo.Group, live LiveFeed) {
	admin.GET("/live", func(ctx echo.Context) error {
		if err := live.ServeWS(ctx.Response(), ctx.Request()); err != nil {
			// the upgrader has already answered the client
			return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed").SetInternal(err)
		}
		return nil
	})
}
