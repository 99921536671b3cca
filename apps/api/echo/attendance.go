package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const errInvalidCoordinates = "coordinates must be finite, with latitude in [-90, 90] and longitude in [-180, 180]"

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g, admin *echo.Group, svc *attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	// student endpoints
	g.GET("/attendance/status", api.status)
	g.POST("/attendance", api.checkIn)

	// admin endpoints
	admin.GET("/settings", api.settings)
	admin.PUT("/settings/zone", api.setZone)
	admin.PUT("/settings/window", api.setWindow)

	admin.GET("/attempts", api.queryAttempts)
	admin.DELETE("/attempts", api.clearAttempts)

	admin.GET("/analytics", api.summary)
	admin.GET("/analytics/students/:prn", api.studentReport)
}

// Handlers

func (api *attendanceApi) status(ctx echo.Context) error {
	st, err := api.svc.Status(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting attendance status")
	}
	return ctx.JSON(http.StatusOK, st)
}

// checkIn answers 200 with the evaluation for every outcome except INVALID_LOCATION,
// which the student can fix and is reported as a 400 on the coordinates.
func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.CheckIn(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}
	if res.Outcome == attendance.OutcomeInvalidLocation {
		return core.NewValidationError(
			nil,
			core.FieldError{Field: "latitude", Error: errInvalidCoordinates},
			core.FieldError{Field: "longitude", Error: errInvalidCoordinates},
		)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) settings(ctx echo.Context) error {
	st, err := api.svc.Settings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *attendanceApi) setZone(ctx echo.Context) error {
	var data attendance.UpdateZone
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateZone")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.SetZone(ctx.Request().Context(), data.Zone())
	if err != nil {
		return errors.Wrap(err, "setting allowed zone")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *attendanceApi) setWindow(ctx echo.Context) error {
	var data attendance.UpdateWindow
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateWindow")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.SetWindow(ctx.Request().Context(), *data.Open)
	if err != nil {
		return errors.Wrap(err, "setting attendance window")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *attendanceApi) queryAttempts(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	attempts, err := api.svc.QueryAttempts(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []attendance.CheckInAttempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

type clearResponse struct {
	Deleted int64 `json:"deleted"`
}

func (api *attendanceApi) clearAttempts(ctx echo.Context) error {
	n, err := api.svc.ClearAttempts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "clearing attempts")
	}
	return ctx.JSON(http.StatusOK, clearResponse{Deleted: n})
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context(), ctx.QueryParam("date"))
	if err != nil {
		return errors.Wrap(err, "summarizing attempts")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *attendanceApi) studentReport(ctx echo.Context) error {
	report, err := api.svc.StudentReport(ctx.Request().Context(), ctx.Param("prn"))
	if err != nil {
		return errors.Wrap(err, "building student report")
	}
	return ctx.JSON(http.StatusOK, report)
}
