package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/exam"
)

type examApi struct {
	svc *exam.Service
}

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *exam.Service) {
	api := examApi{svc: svc}

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.createSubject, adminMiddleware())
	sg.GET("", api.querySubjects)
	sg.GET("/:code", api.retrieveSubject)
	sg.PUT("/:code", api.updateSubject, adminMiddleware())
	sg.DELETE("/:code", api.destroySubject, adminMiddleware())

	ug := g.Group("/units", jwt)
	ug.POST("", api.createUnit, adminMiddleware())
	ug.GET("", api.queryUnits)
	ug.GET("/:subject/:unit", api.retrieveUnit)
	ug.DELETE("/:subject/:unit", api.destroyUnit, adminMiddleware())

	eg := g.Group("/exams", jwt)
	eg.POST("", api.createExam, adminMiddleware())
	eg.GET("", api.queryExams)
	eg.GET("/:id", api.retrieveExam)
	eg.DELETE("/:id", api.destroyExam, adminMiddleware())
}

// Subject handlers

func (api *examApi) createSubject(ctx echo.Context) error {
	var data exam.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *examApi) querySubjects(ctx echo.Context) error {
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []exam.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *examApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *examApi) updateSubject(ctx echo.Context) error {
	var data exam.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.UpdateSubject(ctx.Request().Context(), ctx.Param("code"), data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *examApi) destroySubject(ctx echo.Context) error {
	if _, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return errors.Wrap(err, "finding subject")
	}
	if err := api.svc.DeleteSubjects(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Unit handlers

func (api *examApi) createUnit(ctx echo.Context) error {
	var data exam.NewUnit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUnit")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	unit, err := api.svc.CreateUnit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating unit")
	}
	return ctx.JSON(http.StatusCreated, unit)
}

func (api *examApi) queryUnits(ctx echo.Context) error {
	units, err := api.svc.QueryUnits(ctx.Request().Context(), ctx.QueryParam("subject"))
	if err != nil {
		return errors.Wrap(err, "querying units")
	}
	if units == nil {
		units = []exam.Unit{}
	}
	return ctx.JSON(http.StatusOK, units)
}

func (api *examApi) retrieveUnit(ctx echo.Context) error {
	ref, err := exam.ParseUnitRef(ctx.Param("subject") + "/" + ctx.Param("unit"))
	if err != nil {
		return errHTTPNotFound
	}
	unit, err := api.svc.GetUnit(ctx.Request().Context(), ref)
	if err != nil {
		return errors.Wrap(err, "finding unit")
	}
	return ctx.JSON(http.StatusOK, unit)
}

func (api *examApi) destroyUnit(ctx echo.Context) error {
	ref, err := exam.ParseUnitRef(ctx.Param("subject") + "/" + ctx.Param("unit"))
	if err != nil {
		return errHTTPNotFound
	}
	if _, err = api.svc.GetUnit(ctx.Request().Context(), ref); err != nil {
		return errors.Wrap(err, "finding unit")
	}
	if err = api.svc.DeleteUnit(ctx.Request().Context(), ref); err != nil {
		return errors.Wrap(err, "deleting unit")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Exam handlers

func (api *examApi) createExam(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	ex, err := api.svc.CreateExam(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, ex)
}

func (api *examApi) queryExams(ctx echo.Context) error {
	exams, err := api.svc.QueryExams(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *examApi) retrieveExam(ctx echo.Context) error {
	ex, err := api.svc.GetExam(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding exam")
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *examApi) destroyExam(ctx echo.Context) error {
	if _, err := api.svc.GetExam(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "finding exam")
	}
	if err := api.svc.DeleteExams(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.NoContent(http.StatusNoContent)
}
