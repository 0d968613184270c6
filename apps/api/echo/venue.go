package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examdesk/examblock/core/venue"
)

type venueApi struct {
	svc *venue.Service
}

func registerVenueAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *venue.Service) {
	api := venueApi{svc: svc}

	vg := g.Group("/venues", jwt)
	vg.POST("", api.create, adminMiddleware())
	vg.GET("", api.query)
	vg.GET("/:code", api.retrieve)
	vg.PUT("/:code", api.update, adminMiddleware())
	vg.DELETE("/:code", api.destroy, adminMiddleware())
}

// Handlers

func (api *venueApi) create(ctx echo.Context) error {
	var data venue.NewVenue
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVenue")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	v, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating venue")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *venueApi) query(ctx echo.Context) error {
	venues, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying venues")
	}
	if venues == nil {
		venues = []venue.Venue{}
	}
	return ctx.JSON(http.StatusOK, venues)
}

func (api *venueApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding venue")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *venueApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "finding venue")
	}

	var data venue.UpdateVenue
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVenue")
	}
	if err = data.Validate(orig); err != nil {
		return err
	}

	v, err := api.svc.Update(ctx.Request().Context(), orig.Code, data)
	if err != nil {
		return errors.Wrap(err, "updating venue")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *venueApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return errors.Wrap(err, "finding venue")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("code")); err != nil {
		return errors.Wrap(err, "deleting venue")
	}
	return ctx.NoContent(http.StatusNoContent)
}
