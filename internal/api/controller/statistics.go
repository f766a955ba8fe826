package controller

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/domain/dto"
	"github.com/ougirez/volstat/internal/pkg/constants"
)

func (c *Controller) GetCurrentStatistics(ctx echo.Context) error {
	snapshot := c.store.Snapshot()

	resp := dto.SnapshotResponse{Success: true, Data: snapshot}
	if len(snapshot.Data) == 0 {
		resp.Message = "لا توجد إحصائيات متاحة"
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) GetDashboard(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.engine.Dashboard())
}

func (c *Controller) GetRegionStatistics(ctx echo.Context) error {
	region, err := regionParam(ctx)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, c.engine.Region(region))
}

// DeleteRegionStatistics clears one region from the detail screen. It answers like
// DeleteFile.
func (c *Controller) DeleteRegionStatistics(ctx echo.Context) error {
	region, err := regionParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.cascade.DeleteRegion(ctx.Request().Context(), region)
	return deleteResponse(ctx, res, err, constants.MsgDeleteStatisticsFailed)
}

func regionParam(ctx echo.Context) (domain.Region, error) {
	name, err := url.PathUnescape(ctx.Param("region"))
	if err != nil {
		return "", constants.ErrUnknownRegion
	}

	region, ok := domain.ParseRegion(name)
	if !ok {
		return "", constants.ErrUnknownRegion
	}
	return region, nil
}
