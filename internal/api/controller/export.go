package controller

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain/dto"
	"github.com/ougirez/volstat/internal/service/export"
)

func (c *Controller) ExportStatistics(ctx echo.Context) error {
	var req dto.ExportRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	doc, err := c.exporter.Export(ctx.Request().Context(), export.Request{
		Region: req.Region,
		Month:  req.Month,
		Year:   req.Year,
	})
	if err != nil {
		return err
	}

	h := ctx.Response().Header()
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(doc.Filename)))
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	return ctx.Blob(http.StatusOK, doc.ContentType, doc.Data)
}
