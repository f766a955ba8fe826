package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain/dto"
	"github.com/ougirez/volstat/internal/service/access"
)

func (c *Controller) GetMe(ctx echo.Context) error {
	principal, err := principalOf(ctx)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, dto.MeResponse{
		Email:       principal.Email,
		Role:        principal.Role,
		Permissions: access.Names(access.Permissions(principal.Role)),
	})
}
