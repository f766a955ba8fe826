package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain/dto"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/service/deletion"
)

func (c *Controller) ListFiles(ctx echo.Context) error {
	files, err := c.files.ListUploadedFiles(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, dto.FilesResponse{Success: true, Data: files, Count: len(files)})
}

// GetFile returns one uploaded file with the regions it contributed.
func (c *Controller) GetFile(ctx echo.Context) error {
	var req dto.FilePathRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	file, err := c.files.GetFile(ctx.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dto.FileResponse{Success: true, Data: file})
}

// DeleteFile answers with {success, message} on failure too, with the status of the error.
func (c *Controller) DeleteFile(ctx echo.Context) error {
	var req dto.FilePathRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	res, err := c.cascade.DeleteFile(ctx.Request().Context(), req.ID)
	return deleteResponse(ctx, res, err, constants.MsgDeleteFailed)
}

func deleteResponse(ctx echo.Context, res *deletion.Result, err error, fallback string) error {
	if err != nil {
		return ctx.JSON(constants.CodeOf(err), dto.DeleteFileResponse{
			Success: false,
			Message: constants.UserMessage(err, fallback),
		})
	}

	lastModified := res.LastModified
	return ctx.JSON(http.StatusOK, dto.DeleteFileResponse{
		Success:      true,
		Message:      res.Message,
		LastModified: &lastModified,
		Removed:      res.Removed,
	})
}
