package controller

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/domain/dto"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/upload"
)

// CreateUpload starts an upload session with the multipart "file" field selected.
func (c *Controller) CreateUpload(ctx echo.Context) error {
	principal, err := principalOf(ctx)
	if err != nil {
		return err
	}

	file, err := readUploadFile(ctx, c.maxUploadSize)
	if err != nil {
		return err
	}

	id, pipeline := c.uploads.Create(principal.Email)
	if err = pipeline.SelectFile(file); err != nil {
		c.uploads.Remove(id)
		return err
	}

	logger.Infof(ctx.Request().Context(), "upload session %s: selected %s (%d bytes)", id, file.Name, file.Size)
	return ctx.JSON(http.StatusCreated, dto.UploadSessionResponse{ID: id, Status: pipeline.Status()})
}

func (c *Controller) GetUpload(ctx echo.Context) error {
	id, pipeline, err := c.session(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dto.UploadSessionResponse{ID: id, Status: pipeline.Status()})
}

func (c *Controller) AnalyzeUpload(ctx echo.Context) error {
	id, pipeline, err := c.session(ctx)
	if err != nil {
		return err
	}

	if _, err = pipeline.Analyze(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dto.UploadSessionResponse{ID: id, Status: pipeline.Status()})
}

func (c *Controller) ConfirmUpload(ctx echo.Context) error {
	id, pipeline, err := c.session(ctx)
	if err != nil {
		return err
	}

	if _, err = pipeline.Confirm(ctx.Request().Context()); err != nil {
		return err
	}

	status := pipeline.Status()
	c.uploads.Remove(id)
	return ctx.JSON(http.StatusOK, dto.UploadSessionResponse{ID: id, Status: status})
}

// CancelUpload discards the session. The snapshot is never touched.
func (c *Controller) CancelUpload(ctx echo.Context) error {
	id, pipeline, err := c.session(ctx)
	if err != nil {
		return err
	}

	if err = pipeline.Cancel(); err != nil {
		return err
	}
	c.uploads.Remove(id)

	status := pipeline.Status()
	status.State = upload.StateCancelled
	return ctx.JSON(http.StatusOK, dto.UploadSessionResponse{ID: id, Status: status})
}

func (c *Controller) session(ctx echo.Context) (string, *upload.Pipeline, error) {
	var req dto.SessionPathRequest
	if err := ctx.Bind(&req); err != nil {
		return "", nil, constants.ErrSessionNotFound
	}

	principal, err := principalOf(ctx)
	if err != nil {
		return "", nil, err
	}

	pipeline, err := c.uploads.Get(req.ID, principal.Email)
	if err != nil {
		return "", nil, err
	}
	return req.ID, pipeline, nil
}

// readUploadFile reads the multipart "file" field. maxSize <= 0 means no limit.
func readUploadFile(ctx echo.Context, maxSize int64) (*domain.UploadFile, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return nil, constants.NewValidationError("لم يتم إرفاق ملف")
	}
	if maxSize > 0 && fh.Size > maxSize {
		return nil, constants.ErrUploadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &domain.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Data:        data,
	}, nil
}
