package controller

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/service/aggregation"
	"github.com/ougirez/volstat/internal/service/deletion"
	"github.com/ougirez/volstat/internal/service/export"
	"github.com/ougirez/volstat/internal/service/statistics"
	"github.com/ougirez/volstat/internal/service/upload"
)

// FileCatalog reads confirmed uploads. ListUploadedFiles is newest first.
type FileCatalog interface {
	ListUploadedFiles(ctx context.Context) ([]*domain.UploadedFileRecord, error)
	GetFile(ctx context.Context, fileID string) (*domain.UploadedFileDetails, error)
}

type Controller struct {
	store    *statistics.Store
	engine   *aggregation.Engine
	uploads  *upload.Registry
	cascade  *deletion.Cascade
	exporter *export.Exporter
	files    FileCatalog

	maxUploadSize int64
}

func NewController(
	store *statistics.Store,
	engine *aggregation.Engine,
	uploads *upload.Registry,
	cascade *deletion.Cascade,
	exporter *export.Exporter,
	files FileCatalog,
	maxUploadSize int64,
) *Controller {
	return &Controller{
		store:    store,
		engine:   engine,
		uploads:  uploads,
		cascade:  cascade,
		exporter: exporter,
		files:    files,

		maxUploadSize: maxUploadSize,
	}
}

func principalOf(ctx echo.Context) (*domain.Principal, error) {
	p, ok := ctx.Get(constants.CtxKeyPrincipal).(*domain.Principal)
	if !ok {
		return nil, constants.ErrUnauthorized
	}
	return p, nil
}
