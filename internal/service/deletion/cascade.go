package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/statistics"
)

// Remover deletes persisted statistics. DeleteFile removes an uploaded file and
// everything persisted from it, or returns constants.ErrFileNotFound.
// DeleteRegionStatistics removes one region's live statistics, or returns
// constants.ErrRegionHasNoData.
type Remover interface {
	DeleteFile(ctx context.Context, fileID string, deletedAt time.Time) (*domain.UploadedFileRecord, error)
	DeleteRegionStatistics(ctx context.Context, region domain.Region, deletedAt time.Time) error
}

type Result struct {
	Success      bool                       `json:"success"`
	Message      string                     `json:"message"`
	LastModified time.Time                  `json:"lastModified,omitempty"`
	Removed      []*domain.RegionStatistics `json:"removed,omitempty"`
}

// Cascade removes an uploaded file from persistence and then drops whatever the
// file contributed to the in-memory snapshot.
type Cascade struct {
	remover Remover
	store   *statistics.Store
	now     func() time.Time
}

func NewCascade(remover Remover, store *statistics.Store) *Cascade {
	return &Cascade{remover: remover, store: store, now: time.Now}
}

// WithClock replaces the clock used for deletion timestamps.
func (c *Cascade) WithClock(now func() time.Time) *Cascade {
	c.now = now
	return c
}

// DeleteFile is idempotent from the caller's point of view: deleting an id twice
// yields ErrFileNotFound the second time and leaves the snapshot alone.
func (c *Cascade) DeleteFile(ctx context.Context, fileID string) (*Result, error) {
	if fileID == "" {
		return &Result{Message: constants.ErrFileNotFound.Error()}, constants.ErrFileNotFound
	}

	deletedAt := c.now()
	record, err := c.remover.DeleteFile(ctx, fileID, deletedAt)
	switch {
	case errors.Is(err, constants.ErrFileNotFound), errors.Is(err, constants.ErrDBNotFound):
		logger.Warnf(ctx, "deletion: file %s not found", fileID)
		return &Result{Message: constants.ErrFileNotFound.Error()}, constants.ErrFileNotFound
	case err != nil:
		perr := constants.NewPersistenceError(err, constants.MsgDeleteFailed)
		logger.Errorf(ctx, "deletion: delete %s: %s", fileID, err.Error())
		return &Result{Message: perr.Error()}, perr
	}

	filename := fileID
	if record != nil && record.Filename != "" {
		filename = record.Filename
	}

	removed := c.store.ApplyDeletion(fileID, filename, deletedAt)
	logger.Infof(ctx, "deletion: file %s removed %d regions", fileID, len(removed))

	return &Result{
		Success:      true,
		Message:      fmt.Sprintf("تم حذف الملف \"%s\" وجميع البيانات المرتبطة به بنجاح", filename),
		LastModified: deletedAt,
		Removed:      removed,
	}, nil
}

// DeleteRegion clears the statistics of one region, whichever file they came from.
func (c *Cascade) DeleteRegion(ctx context.Context, region domain.Region) (*Result, error) {
	deletedAt := c.now()
	err := c.remover.DeleteRegionStatistics(ctx, region, deletedAt)
	switch {
	case errors.Is(err, constants.ErrRegionHasNoData), errors.Is(err, constants.ErrDBNotFound):
		logger.Warnf(ctx, "deletion: region %s has no statistics", region)
		return &Result{Message: constants.ErrRegionHasNoData.Error()}, constants.ErrRegionHasNoData
	case err != nil:
		perr := constants.NewPersistenceError(err, constants.MsgDeleteStatisticsFailed)
		logger.Errorf(ctx, "deletion: delete region %s: %s", region, err.Error())
		return &Result{Message: perr.Error()}, perr
	}

	res := &Result{
		Success:      true,
		Message:      fmt.Sprintf("تم حذف إحصائيات %s بنجاح", region),
		LastModified: deletedAt,
		Removed:      []*domain.RegionStatistics{},
	}
	if removed, ok := c.store.ApplyRegionDeletion(region, deletedAt); ok {
		res.Removed = append(res.Removed, removed)
	} else {
		logger.Warnf(ctx, "deletion: region %s was already empty in memory", region)
	}
	return res, nil
}
