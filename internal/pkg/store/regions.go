package store

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

type deletedRegionRow struct {
	Region string `db:"region"`
}

// DeleteRegionStatistics drops the live statistics of region. The uploaded file and
// its file_regions rows stay, so the file can still be listed and exported.
func (s *store) DeleteRegionStatistics(ctx context.Context, region domain.Region, deletedAt time.Time) error {
	err := xpgx.InTx(ctx, s.pool, func(tx xpgx.Querier) error {
		if _, err := xpgx.Getx[deletedRegionRow](ctx, tx, deleteSnapshotRegionQuery(region)); err != nil {
			return err
		}

		_, err := xpgx.Execx(ctx, tx, upsertSnapshotMetaQuery(deletedAt, nil, nil))
		return err
	})
	if err != nil {
		err = wrapErr(err)
		if errors.Is(err, constants.ErrDBNotFound) {
			return constants.ErrRegionHasNoData
		}
		logger.Errorf(ctx, "DeleteRegionStatistics, region-%s: %s", region, err.Error())
		return err
	}
	return nil
}

func deleteSnapshotRegionQuery(region domain.Region) sq.DeleteBuilder {
	return builder().Delete(tableSnapshotRegions).
		Where(sq.Eq{"region": string(region)}).
		Suffix("returning region")
}
