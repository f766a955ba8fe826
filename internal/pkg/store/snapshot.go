package store

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

type snapshotRegionRow struct {
	Region          string                     `db:"region"`
	FileID          string                     `db:"file_id"`
	Categories      []domain.CategoryEntry     `db:"categories"`
	Details         []domain.OpportunityDetail `db:"details"`
	TotalVolunteers int                        `db:"total_volunteers"`
}

type snapshotMetaRow struct {
	LastModified time.Time `db:"last_modified"`
	Month        int       `db:"month"`
	Year         int       `db:"year"`
}

var (
	snapshotRegionColumns = []string{"region", "file_id", "categories", "details", "total_volunteers"}
	snapshotMetaColumns   = []string{"last_modified", "month", "year"}
)

func (s *store) FetchCurrentSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snapshot := domain.NewSnapshot()

	query := builder().Select(snapshotRegionColumns...).
		From(tableSnapshotRegions).
		OrderBy("region")

	rows, err := xpgx.Selectx[snapshotRegionRow](ctx, s.pool, query)
	if err != nil {
		logger.Errorf(ctx, "FetchCurrentSnapshot: %s", err.Error())
		return nil, wrapErr(err)
	}

	for _, row := range rows {
		if rs, ok := row.toRegionStatistics(ctx); ok {
			snapshot.Data[rs.Region] = rs
		}
	}
	snapshot.Recount()

	metaQuery := builder().Select(snapshotMetaColumns...).
		From(tableSnapshotMeta).
		Where(sq.Eq{"id": 1})

	meta, err := xpgx.Getx[snapshotMetaRow](ctx, s.pool, metaQuery)
	switch err = wrapErr(err); {
	case errors.Is(err, constants.ErrDBNotFound):
	case err != nil:
		logger.Errorf(ctx, "FetchCurrentSnapshot meta: %s", err.Error())
		return nil, err
	default:
		snapshot.LastModified = meta.LastModified
		snapshot.Month = meta.Month
		snapshot.Year = meta.Year
	}

	return snapshot, nil
}

func (row *snapshotRegionRow) toRegionStatistics(ctx context.Context) (*domain.RegionStatistics, bool) {
	region, ok := domain.ParseRegion(row.Region)
	if !ok {
		logger.Warnf(ctx, "unknown region %q in %s", row.Region, row.FileID)
		return nil, false
	}
	rs := &domain.RegionStatistics{
		Region:       region,
		Categories:   row.Categories,
		SourceFileID: row.FileID,
		Details:      row.Details,
	}
	rs.Recount()
	if rs.TotalVolunteers != row.TotalVolunteers {
		logger.Warnf(ctx, "%s total %d does not match categories %d", region, row.TotalVolunteers, rs.TotalVolunteers)
	}
	return rs, true
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
