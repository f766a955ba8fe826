package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

var uploadedFileColumns = []string{
	"id", "filename", "checksum", "upload_date", "uploaded_by", "month", "year", "regions_count", "total_volunteers",
}

func (s *store) ConfirmUpload(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (*domain.ConfirmReceipt, error) {
	record := &domain.UploadedFileRecord{
		ID:              uuid.NewString(),
		Filename:        result.Filename,
		Checksum:        result.Checksum,
		UploadDate:      confirmedAt,
		UploadedBy:      result.UploadedBy,
		Month:           result.DetectedMonth,
		Year:            result.DetectedYear,
		RegionsCount:    result.CitiesCount,
		TotalVolunteers: result.TotalVolunteersAllCities,
	}

	err := xpgx.InTx(ctx, s.pool, func(tx xpgx.Querier) error {
		if _, err := xpgx.Execx(ctx, tx, insertFileQuery(record)); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}

		if len(result.AllRegionsData) > 0 {
			regionsQuery, err := insertFileRegionsQuery(record.ID, result.AllRegionsData)
			if err != nil {
				return err
			}
			if _, err = xpgx.Execx(ctx, tx, regionsQuery); err != nil {
				return fmt.Errorf("insert file regions: %w", err)
			}

			snapshotQuery, err := upsertSnapshotRegionsQuery(record.ID, result.AllRegionsData, confirmedAt)
			if err != nil {
				return err
			}
			if _, err = xpgx.Execx(ctx, tx, snapshotQuery); err != nil {
				return fmt.Errorf("upsert snapshot regions: %w", err)
			}
		}

		if _, err := xpgx.Execx(ctx, tx, upsertSnapshotMetaQuery(confirmedAt, &record.Month, &record.Year)); err != nil {
			return fmt.Errorf("upsert snapshot meta: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Errorf(ctx, "ConfirmUpload, filename-%s: %s", record.Filename, err.Error())
		return nil, wrapErr(err)
	}

	return &domain.ConfirmReceipt{
		FileID:                record.ID,
		LastModified:          confirmedAt,
		ConfirmationTimestamp: confirmedAt,
	}, nil
}

func (s *store) GetFileByChecksum(ctx context.Context, checksum string) (*domain.UploadedFileRecord, error) {
	query := builder().Select(uploadedFileColumns...).
		From(tableUploadedFiles).
		Where(sq.Eq{"checksum": checksum})

	selected, err := xpgx.Getx[domain.UploadedFileRecord](ctx, s.pool, query)
	if err != nil {
		return nil, wrapErr(err)
	}
	return selected, nil
}

// GetFile returns one uploaded file with the regions it contributed, whether or not
// they are still live in the snapshot.
func (s *store) GetFile(ctx context.Context, fileID string) (*domain.UploadedFileDetails, error) {
	query := builder().Select(uploadedFileColumns...).
		From(tableUploadedFiles).
		Where(sq.Eq{"id": fileID})

	record, err := xpgx.Getx[domain.UploadedFileRecord](ctx, s.pool, query)
	if err != nil {
		err = wrapErr(err)
		if errors.Is(err, constants.ErrDBNotFound) {
			return nil, constants.ErrFileNotFound
		}
		logger.Errorf(ctx, "GetFile, id-%s: %s", fileID, err.Error())
		return nil, err
	}

	rows, err := xpgx.Selectx[snapshotRegionRow](ctx, s.pool, fileRegionsQuery(fileID))
	if err != nil {
		logger.Errorf(ctx, "GetFile regions, id-%s: %s", fileID, err.Error())
		return nil, wrapErr(err)
	}

	details := &domain.UploadedFileDetails{UploadedFileRecord: *record, Regions: []*domain.RegionStatistics{}}
	for _, row := range rows {
		if rs, ok := row.toRegionStatistics(ctx); ok {
			details.Regions = append(details.Regions, rs)
		}
	}
	return details, nil
}

func (s *store) ListUploadedFiles(ctx context.Context) ([]*domain.UploadedFileRecord, error) {
	selected, err := xpgx.Selectx[domain.UploadedFileRecord](ctx, s.pool, listFilesQuery())
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}
	return selected, nil
}

// DeleteFile removes the file row; file_regions and snapshot_regions follow through
// on delete cascade.
func (s *store) DeleteFile(ctx context.Context, fileID string, deletedAt time.Time) (*domain.UploadedFileRecord, error) {
	var deleted *domain.UploadedFileRecord

	err := xpgx.InTx(ctx, s.pool, func(tx xpgx.Querier) error {
		query := builder().Delete(tableUploadedFiles).
			Where(sq.Eq{"id": fileID}).
			Suffix("returning " + joinColumns(uploadedFileColumns))

		var err error
		deleted, err = xpgx.Getx[domain.UploadedFileRecord](ctx, tx, query)
		if err != nil {
			return err
		}

		_, err = xpgx.Execx(ctx, tx, upsertSnapshotMetaQuery(deletedAt, nil, nil))
		return err
	})
	if err != nil {
		err = wrapErr(err)
		if errors.Is(err, constants.ErrDBNotFound) {
			return nil, constants.ErrFileNotFound
		}
		logger.Errorf(ctx, "DeleteFile, id-%s: %s", fileID, err.Error())
		return nil, err
	}

	return deleted, nil
}

func insertFileQuery(r *domain.UploadedFileRecord) sq.InsertBuilder {
	return builder().Insert(tableUploadedFiles).
		Columns(uploadedFileColumns...).
		Values(r.ID, r.Filename, r.Checksum, r.UploadDate, r.UploadedBy, r.Month, r.Year, r.RegionsCount, r.TotalVolunteers)
}

func insertFileRegionsQuery(fileID string, regions map[domain.Region]*domain.RegionStatistics) (sq.InsertBuilder, error) {
	query := builder().Insert(tableFileRegions).
		Columns("file_id", "region", "categories", "details", "total_volunteers")

	for _, r := range domain.AllRegions() {
		rs, ok := regions[r]
		if !ok || rs == nil {
			continue
		}
		categories, details, err := marshalRegion(rs)
		if err != nil {
			return query, err
		}
		query = query.Values(fileID, string(r), categories, details, rs.TotalVolunteers)
	}
	return query, nil
}

func upsertSnapshotRegionsQuery(fileID string, regions map[domain.Region]*domain.RegionStatistics, at time.Time) (sq.InsertBuilder, error) {
	query := builder().Insert(tableSnapshotRegions).
		Columns("region", "file_id", "categories", "details", "total_volunteers", "updated_at")

	for _, r := range domain.AllRegions() {
		rs, ok := regions[r]
		if !ok || rs == nil {
			continue
		}
		categories, details, err := marshalRegion(rs)
		if err != nil {
			return query, err
		}
		query = query.Values(string(r), fileID, categories, details, rs.TotalVolunteers, at)
	}

	return query.Suffix(`
on conflict (region)
do update
set
	file_id = excluded.file_id,
	categories = excluded.categories,
	details = excluded.details,
	total_volunteers = excluded.total_volunteers,
	updated_at = excluded.updated_at`), nil
}

// upsertSnapshotMetaQuery keeps the stored month and year when they are nil.
func upsertSnapshotMetaQuery(lastModified time.Time, month, year *int) sq.InsertBuilder {
	m, y := 0, 0
	set := "last_modified = excluded.last_modified"
	if month != nil && year != nil {
		m, y = *month, *year
		set += ", month = excluded.month, year = excluded.year"
	}

	return builder().Insert(tableSnapshotMeta).
		Columns("id", "last_modified", "month", "year").
		Values(1, lastModified, m, y).
		Suffix("on conflict (id) do update set " + set)
}

func listFilesQuery() sq.SelectBuilder {
	return builder().Select(uploadedFileColumns...).
		From(tableUploadedFiles).
		OrderBy("upload_date desc")
}

func fileRegionsQuery(fileID string) sq.SelectBuilder {
	return builder().Select(snapshotRegionColumns...).
		From(tableFileRegions).
		Where(sq.Eq{"file_id": fileID}).
		OrderBy("region")
}

func marshalRegion(rs *domain.RegionStatistics) (categories, details []byte, err error) {
	c := rs.Categories
	if c == nil {
		c = []domain.CategoryEntry{}
	}
	categories, err = sonic.Marshal(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	d := rs.Details
	if d == nil {
		d = []domain.OpportunityDetail{}
	}
	details, err = sonic.Marshal(d)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal details: %w", err)
	}
	return categories, details, nil
}
