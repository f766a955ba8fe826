package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

type exportRow struct {
	Region  string                     `db:"region"`
	Details []domain.OpportunityDetail `db:"details"`
}

// ListExportDetails returns opportunity rows of every file confirmed for the period,
// oldest upload first.
func (s *store) ListExportDetails(ctx context.Context, region domain.Region, month, year int) ([]domain.OpportunityDetail, error) {
	rows, err := xpgx.Selectx[exportRow](ctx, s.pool, exportDetailsQuery(region, month, year))
	if err != nil {
		logger.Error(ctx, err.Error())
		return nil, wrapErr(err)
	}

	var details []domain.OpportunityDetail
	for _, row := range rows {
		details = append(details, row.Details...)
	}
	return details, nil
}

func exportDetailsQuery(region domain.Region, month, year int) sq.SelectBuilder {
	query := builder().Select("fr.region", "fr.details").
		From(tableFileRegions+" fr").
		Join(tableUploadedFiles+" uf on uf.id=fr.file_id").
		Where(sq.Eq{"uf.month": month, "uf.year": year}).
		OrderBy("uf.upload_date", "fr.region")

	if region != "" {
		query = query.Where(sq.Eq{"fr.region": string(region)})
	}
	return query
}
