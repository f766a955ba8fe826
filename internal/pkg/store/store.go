package store

import (
	"context"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

type Store interface {
	ConfirmUpload(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (*domain.ConfirmReceipt, error)
	GetFileByChecksum(ctx context.Context, checksum string) (*domain.UploadedFileRecord, error)
	GetFile(ctx context.Context, fileID string) (*domain.UploadedFileDetails, error)
	ListUploadedFiles(ctx context.Context) ([]*domain.UploadedFileRecord, error)
	DeleteFile(ctx context.Context, fileID string, deletedAt time.Time) (*domain.UploadedFileRecord, error)
	DeleteRegionStatistics(ctx context.Context, region domain.Region, deletedAt time.Time) error
	FetchCurrentSnapshot(ctx context.Context) (*domain.Snapshot, error)
	ListExportDetails(ctx context.Context, region domain.Region, month, year int) ([]domain.OpportunityDetail, error)
}

type store struct {
	pool Pool
}

func NewStore(pool Pool) Store {
	return &store{pool}
}
