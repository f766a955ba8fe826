package platform

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/store"
	"github.com/ougirez/volstat/internal/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// Parser turns an uploaded spreadsheet into an analysis.
type Parser interface {
	Parse(ctx context.Context, file *domain.UploadFile) (*domain.AnalysisResult, error)
}

// Service is the server side of the statistics contracts: it analyzes uploads and
// keeps confirmed statistics in the store. Store failures that carry no status of
// their own are logged and surfaced as ErrStoreUnavailable.
type Service struct {
	store  store.Store
	parser Parser
}

func NewPlatformService(store store.Store, parser Parser) *Service {
	return &Service{store: store, parser: parser}
}

// AnalyzeUpload parses the file and, in parallel, checks that it was not uploaded before.
func (s *Service) AnalyzeUpload(ctx context.Context, file *domain.UploadFile, uploadedBy string) (*domain.AnalysisResult, error) {
	var result *domain.AnalysisResult

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		result, err = s.parser.Parse(egCtx, file)
		if err != nil {
			logger.Warnf(ctx, "parser.Parse, filename-%s: %s", file.Name, err.Error())
		}
		return err
	})
	eg.Go(func() error {
		existing, err := s.store.GetFileByChecksum(egCtx, utils.Checksum(file.Data))
		switch {
		case errors.Is(err, constants.ErrDBNotFound):
			return nil
		case err != nil:
			return s.storeErr(ctx, "store.GetFileByChecksum", err)
		}
		logger.Warnf(ctx, "file %s duplicates %s", file.Name, existing.ID)
		return constants.ErrDuplicateUpload
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result.UploadedBy = uploadedBy
	return result, nil
}

func (s *Service) ConfirmUpload(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (*domain.ConfirmReceipt, error) {
	receipt, err := s.store.ConfirmUpload(ctx, result, confirmedAt)
	if err != nil {
		return nil, s.storeErr(ctx, "store.ConfirmUpload", err)
	}

	logger.Infof(ctx, "confirmed %s as %s: %d cities, %d volunteers",
		result.Filename, receipt.FileID, result.CitiesCount, result.TotalVolunteersAllCities)
	return receipt, nil
}

func (s *Service) GetFile(ctx context.Context, fileID string) (*domain.UploadedFileDetails, error) {
	details, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, s.storeErr(ctx, "store.GetFile", err)
	}
	return details, nil
}

func (s *Service) ListUploadedFiles(ctx context.Context) ([]*domain.UploadedFileRecord, error) {
	files, err := s.store.ListUploadedFiles(ctx)
	if err != nil {
		return nil, s.storeErr(ctx, "store.ListUploadedFiles", err)
	}
	return files, nil
}

func (s *Service) DeleteFile(ctx context.Context, fileID string, deletedAt time.Time) (*domain.UploadedFileRecord, error) {
	record, err := s.store.DeleteFile(ctx, fileID, deletedAt)
	if err != nil {
		return nil, s.storeErr(ctx, "store.DeleteFile", err)
	}
	return record, nil
}

func (s *Service) DeleteRegionStatistics(ctx context.Context, region domain.Region, deletedAt time.Time) error {
	if err := s.store.DeleteRegionStatistics(ctx, region, deletedAt); err != nil {
		return s.storeErr(ctx, "store.DeleteRegionStatistics", err)
	}
	return nil
}

// FetchCurrentSnapshot reads the persisted snapshot, retrying transient failures.
func (s *Service) FetchCurrentSnapshot(ctx context.Context) (snapshot *domain.Snapshot, err error) {
	err = backoff.Retry(
		func() error {
			var fetchErr error
			snapshot, fetchErr = s.store.FetchCurrentSnapshot(ctx)
			if fetchErr != nil {
				logger.Warnf(ctx, "store.FetchCurrentSnapshot: %s", fetchErr.Error())
			}
			return fetchErr
		},
		backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewConstantBackOff(200*time.Millisecond), 3),
			ctx,
		),
	)
	if err != nil {
		return nil, s.storeErr(ctx, "store.FetchCurrentSnapshot", err)
	}
	return snapshot, nil
}

func (s *Service) ListExportDetails(ctx context.Context, region domain.Region, month, year int) ([]domain.OpportunityDetail, error) {
	details, err := s.store.ListExportDetails(ctx, region, month, year)
	if err != nil {
		return nil, s.storeErr(ctx, "store.ListExportDetails", err)
	}
	return details, nil
}

func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	var ce *constants.CodedError
	if errors.As(err, &ce) {
		return ce
	}
	logger.Errorf(ctx, "%s: %s", op, err.Error())
	return constants.ErrStoreUnavailable
}
