package export

import (
	"context"
	"fmt"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DefaultSheetName = "Statistics"
)

var headers = []string{
	"رقم الفرصة التطوعية",
	"قائد الفرصة",
	"اسم الفرصة التطوعية",
	"تاريخ البداية",
	"تاريخ النهاية",
	"اجمالي عدد المتطوعين",
}

// Source returns the opportunity rows confirmed for a period. An empty region
// means every region.
type Source interface {
	ListExportDetails(ctx context.Context, region domain.Region, month, year int) ([]domain.OpportunityDetail, error)
}

type Request struct {
	Region string
	Month  int
	Year   int
}

type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Exporter struct {
	source    Source
	sheetName string
}

func NewExporter(source Source, sheetName string) *Exporter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &Exporter{source: source, sheetName: sheetName}
}

// Validate runs before any call to the source.
func Validate(req Request) (domain.Region, error) {
	if req.Month < 1 || req.Month > 12 || req.Year < 1 {
		return "", constants.NewValidationError(constants.MsgMissingExportPeriod)
	}
	if req.Region == "" {
		return "", nil
	}
	region, ok := domain.ParseRegion(req.Region)
	if !ok {
		return "", constants.ErrUnknownRegion
	}
	return region, nil
}

func Filename(region domain.Region, year, month int) string {
	return fmt.Sprintf("statistics_%s_%d_%d.xlsx", region, year, month)
}

func (e *Exporter) Export(ctx context.Context, req Request) (*Document, error) {
	region, err := Validate(req)
	if err != nil {
		return nil, err
	}

	details, err := e.source.ListExportDetails(ctx, region, req.Month, req.Year)
	if err != nil {
		logger.Errorf(ctx, "export: list details %d/%d: %s", req.Month, req.Year, err.Error())
		return nil, constants.NewPersistenceError(err, constants.MsgExportFailed)
	}
	if len(details) == 0 {
		return nil, constants.ErrNoExportData
	}

	data, err := e.render(details)
	if err != nil {
		logger.Errorf(ctx, "export: render: %s", err.Error())
		return nil, constants.NewCodedError(500, constants.MsgExportFailed)
	}

	logger.Infof(ctx, "export: %d rows for %s %d/%d", len(details), region, req.Month, req.Year)
	return &Document{
		Filename:    Filename(region, req.Year, req.Month),
		ContentType: ContentType,
		Data:        data,
	}, nil
}

func (e *Exporter) render(details []domain.OpportunityDetail) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", e.sheetName); err != nil {
		return nil, fmt.Errorf("SetSheetName: %w", err)
	}
	if err := f.SetSheetView(e.sheetName, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return nil, fmt.Errorf("SetSheetView: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(e.sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("SetSheetRow: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewStyle: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err = f.SetCellStyle(e.sheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("SetCellStyle: %w", err)
	}

	for i, d := range details {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{d.OpportunityNumber, d.OpportunityLeader, d.OpportunityName, d.StartDate, d.EndDate, d.Volunteers}
		if err = f.SetSheetRow(e.sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("SetSheetRow: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("WriteToBuffer: %w", err)
	}
	return buf.Bytes(), nil
}

func boolPtr(b bool) *bool {
	return &b
}
