package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/pkg/utils"
	"github.com/xuri/excelize/v2"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Parser turns an uploaded spreadsheet into an AnalysisResult.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// WithClock sets the clock used when no start date can be read from the sheet.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

func (p *Parser) Parse(ctx context.Context, file *domain.UploadFile) (*domain.AnalysisResult, error) {
	rows, err := readRows(file.Data)
	if err != nil {
		return nil, fmt.Errorf("خطأ في تحليل الملف: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.analyzeRows(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("خطأ في تحليل الملف: %w", err)
	}

	result.Filename = file.Name
	result.Checksum = utils.Checksum(file.Data)
	result.AnalyzedAt = p.now()
	return result, nil
}

func readRows(data []byte) ([][]string, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return readWorkbook(data)
	case bytes.HasPrefix(data, oleMagic):
		return nil, fmt.Errorf("صيغة xls الثنائية غير مدعومة، يرجى حفظ الملف بصيغة xlsx")
	case bytes.Contains(bytes.ToLower(data[:min(len(data), 4096)]), []byte("<table")):
		return readHTMLTable(data)
	}
	return nil, fmt.Errorf("الملف ليس ملف Excel صالحاً")
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("excelize.OpenReader: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("الملف لا يحتوي على أوراق")
	}

	idx := f.GetActiveSheetIndex()
	if idx < 0 || idx >= len(sheets) {
		idx = 0
	}

	rows, err := f.GetRows(sheets[idx], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

// readHTMLTable reads the first table of an HTML document saved with an .xls
// extension, the format most reporting portals export.
func readHTMLTable(data []byte) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("goquery.NewDocumentFromReader: %w", err)
	}

	var rows [][]string
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.TrimSpace(cell.Text()))
		})
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("لم يتم العثور على جدول في الملف")
	}
	return rows, nil
}

func (p *Parser) analyzeRows(ctx context.Context, rows [][]string) (*domain.AnalysisResult, error) {
	headerIdx := -1
	var h header
	for i, row := range rows {
		if found, ok := matchHeader(row); ok {
			headerIdx, h = i, found
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("لم يتم العثور على عمود المدينة")
	}
	if !h.has(colCategory) {
		return nil, fmt.Errorf("لم يتم العثور على عمود نوع الفرصة التطوعية")
	}

	result := &domain.AnalysisResult{AllRegionsData: make(map[domain.Region]*domain.RegionStatistics)}
	period := newPeriodCounter()

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowNo := i + 1

		if start, ok := parseDate(h.cell(row, colStartDate)); ok {
			period.add(start)
		}

		region, ok := domain.ParseRegion(h.cell(row, colCity))
		if !ok {
			result.SkippedRows++
			logger.Debugf(ctx, "parser: row %d: unknown city %q", rowNo, h.cell(row, colCity))
			continue
		}

		male, err := parseCount(h.cell(row, colMale))
		if err != nil {
			return nil, fmt.Errorf("الصف %d، عدد المتطوعين: %w", rowNo, err)
		}
		female, err := parseCount(h.cell(row, colFemale))
		if err != nil {
			return nil, fmt.Errorf("الصف %d، عدد المتطوعات: %w", rowNo, err)
		}
		volunteers := male + female

		rs, ok := result.AllRegionsData[region]
		if !ok {
			rs = &domain.RegionStatistics{Region: region}
			result.AllRegionsData[region] = rs
		}
		if rs.Add(domain.NormalizeCategory(h.cell(row, colCategory)), volunteers) {
			result.TotalCategoriesFound++
		}
		rs.Details = append(rs.Details, domain.OpportunityDetail{
			OpportunityNumber: orNotAvailable(h.cell(row, colOpportunityNumber)),
			OpportunityName:   orNotAvailable(h.cell(row, colOpportunityName)),
			OpportunityLeader: orNotAvailable(h.cell(row, colOpportunityLeader)),
			Region:            region,
			StartDate:         formatDate(h.cell(row, colStartDate)),
			EndDate:           formatDate(h.cell(row, colEndDate)),
			Volunteers:        volunteers,
		})
		result.TotalVolunteersAllCities += volunteers
	}

	result.CitiesCount = len(result.AllRegionsData)
	result.DetectedMonth, result.DetectedYear = period.result(p.now())
	return result, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
