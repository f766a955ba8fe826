package parser

import (
	"strings"

	"github.com/ougirez/volstat/internal/domain"
)

type column int

const (
	colCity column = iota
	colCategory
	colMale
	colFemale
	colOpportunityNumber
	colOpportunityName
	colOpportunityLeader
	colStartDate
	colEndDate
	columnsCount
)

// headerAliases lists the accepted header texts per column, Arabic first.
var headerAliases = [columnsCount][]string{
	colCity:              {"مدينة / محافظة", "City / Province"},
	colCategory:          {"نوع الفرصة التطوعية", "Opportunity Type"},
	colMale:              {"عدد المتطوعين", "Male Volunteers"},
	colFemale:            {"عدد المتطوعات", "Female Volunteers"},
	colOpportunityNumber: {"رقم الفرصة التطوعية", "Volunteer Opportunity Number"},
	colOpportunityName:   {"اسم الفرصة التطوعية", "Volunteer Opportunity Name"},
	colOpportunityLeader: {"قائد الفرصة", "Opportunity Leader"},
	colStartDate:         {"تاريخ البداية", "Start Date"},
	colEndDate:           {"تاريخ النهاية", "End Date"},
}

// header maps each known column to its index in the sheet, -1 when absent.
type header [columnsCount]int

func matchHeader(row []string) (header, bool) {
	var h header
	for i := range h {
		h[i] = -1
	}

	for idx, cell := range row {
		name := domain.Normalize(cell)
		if name == "" {
			continue
		}
		for col, aliases := range headerAliases {
			if h[col] >= 0 {
				continue
			}
			for _, alias := range aliases {
				if strings.EqualFold(name, alias) {
					h[col] = idx
					break
				}
			}
		}
	}

	return h, h[colCity] >= 0
}

func (h header) has(col column) bool {
	return h[col] >= 0
}

func (h header) cell(row []string, col column) string {
	idx := h[col]
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return domain.Normalize(row[idx])
}
