package aggregation

import (
	"sort"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/shopspring/decimal"
)

type CategoryView struct {
	Name       string  `json:"name"`
	Value      int     `json:"value"`
	Color      string  `json:"color"`
	Percentage float64 `json:"percentage"`
}

// RegionView is what the detail screen of one region shows.
type RegionView struct {
	Region              domain.Region  `json:"region"`
	HasData             bool           `json:"hasData"`
	TotalVolunteers     int            `json:"totalVolunteers"`
	Categories          []CategoryView `json:"categories"`
	Ranked              []CategoryView `json:"ranked"`
	ActiveCategoryCount int            `json:"activeCategoryCount"`
	MaxCategoryValue    int            `json:"maxCategoryValue"`
	Average             int            `json:"average"`
	SourceFileID        string         `json:"sourceFileId,omitempty"`
}

type RegionSummary struct {
	Region          domain.Region  `json:"region"`
	TotalVolunteers int            `json:"totalVolunteers"`
	Percentage      float64        `json:"percentage"`
	Categories      []CategoryView `json:"categories"`
}

type DashboardView struct {
	TotalVolunteers int             `json:"totalVolunteers"`
	LastModified    time.Time       `json:"lastModified"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Version         uint64          `json:"version"`
	Regions         []RegionSummary `json:"regions"`
	Ranking         []RegionSummary `json:"ranking"`
	Distribution    []RegionSummary `json:"distribution"`
	CategoryTotals  []CategoryView  `json:"categoryTotals"`
}

// DeriveView builds the detail view of region. A region without data shows the
// whole taxonomy at zero.
func DeriveView(snapshot *domain.Snapshot, region domain.Region) RegionView {
	view := RegionView{Region: region}

	var rs *domain.RegionStatistics
	if snapshot != nil {
		rs = snapshot.Data[region]
	}
	if rs == nil || len(rs.Categories) == 0 {
		for _, c := range domain.AllCategories() {
			view.Categories = append(view.Categories, CategoryView{Name: string(c), Color: domain.ColorOf(string(c))})
		}
		view.Ranked = RankCategories(view.Categories)
		return view
	}

	view.HasData = true
	view.SourceFileID = rs.SourceFileID
	view.Categories = categoryViews(rs.Categories)
	for _, c := range view.Categories {
		view.TotalVolunteers += c.Value
		if c.Value > 0 {
			view.ActiveCategoryCount++
		}
		if c.Value > view.MaxCategoryValue {
			view.MaxCategoryValue = c.Value
		}
	}
	for i := range view.Categories {
		view.Categories[i].Percentage = Percentage(view.Categories[i].Value, view.TotalVolunteers)
	}
	view.Average = Average(view.TotalVolunteers, view.ActiveCategoryCount)
	view.Ranked = RankCategories(view.Categories)

	return view
}

// DeriveDashboard builds the overview across all regions.
func DeriveDashboard(snapshot *domain.Snapshot) DashboardView {
	if snapshot == nil {
		snapshot = domain.NewSnapshot()
	}
	view := DashboardView{
		LastModified: snapshot.LastModified,
		Month:        snapshot.Month,
		Year:         snapshot.Year,
		Version:      snapshot.Version,
	}

	totals := make(map[string]int)
	var order []string
	for _, r := range domain.AllRegions() {
		summary := RegionSummary{Region: r, Categories: []CategoryView{}}
		if rs := snapshot.Data[r]; rs != nil {
			summary.Categories = categoryViews(rs.Categories)
			for _, c := range rs.Categories {
				summary.TotalVolunteers += c.Value
				if _, ok := totals[c.Name]; !ok {
					order = append(order, c.Name)
				}
				totals[c.Name] += c.Value
			}
		}
		view.TotalVolunteers += summary.TotalVolunteers
		view.Regions = append(view.Regions, summary)
	}

	for i := range view.Regions {
		view.Regions[i].Percentage = Percentage(view.Regions[i].TotalVolunteers, view.TotalVolunteers)
	}
	view.Ranking = RankRegions(view.Regions)
	view.Distribution = NonZeroRegions(view.Ranking)

	for _, name := range order {
		view.CategoryTotals = append(view.CategoryTotals, CategoryView{
			Name:       name,
			Value:      totals[name],
			Color:      domain.ColorOf(name),
			Percentage: Percentage(totals[name], view.TotalVolunteers),
		})
	}
	view.CategoryTotals = RankCategories(view.CategoryTotals)

	return view
}

// RankCategories returns a copy ordered by value, descending; ties keep their order.
func RankCategories(in []CategoryView) []CategoryView {
	out := append([]CategoryView(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// RankRegions returns a copy ordered by total volunteers, descending; ties keep their order.
func RankRegions(in []RegionSummary) []RegionSummary {
	out := append([]RegionSummary(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalVolunteers > out[j].TotalVolunteers })
	return out
}

// NonZeroRegions drops regions with no volunteers, for distribution charts.
func NonZeroRegions(in []RegionSummary) []RegionSummary {
	out := make([]RegionSummary, 0, len(in))
	for _, r := range in {
		if r.TotalVolunteers > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Percentage is value/total*100 rounded to one decimal, or 0 when total is 0.
func Percentage(value, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(value)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1).
		InexactFloat64()
}

// Average is total/active rounded to the nearest integer, or 0 when there is nothing to divide.
func Average(total, active int) int {
	if total <= 0 || active <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(active))).
		Round(0).
		IntPart())
}

func categoryViews(entries []domain.CategoryEntry) []CategoryView {
	out := make([]CategoryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, CategoryView{Name: e.Name, Value: e.Value, Color: domain.ColorOf(e.Name)})
	}
	return out
}
