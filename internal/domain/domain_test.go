package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRegion(t *testing.T) {
	r, ok := ParseRegion("  العلا ")
	assert.True(t, ok)
	assert.Equal(t, RegionAlUla, r)

	r, ok = ParseRegion("المدينة")
	assert.True(t, ok)
	assert.Equal(t, RegionMadinah, r)

	r, ok = ParseRegion("\u202bينبع\u202c\u200f")
	assert.True(t, ok)
	assert.Equal(t, RegionYanbu, r)

	_, ok = ParseRegion("الرياض")
	assert.False(t, ok)
	assert.Len(t, AllRegions(), 9)
}

func TestColorOf(t *testing.T) {
	assert.Equal(t, "#17a2b8", ColorOf("زيارات"))
	assert.Equal(t, "#28a745", ColorOf("\u202bالتدريب والتطوير\u202c"))
	assert.Equal(t, DefaultColor, ColorOf("فئة غير معروفة"))
	assert.Equal(t, DefaultColor, ColorOf(""))
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, string(CategoryVisits), NormalizeCategory("visits"))
	assert.Equal(t, string(CategoryMedicalCoverage), NormalizeCategory(" Medical Coverage "))
	assert.Equal(t, "شيء آخر", NormalizeCategory("شيء   آخر"))
	assert.True(t, IsKnownCategory(NormalizeCategory("Crafts")))
}

func TestParseRoleFailsClosed(t *testing.T) {
	assert.Equal(t, RoleManager, ParseRole("manager"))
	assert.Equal(t, RoleDigitalAdmin, ParseRole(" DIGITAL_ADMIN "))
	assert.Equal(t, RoleExplorer, ParseRole("root"))
	assert.Equal(t, RoleExplorer, ParseRole(""))
}

func TestRegionStatisticsAdd(t *testing.T) {
	var rs RegionStatistics
	assert.True(t, rs.Add("زيارات", 20))
	assert.True(t, rs.Add("السلال", 5))
	assert.False(t, rs.Add("زيارات", 30))

	assert.Equal(t, []CategoryEntry{{"زيارات", 50}, {"السلال", 5}}, rs.Categories)
	assert.Equal(t, 55, rs.TotalVolunteers)

	rs.TotalVolunteers = 0
	rs.Recount()
	assert.Equal(t, 55, rs.TotalVolunteers)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	s.Data[RegionBadr] = &RegionStatistics{Region: RegionBadr, Categories: []CategoryEntry{{"زيارات", 1}}, TotalVolunteers: 1}

	c := s.Clone()
	c.Data[RegionBadr].Categories[0].Value = 99
	delete(c.Data, RegionBadr)

	assert.Equal(t, 1, s.Data[RegionBadr].Categories[0].Value)
}
