package domain

import (
	"strings"
	"unicode"
)

// Region is one of the fixed geographic areas tracked by the platform.
type Region string

const (
	RegionMadinah       Region = "المدينة المنورة"
	RegionAlUla         Region = "العلا"
	RegionYanbu         Region = "ينبع"
	RegionAlHanakiyah   Region = "الحناكية"
	RegionMahdAdhDhahab Region = "مهد الذهب"
	RegionBadr          Region = "بدر"
	RegionKhaybar       Region = "خيبر"
	RegionWadiAlFara    Region = "وادي الفرع"
	RegionAlEis         Region = "العيص"
)

var regions = []Region{
	RegionMadinah,
	RegionAlUla,
	RegionYanbu,
	RegionAlHanakiyah,
	RegionMahdAdhDhahab,
	RegionBadr,
	RegionKhaybar,
	RegionWadiAlFara,
	RegionAlEis,
}

var regionAliases = map[string]Region{
	"المدينة": RegionMadinah,
}

// AllRegions returns the regions in display order.
func AllRegions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// ParseRegion resolves a raw spreadsheet value to a known region.
func ParseRegion(name string) (Region, bool) {
	name = Normalize(name)
	if r, ok := regionAliases[name]; ok {
		return r, true
	}
	for _, r := range regions {
		if string(r) == name {
			return r, true
		}
	}
	return "", false
}

func (r Region) String() string {
	return string(r)
}

// Category is a named activity classification.
type Category string

const (
	CategoryAwareness       Category = "التوعية والتثقيف"
	CategoryTraining        Category = "التدريب والتطوير"
	CategoryVisits          Category = "زيارات"
	CategoryBaskets         Category = "السلال"
	CategoryGreenSaudi      Category = "السعودية الخضراء"
	CategoryMedicalSupport  Category = "الدعم الإسعافي"
	CategoryAssistance      Category = "مساعدات"
	CategoryMedicalCoverage Category = "التغطية الإسعافية"
	CategoryEnvironment     Category = "المحافظة على البيئة وإزالة التشوهات البصرية"
	CategoryVolunteerJob    Category = "تطوعي وظيفتي"
	CategoryMedia           Category = "الإعلام والنشر"
	CategoryCrafts          Category = "الحرفية"
)

// DefaultColor is used for category names outside the taxonomy.
const DefaultColor = "#6c757d"

var categories = []struct {
	category Category
	color    string
	english  string
}{
	{CategoryAwareness, "#007bff", "Awareness"},
	{CategoryTraining, "#28a745", "Training"},
	{CategoryVisits, "#17a2b8", "Visits"},
	{CategoryBaskets, "#795548", "Baskets"},
	{CategoryGreenSaudi, "#6f42c1", "Green Saudi"},
	{CategoryMedicalSupport, "#dc3545", "Medical Support"},
	{CategoryAssistance, "#f8f9fa", "Assistance"},
	{CategoryMedicalCoverage, "#c82333", "Medical Coverage"},
	{CategoryEnvironment, "#ffc107", "Environment"},
	{CategoryVolunteerJob, "#6c757d", "My Volunteer Job"},
	{CategoryMedia, "#0056b3", "Media"},
	{CategoryCrafts, "#D2B48C", "Crafts"},
}

// AllCategories returns the known categories in display order.
func AllCategories() []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.category)
	}
	return out
}

// ColorOf maps any category name to a display color. Unknown names get DefaultColor.
func ColorOf(name string) string {
	name = Normalize(name)
	for _, c := range categories {
		if string(c.category) == name {
			return c.color
		}
	}
	return DefaultColor
}

// IsKnownCategory reports whether name belongs to the taxonomy.
func IsKnownCategory(name string) bool {
	name = Normalize(name)
	for _, c := range categories {
		if string(c.category) == name {
			return true
		}
	}
	return false
}

// NormalizeCategory cleans a raw category label and translates English labels.
// Names outside the taxonomy are returned cleaned but otherwise as is.
func NormalizeCategory(name string) string {
	name = Normalize(name)
	for _, c := range categories {
		if strings.EqualFold(c.english, name) {
			return string(c.category)
		}
	}
	return name
}

// Normalize strips bidi control marks and surrounding whitespace that spreadsheet
// exports tend to carry around Arabic text.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '\u202a' && r <= '\u202e',
			r >= '\u2066' && r <= '\u2069',
			r == '\u200e', r == '\u200f', r == '\ufeff':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
