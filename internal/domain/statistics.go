package domain

import "time"

type CategoryEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// OpportunityDetail is one spreadsheet row, kept for the export feature.
type OpportunityDetail struct {
	OpportunityNumber string `json:"opportunity_number"`
	OpportunityName   string `json:"opportunity_name"`
	OpportunityLeader string `json:"opportunity_leader"`
	Region            Region `json:"city"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Volunteers        int    `json:"volunteers"`
}

// RegionStatistics keeps categories in source-file order. TotalVolunteers is always
// the sum of category values.
type RegionStatistics struct {
	Region          Region              `json:"region"`
	Categories      []CategoryEntry     `json:"data"`
	TotalVolunteers int                 `json:"totalVolunteers"`
	SourceFileID    string              `json:"sourceFileId,omitempty"`
	Details         []OpportunityDetail `json:"details,omitempty"`
}

// Add accumulates value into the named category, appending it on first sight.
func (rs *RegionStatistics) Add(name string, value int) (added bool) {
	for i := range rs.Categories {
		if rs.Categories[i].Name == name {
			rs.Categories[i].Value += value
			rs.TotalVolunteers += value
			return false
		}
	}
	rs.Categories = append(rs.Categories, CategoryEntry{Name: name, Value: value})
	rs.TotalVolunteers += value
	return true
}

// Recount restores TotalVolunteers from the categories.
func (rs *RegionStatistics) Recount() {
	total := 0
	for _, c := range rs.Categories {
		total += c.Value
	}
	rs.TotalVolunteers = total
}

func (rs *RegionStatistics) Clone() *RegionStatistics {
	if rs == nil {
		return nil
	}
	out := *rs
	out.Categories = append([]CategoryEntry(nil), rs.Categories...)
	out.Details = append([]OpportunityDetail(nil), rs.Details...)
	return &out
}

// AnalysisResult is the unconfirmed output of parsing an uploaded spreadsheet.
type AnalysisResult struct {
	CitiesCount              int                          `json:"citiesCount"`
	DetectedMonth            int                          `json:"detectedMonth"`
	DetectedYear             int                          `json:"detectedYear"`
	TotalVolunteersAllCities int                          `json:"totalVolunteersAllCities"`
	TotalCategoriesFound     int                          `json:"totalCategoriesFound"`
	AllRegionsData           map[Region]*RegionStatistics `json:"allCitiesData"`

	Filename    string    `json:"filename"`
	Checksum    string    `json:"checksum"`
	UploadedBy  string    `json:"uploadedBy"`
	AnalyzedAt  time.Time `json:"analyzedAt"`
	SkippedRows int       `json:"skippedRows"`
}

func (ar *AnalysisResult) Clone() *AnalysisResult {
	if ar == nil {
		return nil
	}
	out := *ar
	out.AllRegionsData = make(map[Region]*RegionStatistics, len(ar.AllRegionsData))
	for r, rs := range ar.AllRegionsData {
		out.AllRegionsData[r] = rs.Clone()
	}
	return &out
}

// ConfirmReceipt is returned by the persistence side once an analysis is stored.
type ConfirmReceipt struct {
	FileID                string    `json:"fileId"`
	LastModified          time.Time `json:"lastModified"`
	ConfirmationTimestamp time.Time `json:"confirmationTimestamp"`
}

type UploadedFileRecord struct {
	ID              string    `json:"id" db:"id"`
	Filename        string    `json:"filename" db:"filename"`
	Checksum        string    `json:"checksum" db:"checksum"`
	UploadDate      time.Time `json:"upload_date" db:"upload_date"`
	UploadedBy      string    `json:"uploaded_by" db:"uploaded_by"`
	Month           int       `json:"month" db:"month"`
	Year            int       `json:"year" db:"year"`
	RegionsCount    int       `json:"cities_count" db:"regions_count"`
	TotalVolunteers int       `json:"total_volunteers" db:"total_volunteers"`
}

// UploadedFileDetails is a file record with the regions the file contributed.
type UploadedFileDetails struct {
	UploadedFileRecord
	Regions []*RegionStatistics `json:"regions"`
}

// Snapshot is the confirmed aggregate state across all regions.
type Snapshot struct {
	Data            map[Region]*RegionStatistics `json:"data"`
	LastModified    time.Time                    `json:"lastModified"`
	Month           int                          `json:"month"`
	Year            int                          `json:"year"`
	TotalVolunteers int                          `json:"totalVolunteers"`
	Version         uint64                       `json:"version"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Data: make(map[Region]*RegionStatistics)}
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return NewSnapshot()
	}
	out := *s
	out.Data = make(map[Region]*RegionStatistics, len(s.Data))
	for r, rs := range s.Data {
		out.Data[r] = rs.Clone()
	}
	return &out
}

// Recount recomputes TotalVolunteers across regions.
func (s *Snapshot) Recount() {
	total := 0
	for _, rs := range s.Data {
		total += rs.TotalVolunteers
	}
	s.TotalVolunteers = total
}

// UploadFile is a file picked by the user, before analysis.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}
