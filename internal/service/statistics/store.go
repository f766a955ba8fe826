package statistics

import (
	"sort"
	"sync"
	"time"

	"github.com/ougirez/volstat/internal/domain"
)

type EventKind string

const (
	// EventDataUploaded follows every successful confirm or delete.
	EventDataUploaded EventKind = "data_uploaded"
	// EventStatisticsUpdated follows any delete and carries the new snapshot.
	EventStatisticsUpdated EventKind = "statistics_updated"
	// EventFileDeleted carries what a deleted file contributed.
	EventFileDeleted EventKind = "file_deleted"
)

type Event struct {
	Kind         EventKind                  `json:"kind"`
	LastModified time.Time                  `json:"lastModified"`
	Version      uint64                     `json:"version"`
	Regions      []domain.Region            `json:"regions,omitempty"`
	Snapshot     *domain.Snapshot           `json:"snapshot,omitempty"`
	FileID       string                     `json:"fileId,omitempty"`
	Filename     string                     `json:"filename,omitempty"`
	Removed      []*domain.RegionStatistics `json:"removed,omitempty"`
}

type Subscriber func(Event)

// Store owns the current Snapshot. All mutations go through ApplyUpload,
// ApplyDeletion and ApplyRegionDeletion; readers always get copies.
//
// Mutations are serialized but not versioned against each other: a confirm and a
// delete touching the same region resolve last-write-wins. Version lets observers
// notice that the snapshot moved under them.
type Store struct {
	mu       sync.RWMutex
	snapshot *domain.Snapshot

	subsMx sync.Mutex
	subs   map[int]Subscriber
	nextID int
}

func NewStore() *Store {
	return &Store{
		snapshot: domain.NewSnapshot(),
		subs:     make(map[int]Subscriber),
	}
}

// Load replaces the snapshot wholesale, e.g. with the persisted state at startup.
func (s *Store) Load(snapshot *domain.Snapshot) {
	snap := snapshot.Clone()
	for r, rs := range snap.Data {
		if rs == nil {
			delete(snap.Data, r)
			continue
		}
		rs.Region = r
		rs.Recount()
	}
	snap.Recount()

	s.mu.Lock()
	snap.Version = s.snapshot.Version + 1
	s.snapshot = snap
	s.mu.Unlock()
}

func (s *Store) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

func (s *Store) Region(r domain.Region) (*domain.RegionStatistics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.snapshot.Data[r]
	return rs.Clone(), ok
}

func (s *Store) LastModified() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.LastModified
}

// ApplyUpload merges a confirmed analysis. Each region present in the result fully
// replaces the region's previous statistics.
func (s *Store) ApplyUpload(result *domain.AnalysisResult, receipt *domain.ConfirmReceipt) Event {
	s.mu.Lock()
	regions := make([]domain.Region, 0, len(result.AllRegionsData))
	for r, rs := range result.AllRegionsData {
		if rs == nil {
			continue
		}
		merged := rs.Clone()
		merged.Region = r
		merged.SourceFileID = receipt.FileID
		merged.Recount()
		s.snapshot.Data[r] = merged
		regions = append(regions, r)
	}
	s.snapshot.Recount()
	s.snapshot.LastModified = receipt.LastModified
	s.snapshot.Month = result.DetectedMonth
	s.snapshot.Year = result.DetectedYear
	s.snapshot.Version++

	ev := Event{
		Kind:         EventDataUploaded,
		LastModified: s.snapshot.LastModified,
		Version:      s.snapshot.Version,
		Regions:      sortRegions(regions),
		FileID:       receipt.FileID,
		Filename:     result.Filename,
	}
	s.mu.Unlock()

	s.publish(ev)
	return ev
}

// ApplyDeletion drops every region whose statistics came from fileID and records the
// deletion time. A file whose regions were all replaced by later uploads removes
// nothing but still moves LastModified and Version, since the file itself is gone.
func (s *Store) ApplyDeletion(fileID, filename string, deletedAt time.Time) []*domain.RegionStatistics {
	s.mu.Lock()
	removed := []*domain.RegionStatistics{}
	for r, rs := range s.snapshot.Data {
		if rs.SourceFileID == fileID {
			removed = append(removed, rs)
			delete(s.snapshot.Data, r)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return regionIndex(removed[i].Region) < regionIndex(removed[j].Region) })

	s.snapshot.Recount()
	s.snapshot.LastModified = deletedAt
	s.snapshot.Version++

	regions := make([]domain.Region, 0, len(removed))
	for _, rs := range removed {
		regions = append(regions, rs.Region)
	}
	snap := s.snapshot.Clone()
	s.mu.Unlock()

	s.publish(Event{Kind: EventDataUploaded, LastModified: deletedAt, Version: snap.Version, Regions: regions})
	s.publish(Event{Kind: EventStatisticsUpdated, LastModified: deletedAt, Version: snap.Version, Snapshot: snap})
	s.publish(Event{
		Kind:         EventFileDeleted,
		LastModified: deletedAt,
		Version:      snap.Version,
		Regions:      regions,
		FileID:       fileID,
		Filename:     filename,
		Removed:      removed,
	})
	return removed
}

// ApplyRegionDeletion drops the statistics of one region regardless of the file they
// came from. It reports false and leaves the snapshot untouched when the region has
// no data.
func (s *Store) ApplyRegionDeletion(region domain.Region, deletedAt time.Time) (*domain.RegionStatistics, bool) {
	s.mu.Lock()
	removed, ok := s.snapshot.Data[region]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	delete(s.snapshot.Data, region)

	s.snapshot.Recount()
	s.snapshot.LastModified = deletedAt
	s.snapshot.Version++
	snap := s.snapshot.Clone()
	s.mu.Unlock()

	s.publish(Event{
		Kind:         EventStatisticsUpdated,
		LastModified: deletedAt,
		Version:      snap.Version,
		Regions:      []domain.Region{region},
		Snapshot:     snap,
		Removed:      []*domain.RegionStatistics{removed},
	})
	return removed, true
}

// Subscribe registers fn for every event. Events are delivered synchronously, in
// mutation order, outside the snapshot lock.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subsMx.Lock()
	defer s.subsMx.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.subsMx.Lock()
		defer s.subsMx.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(ev Event) {
	s.subsMx.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.subsMx.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func sortRegions(rs []domain.Region) []domain.Region {
	sort.Slice(rs, func(i, j int) bool { return regionIndex(rs[i]) < regionIndex(rs[j]) })
	return rs
}

func regionIndex(r domain.Region) int {
	for i, known := range domain.AllRegions() {
		if known == r {
			return i
		}
	}
	return len(domain.AllRegions())
}
