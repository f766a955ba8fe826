package deletion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/service/statistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemover struct {
	mx      sync.Mutex
	files   map[string]*domain.UploadedFileRecord
	regions map[domain.Region]bool
	err     error
	calls   int
}

func (f *fakeRemover) DeleteFile(_ context.Context, fileID string, _ time.Time) (*domain.UploadedFileRecord, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls++

	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.files[fileID]
	if !ok {
		return nil, constants.ErrFileNotFound
	}
	delete(f.files, fileID)
	return rec, nil
}

func (f *fakeRemover) DeleteRegionStatistics(_ context.Context, region domain.Region, _ time.Time) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.calls++

	if f.err != nil {
		return f.err
	}
	if !f.regions[region] {
		return constants.ErrRegionHasNoData
	}
	delete(f.regions, region)
	return nil
}

var deletedAt = time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

func seededStore(t *testing.T) *statistics.Store {
	t.Helper()

	store := statistics.NewStore()
	upload := func(fileID string, region domain.Region, cat string, v int) {
		rs := &domain.RegionStatistics{Region: region}
		rs.Add(cat, v)
		store.ApplyUpload(&domain.AnalysisResult{
			AllRegionsData: map[domain.Region]*domain.RegionStatistics{region: rs},
			Filename:       fileID + ".xlsx",
			DetectedMonth:  3,
			DetectedYear:   2025,
		}, &domain.ConfirmReceipt{FileID: fileID, LastModified: deletedAt.Add(-time.Hour)})
	}
	upload("F1", domain.RegionYanbu, "زيارات", 40)
	upload("F2", domain.RegionBadr, "التوعية", 10)
	return store
}

func newCascade(r Remover, s *statistics.Store) *Cascade {
	return NewCascade(r, s).WithClock(func() time.Time { return deletedAt })
}

func TestDeleteFileRemovesOnlyItsRegions(t *testing.T) {
	store := seededStore(t)
	remover := &fakeRemover{files: map[string]*domain.UploadedFileRecord{
		"F1": {ID: "F1", Filename: "yanbu.xlsx"},
	}}

	var kinds []statistics.EventKind
	store.Subscribe(func(ev statistics.Event) { kinds = append(kinds, ev.Kind) })

	badrBefore, _ := store.Region(domain.RegionBadr)

	res, err := newCascade(remover, store).DeleteFile(context.Background(), "F1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "yanbu.xlsx")
	assert.Equal(t, deletedAt, res.LastModified)
	require.Len(t, res.Removed, 1)
	assert.Equal(t, domain.RegionYanbu, res.Removed[0].Region)

	snap := store.Snapshot()
	assert.NotContains(t, snap.Data, domain.RegionYanbu)
	assert.Equal(t, badrBefore, snap.Data[domain.RegionBadr])
	assert.Equal(t, 10, snap.TotalVolunteers)
	assert.Equal(t, deletedAt, snap.LastModified)

	assert.Equal(t, []statistics.EventKind{
		statistics.EventDataUploaded,
		statistics.EventStatisticsUpdated,
		statistics.EventFileDeleted,
	}, kinds)
}

func TestDeleteFileTwice(t *testing.T) {
	store := seededStore(t)
	remover := &fakeRemover{files: map[string]*domain.UploadedFileRecord{
		"F1": {ID: "F1", Filename: "yanbu.xlsx"},
	}}
	c := newCascade(remover, store)

	_, err := c.DeleteFile(context.Background(), "F1")
	require.NoError(t, err)
	after := store.Snapshot()

	res, err := c.DeleteFile(context.Background(), "F1")
	assert.ErrorIs(t, err, constants.ErrFileNotFound)
	assert.False(t, res.Success)
	assert.Equal(t, constants.ErrFileNotFound.Error(), res.Message)
	assert.Equal(t, after, store.Snapshot())
}

func TestDeleteUnknownFile(t *testing.T) {
	store := seededStore(t)
	before := store.Snapshot()

	res, err := newCascade(&fakeRemover{}, store).DeleteFile(context.Background(), "nope")
	assert.ErrorIs(t, err, constants.ErrFileNotFound)
	assert.False(t, res.Success)
	assert.Equal(t, before, store.Snapshot())
}

func TestDeleteFilePersistenceFailure(t *testing.T) {
	store := seededStore(t)
	before := store.Snapshot()

	res, err := newCascade(&fakeRemover{err: errors.New("")}, store).DeleteFile(context.Background(), "F1")
	var perr *constants.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.MsgDeleteFailed, perr.Error())
	assert.False(t, res.Success)
	assert.Equal(t, before, store.Snapshot())
}

func TestDeleteSupersededFileStillRefreshesSnapshot(t *testing.T) {
	store := seededStore(t)
	before := store.Snapshot()
	remover := &fakeRemover{files: map[string]*domain.UploadedFileRecord{
		"OLD": {ID: "OLD", Filename: "old.xlsx"},
	}}

	var events []statistics.Event
	store.Subscribe(func(ev statistics.Event) { events = append(events, ev) })

	res, err := newCascade(remover, store).DeleteFile(context.Background(), "OLD")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Removed)
	assert.Equal(t, deletedAt, res.LastModified)

	after := store.Snapshot()
	assert.Equal(t, before.Data, after.Data)
	assert.Equal(t, deletedAt, after.LastModified)
	assert.Greater(t, after.Version, before.Version)

	require.Len(t, events, 3)
	assert.Equal(t, statistics.EventDataUploaded, events[0].Kind)
	assert.Equal(t, statistics.EventFileDeleted, events[2].Kind)
	assert.Equal(t, "OLD", events[2].FileID)
	assert.Equal(t, "old.xlsx", events[2].Filename)
}

func TestDeleteRegion(t *testing.T) {
	store := seededStore(t)
	remover := &fakeRemover{regions: map[domain.Region]bool{domain.RegionYanbu: true}}

	var kinds []statistics.EventKind
	store.Subscribe(func(ev statistics.Event) { kinds = append(kinds, ev.Kind) })

	c := newCascade(remover, store)
	res, err := c.DeleteRegion(context.Background(), domain.RegionYanbu)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, string(domain.RegionYanbu))
	require.Len(t, res.Removed, 1)
	assert.Equal(t, 40, res.Removed[0].TotalVolunteers)

	snap := store.Snapshot()
	assert.NotContains(t, snap.Data, domain.RegionYanbu)
	assert.Contains(t, snap.Data, domain.RegionBadr)
	assert.Equal(t, deletedAt, snap.LastModified)
	assert.Equal(t, []statistics.EventKind{statistics.EventStatisticsUpdated}, kinds)

	res, err = c.DeleteRegion(context.Background(), domain.RegionYanbu)
	assert.ErrorIs(t, err, constants.ErrRegionHasNoData)
	assert.False(t, res.Success)
	assert.Equal(t, snap, store.Snapshot())
}

func TestDeleteRegionPersistenceFailure(t *testing.T) {
	store := seededStore(t)
	before := store.Snapshot()

	res, err := newCascade(&fakeRemover{err: errors.New("")}, store).DeleteRegion(context.Background(), domain.RegionBadr)
	var perr *constants.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, constants.MsgDeleteStatisticsFailed, perr.Error())
	assert.False(t, res.Success)
	assert.Equal(t, before, store.Snapshot())
}
