package upload

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

type fakeAnalyzer struct {
	mx      sync.Mutex
	calls   int
	result  *domain.AnalysisResult
	err     error
	block   chan struct{}
	entered chan struct{}
	gotBy   string
}

func (f *fakeAnalyzer) AnalyzeUpload(ctx context.Context, file *domain.UploadFile, uploadedBy string) (*domain.AnalysisResult, error) {
	f.mx.Lock()
	f.calls++
	f.gotBy = uploadedBy
	f.mx.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result.Clone(), nil
}

type fakeConfirmer struct {
	mx      sync.Mutex
	calls   int
	errs    []error
	block   chan struct{}
	entered chan struct{}
	gotAt   time.Time
}

func (f *fakeConfirmer) ConfirmUpload(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (*domain.ConfirmReceipt, error) {
	f.mx.Lock()
	f.calls++
	f.gotAt = confirmedAt
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mx.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if err != nil {
		return nil, err
	}
	return &domain.ConfirmReceipt{FileID: "file-1", LastModified: confirmedAt, ConfirmationTimestamp: confirmedAt}, nil
}

var fixedNow = time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC)

func alUlaResult() *domain.AnalysisResult {
	rs := &domain.RegionStatistics{Region: domain.RegionAlUla}
	rs.Add("زيارات", 50)
	rs.Add("التدريب والتطوير", 30)
	return &domain.AnalysisResult{
		CitiesCount:              1,
		DetectedMonth:            3,
		DetectedYear:             2025,
		TotalVolunteersAllCities: 80,
		TotalCategoriesFound:     2,
		AllRegionsData:           map[domain.Region]*domain.RegionStatistics{domain.RegionAlUla: rs},
		Filename:                 "march.xlsx",
		Checksum:                 "abc",
	}
}

func xlsxFile() *domain.UploadFile {
	return &domain.UploadFile{Name: "march.xlsx", ContentType: MimeXLSX, Data: []byte("PK")}
}

func newPipeline(a Analyzer, c Confirmer, store *statistics.Store) *Pipeline {
	return NewPipeline(a, c, store, "manager@example.org", WithClock(func() time.Time { return fixedNow }))
}

func TestPipelineHappyPath(t *testing.T) {
	store := statistics.NewStore()
	analyzer := &fakeAnalyzer{result: alUlaResult()}
	confirmer := &fakeConfirmer{}
	p := newPipeline(analyzer, confirmer, store)

	var events []statistics.Event
	store.Subscribe(func(ev statistics.Event) { events = append(events, ev) })

	assert.Equal(t, StateIdle, p.State())
	require.NoError(t, p.SelectFile(xlsxFile()))
	assert.Equal(t, StateFileSelected, p.State())

	res, err := p.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.CitiesCount)
	assert.Equal(t, 80, res.TotalVolunteersAllCities)
	assert.Equal(t, "manager@example.org", analyzer.gotBy)
	assert.Equal(t, StateAnalyzed, p.State())
	assert.Empty(t, store.Snapshot().Data)

	receipt, err := p.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-1", receipt.FileID)
	assert.Equal(t, fixedNow, confirmer.gotAt)
	assert.Equal(t, StateCommitted, p.State())

	snap := store.Snapshot()
	require.Contains(t, snap.Data, domain.RegionAlUla)
	assert.Equal(t, 80, snap.Data[domain.RegionAlUla].TotalVolunteers)
	assert.Equal(t, "file-1", snap.Data[domain.RegionAlUla].SourceFileID)
	assert.Equal(t, fixedNow, snap.LastModified)

	require.Len(t, events, 1)
	assert.Equal(t, statistics.EventDataUploaded, events[0].Kind)
	assert.Equal(t, fixedNow, events[0].LastModified)
}

func TestSelectFileRejectsOtherTypes(t *testing.T) {
	p := newPipeline(&fakeAnalyzer{}, &fakeConfirmer{}, statistics.NewStore())

	err := p.SelectFile(&domain.UploadFile{Name: "report.pdf", ContentType: "application/pdf"})
	var verr *constants.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StateIdle, p.State())

	err = p.SelectFile(&domain.UploadFile{Name: "report.csv", ContentType: "text/csv"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, StateIdle, p.State())

	require.NoError(t, p.SelectFile(&domain.UploadFile{Name: "legacy.XLS", ContentType: "application/octet-stream"}))
	require.NoError(t, p.SelectFile(&domain.UploadFile{Name: "x", ContentType: MimeXLS}))
	assert.Equal(t, StateFileSelected, p.State())
}

func TestAnalyzeFailureReturnsToFileSelected(t *testing.T) {
	store := statistics.NewStore()
	p := newPipeline(&fakeAnalyzer{err: errors.New("عمود المدينة غير موجود")}, &fakeConfirmer{}, store)
	require.NoError(t, p.SelectFile(xlsxFile()))

	_, err := p.Analyze(context.Background())
	var perr *constants.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "عمود المدينة غير موجود", perr.Error())

	st := p.Status()
	assert.Equal(t, StateFileSelected, st.State)
	assert.Nil(t, st.Result)
	assert.Equal(t, "عمود المدينة غير موجود", st.ErrorMessage)
	assert.Empty(t, store.Snapshot().Data)
}

func TestAnalyzeFailureWithoutMessageUsesFallback(t *testing.T) {
	p := newPipeline(&fakeAnalyzer{err: errors.New("")}, &fakeConfirmer{}, statistics.NewStore())
	require.NoError(t, p.SelectFile(xlsxFile()))

	_, err := p.Analyze(context.Background())
	require.Error(t, err)
	assert.Equal(t, constants.MsgAnalyzeFailed, err.Error())
}

func TestAnalyzeOnlyFromFileSelected(t *testing.T) {
	p := newPipeline(&fakeAnalyzer{result: alUlaResult()}, &fakeConfirmer{}, statistics.NewStore())

	_, err := p.Analyze(context.Background())
	assert.ErrorIs(t, err, constants.ErrInvalidTransition)
	assert.Equal(t, StateIdle, p.State())

	_, err = p.Confirm(context.Background())
	assert.ErrorIs(t, err, constants.ErrInvalidTransition)
}

func TestConcurrentAnalyzeIsRejected(t *testing.T) {
	analyzer := &fakeAnalyzer{
		result:  alUlaResult(),
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	p := newPipeline(analyzer, &fakeConfirmer{}, statistics.NewStore())
	require.NoError(t, p.SelectFile(xlsxFile()))

	done := make(chan error, 1)
	go func() {
		_, err := p.Analyze(context.Background())
		done <- err
	}()
	<-analyzer.entered
	assert.Equal(t, StateAnalyzing, p.State())

	_, err := p.Analyze(context.Background())
	assert.ErrorIs(t, err, constants.ErrOperationInProgress)
	assert.ErrorIs(t, p.Cancel(), constants.ErrOperationInProgress)
	assert.ErrorIs(t, p.SelectFile(xlsxFile()), constants.ErrOperationInProgress)

	close(analyzer.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, StateAnalyzed, p.State())
}

func TestConcurrentConfirmIsRejected(t *testing.T) {
	confirmer := &fakeConfirmer{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := statistics.NewStore()
	p := newPipeline(&fakeAnalyzer{result: alUlaResult()}, confirmer, store)
	require.NoError(t, p.SelectFile(xlsxFile()))
	_, err := p.Analyze(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.Confirm(context.Background())
		done <- err
	}()
	<-confirmer.entered
	assert.Equal(t, StateConfirming, p.State())

	_, err = p.Confirm(context.Background())
	assert.ErrorIs(t, err, constants.ErrOperationInProgress)

	close(confirmer.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, confirmer.calls)
	assert.Equal(t, StateCommitted, p.State())
}

func TestConfirmFailureKeepsResultForRetry(t *testing.T) {
	store := statistics.NewStore()
	analyzer := &fakeAnalyzer{result: alUlaResult()}
	confirmer := &fakeConfirmer{errs: []error{constants.NewCodedError(500, "internal server error")}}
	p := newPipeline(analyzer, confirmer, store)

	require.NoError(t, p.SelectFile(xlsxFile()))
	analyzed, err := p.Analyze(context.Background())
	require.NoError(t, err)

	_, err = p.Confirm(context.Background())
	var perr *constants.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 500, perr.Code())

	st := p.Status()
	assert.Equal(t, StateAnalyzed, st.State)
	assert.Equal(t, analyzed, st.Result)
	assert.Equal(t, "internal server error", st.ErrorMessage)
	assert.Empty(t, store.Snapshot().Data)

	_, err = p.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, 2, confirmer.calls)
	assert.Equal(t, StateCommitted, p.State())
	assert.Equal(t, 80, store.Snapshot().Data[domain.RegionAlUla].TotalVolunteers)
}

func TestCancelAfterAnalyzeLeavesSnapshotUntouched(t *testing.T) {
	store := statistics.NewStore()
	before := store.Snapshot()
	confirmer := &fakeConfirmer{}
	p := newPipeline(&fakeAnalyzer{result: alUlaResult()}, confirmer, store)

	require.NoError(t, p.SelectFile(xlsxFile()))
	_, err := p.Analyze(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Cancel())
	st := p.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Filename)
	assert.Equal(t, before, store.Snapshot())
	assert.Zero(t, confirmer.calls)

	assert.ErrorIs(t, p.Cancel(), constants.ErrInvalidTransition)
	_, err = p.Confirm(context.Background())
	assert.ErrorIs(t, err, constants.ErrInvalidTransition)
}

func TestAnalyzerPanicIsAFailure(t *testing.T) {
	p := newPipeline(panickyAnalyzer{}, &fakeConfirmer{}, statistics.NewStore())
	require.NoError(t, p.SelectFile(xlsxFile()))

	_, err := p.Analyze(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFileSelected, p.State())
}

type panickyAnalyzer struct{}

func (panickyAnalyzer) AnalyzeUpload(context.Context, *domain.UploadFile, string) (*domain.AnalysisResult, error) {
	panic("boom")
}
