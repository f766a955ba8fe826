package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ougirez/volstat/internal/domain"
	"github.com/ougirez/volstat/internal/pkg/constants"
	"github.com/ougirez/volstat/internal/pkg/logger"
	"github.com/ougirez/volstat/internal/service/statistics"
)

type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateAnalyzing    State = "analyzing"
	StateAnalyzed     State = "analyzed"
	StateConfirming   State = "confirming"
	StateCommitted    State = "committed"
	StateCancelled    State = "cancelled"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS  = "application/vnd.ms-excel"
)

// Analyzer is the spreadsheet parser contract.
type Analyzer interface {
	AnalyzeUpload(ctx context.Context, file *domain.UploadFile, uploadedBy string) (*domain.AnalysisResult, error)
}

// Confirmer is the persistence contract for confirmed analyses.
type Confirmer interface {
	ConfirmUpload(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (*domain.ConfirmReceipt, error)
}

type Status struct {
	State        State                  `json:"state"`
	Filename     string                 `json:"filename,omitempty"`
	Result       *domain.AnalysisResult `json:"result,omitempty"`
	Receipt      *domain.ConfirmReceipt `json:"receipt,omitempty"`
	ErrorMessage string                 `json:"error,omitempty"`
}

// Pipeline drives one upload through select, analyze, confirm. At most one analyze
// or confirm is in flight; a duplicate call is rejected, never queued.
type Pipeline struct {
	analyzer   Analyzer
	confirmer  Confirmer
	store      *statistics.Store
	uploadedBy string
	now        func() time.Time

	mx      sync.Mutex
	state   State
	file    *domain.UploadFile
	result  *domain.AnalysisResult
	receipt *domain.ConfirmReceipt
	lastErr error
	touched time.Time
}

type options struct {
	now func() time.Time
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func NewPipeline(analyzer Analyzer, confirmer Confirmer, store *statistics.Store, uploadedBy string, opts ...Option) *Pipeline {
	o := buildOptions(opts)
	p := &Pipeline{
		analyzer:   analyzer,
		confirmer:  confirmer,
		store:      store,
		uploadedBy: uploadedBy,
		now:        o.now,
		state:      StateIdle,
	}
	p.touched = p.now()
	return p
}

// SelectFile accepts xlsx and xls spreadsheets. Anything else is a ValidationError
// and leaves the pipeline where it was.
func (p *Pipeline) SelectFile(file *domain.UploadFile) error {
	if err := ValidateFile(file); err != nil {
		return err
	}

	p.mx.Lock()
	defer p.mx.Unlock()

	if p.inFlight() {
		return constants.ErrOperationInProgress
	}

	p.state = StateFileSelected
	p.file = file
	p.result = nil
	p.receipt = nil
	p.lastErr = nil
	p.touched = p.now()
	return nil
}

// Analyze hands the selected file to the parser. On failure the pipeline returns to
// FileSelected with no partial result.
func (p *Pipeline) Analyze(ctx context.Context) (*domain.AnalysisResult, error) {
	p.mx.Lock()
	switch p.state {
	case StateFileSelected:
	case StateAnalyzing, StateConfirming:
		p.mx.Unlock()
		return nil, constants.ErrOperationInProgress
	default:
		p.mx.Unlock()
		return nil, fmt.Errorf("analyze from %s: %w", p.state, constants.ErrInvalidTransition)
	}
	p.state = StateAnalyzing
	p.lastErr = nil
	file := p.file
	p.mx.Unlock()

	result, err := p.analyze(ctx, file)

	p.mx.Lock()
	defer p.mx.Unlock()
	p.touched = p.now()

	if err != nil {
		p.state = StateFileSelected
		p.result = nil
		p.lastErr = constants.NewParseError(err)
		logger.Warnf(ctx, "upload: analyze %s: %s", file.Name, err.Error())
		return nil, p.lastErr
	}

	p.state = StateAnalyzed
	p.result = result
	logger.Infof(ctx, "upload: analyzed %s: %d cities, %d volunteers", file.Name, result.CitiesCount, result.TotalVolunteersAllCities)
	return result.Clone(), nil
}

func (p *Pipeline) analyze(ctx context.Context, file *domain.UploadFile) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("analyzer panic: %v", r)
		}
	}()

	result, err = p.analyzer.AnalyzeUpload(ctx, file, p.uploadedBy)
	if err == nil && result == nil {
		err = fmt.Errorf("analyzer returned no result")
	}
	return result, err
}

// Confirm submits the analysis and, once persisted, merges it into the store. On
// failure the analysis is kept so the caller can retry without re-analyzing.
func (p *Pipeline) Confirm(ctx context.Context) (*domain.ConfirmReceipt, error) {
	p.mx.Lock()
	switch p.state {
	case StateAnalyzed:
	case StateAnalyzing, StateConfirming:
		p.mx.Unlock()
		return nil, constants.ErrOperationInProgress
	default:
		p.mx.Unlock()
		return nil, fmt.Errorf("confirm from %s: %w", p.state, constants.ErrInvalidTransition)
	}
	p.state = StateConfirming
	p.lastErr = nil
	result := p.result
	confirmedAt := p.now()
	p.mx.Unlock()

	receipt, err := p.confirm(ctx, result.Clone(), confirmedAt)

	p.mx.Lock()
	defer p.mx.Unlock()
	p.touched = p.now()

	if err != nil {
		p.state = StateAnalyzed
		p.lastErr = constants.NewPersistenceError(err, constants.MsgConfirmFailed)
		logger.Errorf(ctx, "upload: confirm %s: %s", result.Filename, err.Error())
		return nil, p.lastErr
	}

	if receipt.ConfirmationTimestamp.IsZero() {
		receipt.ConfirmationTimestamp = confirmedAt
	}
	if receipt.LastModified.IsZero() {
		receipt.LastModified = confirmedAt
	}

	p.store.ApplyUpload(result, receipt)
	p.state = StateCommitted
	p.receipt = receipt
	logger.Infof(ctx, "upload: committed %s as %s", result.Filename, receipt.FileID)

	out := *receipt
	return &out, nil
}

func (p *Pipeline) confirm(ctx context.Context, result *domain.AnalysisResult, confirmedAt time.Time) (receipt *domain.ConfirmReceipt, err error) {
	defer func() {
		if r := recover(); r != nil {
			receipt, err = nil, fmt.Errorf("confirmer panic: %v", r)
		}
	}()

	receipt, err = p.confirmer.ConfirmUpload(ctx, result, confirmedAt)
	if err == nil && receipt == nil {
		err = fmt.Errorf("confirmer returned no receipt")
	}
	return receipt, err
}

// Cancel discards the selected file and any analysis and returns to Idle. Only valid
// before a request is submitted; the store is never touched.
func (p *Pipeline) Cancel() error {
	p.mx.Lock()
	defer p.mx.Unlock()

	switch p.state {
	case StateFileSelected, StateAnalyzed:
	case StateAnalyzing, StateConfirming:
		return constants.ErrOperationInProgress
	default:
		return fmt.Errorf("cancel from %s: %w", p.state, constants.ErrInvalidTransition)
	}

	p.state = StateIdle
	p.file = nil
	p.result = nil
	p.lastErr = nil
	p.touched = p.now()
	return nil
}

func (p *Pipeline) Status() Status {
	p.mx.Lock()
	defer p.mx.Unlock()

	st := Status{State: p.state, Result: p.result.Clone()}
	if p.file != nil {
		st.Filename = p.file.Name
	}
	if p.receipt != nil {
		r := *p.receipt
		st.Receipt = &r
	}
	if p.lastErr != nil {
		st.ErrorMessage = p.lastErr.Error()
	}
	return st
}

func (p *Pipeline) State() State {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.state
}

func (p *Pipeline) inFlight() bool {
	return p.state == StateAnalyzing || p.state == StateConfirming
}

func (p *Pipeline) idleSince() (time.Time, bool) {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.touched, !p.inFlight()
}

// ValidateFile checks the declared type. An empty or generic type falls back to the
// file extension.
func ValidateFile(file *domain.UploadFile) error {
	if file == nil || file.Name == "" {
		return constants.NewValidationError("لم يتم اختيار ملف")
	}

	contentType := strings.ToLower(strings.TrimSpace(strings.Split(file.ContentType, ";")[0]))
	switch contentType {
	case MimeXLSX, MimeXLS:
		return nil
	case "", "application/octet-stream":
		switch strings.ToLower(filepath.Ext(file.Name)) {
		case ".xlsx", ".xls":
			return nil
		}
	}

	return constants.NewValidationError(constants.MsgUnsupportedFileType)
}
