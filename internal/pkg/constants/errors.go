package constants

import (
	"errors"
	"net/http"
)

// CodedError is an error that knows which HTTP status it maps to.
type CodedError struct {
	code int
	msg  string
}

func NewCodedError(code int, msg string) *CodedError {
	return &CodedError{code: code, msg: msg}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound       = NewCodedError(http.StatusNotFound, "record not found")
	ErrUnauthorized     = NewCodedError(http.StatusUnauthorized, "unauthorized")
	ErrForbidden        = NewCodedError(http.StatusForbidden, "forbidden")
	ErrMissingAuthToken = NewCodedError(http.StatusUnauthorized, "missing auth token")

	ErrFileNotFound        = NewCodedError(http.StatusNotFound, "الملف غير موجود")
	ErrDuplicateUpload     = NewCodedError(http.StatusConflict, "تم رفع هذا الملف مسبقاً")
	ErrUnknownRegion       = NewCodedError(http.StatusNotFound, "المدينة غير معروفة")
	ErrNoExportData        = NewCodedError(http.StatusNotFound, "لا توجد بيانات لهذا الشهر والسنة")
	ErrRegionHasNoData     = NewCodedError(http.StatusNotFound, "لا توجد إحصائيات لهذه المدينة")
	ErrUploadTooLarge      = NewCodedError(http.StatusRequestEntityTooLarge, "حجم الملف أكبر من المسموح")
	ErrStoreUnavailable    = NewCodedError(http.StatusBadGateway, "تعذر الوصول إلى قاعدة البيانات")
	ErrSessionNotFound     = NewCodedError(http.StatusNotFound, "upload session not found")
	ErrOperationInProgress = NewCodedError(http.StatusConflict, "operation already in progress")
	ErrInvalidTransition   = NewCodedError(http.StatusConflict, "operation not allowed in current state")
)

// Generic user-facing messages used when a collaborator does not supply one.
const (
	MsgAnalyzeFailed = "حدث خطأ أثناء تحليل الملف"
	MsgConfirmFailed = "حدث خطأ أثناء رفع البيانات"
	MsgDeleteFailed  = "حدث خطأ أثناء حذف الملف"
	MsgExportFailed  = "حدث خطأ في التصدير"

	MsgDeleteStatisticsFailed = "حدث خطأ أثناء حذف الإحصائيات"

	MsgUnsupportedFileType = "يرجى رفع ملف Excel فقط (.xlsx أو .xls)"
	MsgMissingExportPeriod = "الرجاء تحديد الشهر والسنة للتصدير"
)

// ValidationError is raised before any call to an external collaborator.
type ValidationError struct {
	Msg string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Code() int {
	return http.StatusBadRequest
}

// ParseError is surfaced from the analyze step.
type ParseError struct {
	Msg string
	Err error
}

func NewParseError(err error) *ParseError {
	return &ParseError{Msg: messageOr(err, MsgAnalyzeFailed), Err: err}
}

func (e *ParseError) Error() string {
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Code() int {
	return codeOr(e.Err, http.StatusUnprocessableEntity)
}

// PersistenceError is surfaced from confirm and delete.
type PersistenceError struct {
	Msg string
	Err error
}

func NewPersistenceError(err error, fallback string) *PersistenceError {
	return &PersistenceError{Msg: messageOr(err, fallback), Err: err}
}

func (e *PersistenceError) Error() string {
	return e.Msg
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Code() int {
	return codeOr(e.Err, http.StatusBadGateway)
}

type coder interface {
	Code() int
}

// CodeOf returns the HTTP status carried by err or 500.
func CodeOf(err error) int {
	return codeOr(err, http.StatusInternalServerError)
}

func codeOr(err error, fallback int) int {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return fallback
}

// UserMessage returns the message carried by err, or fallback when there is none.
func UserMessage(err error, fallback string) string {
	return messageOr(err, fallback)
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var ce *CodedError
	if errors.As(err, &ce) && ce.msg != "" {
		return ce.msg
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
