package pdf

import (
	"errors"
	"strings"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

const (
	CodeFontLoad    = "FONT_LOAD_FAILED"
	CodeBuildFailed = "BUILD_FAILED"
)

// ErrQuoteNotFound is returned when the requested quote does not exist for
// the tenant. It matches quote.ErrNotFound with errors.Is.
var ErrQuoteNotFound = quote.ErrNotFound

// BuildError reports that the document could not be produced.
type BuildError struct {
	Code    string
	Message string
	Cause   error
}

func (e *BuildError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

func newBuildError(code, message string, cause error) *BuildError {
	return &BuildError{Code: code, Message: message, Cause: cause}
}

// IsFontError reports whether err is a build failure caused by font loading.
func IsFontError(err error) bool {
	var be *BuildError
	if !errors.As(err, &be) {
		return false
	}

	if be.Code == CodeFontLoad {
		return true
	}

	return be.Cause != nil && strings.Contains(strings.ToLower(be.Cause.Error()), "font")
}

// IsBuildError reports whether err is any document build failure.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}
