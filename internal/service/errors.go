package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

var (
	// ErrNoSubtitles means the input parsed to an empty document.
	ErrNoSubtitles = errors.New("no subtitles found")
	// ErrLengthMismatch means reassembly produced a different number of entries than were read.
	ErrLengthMismatch = errors.New("reassembled entry count does not match input")
)

// ErrorType classifies a failure for reporting.
type ErrorType int

const (
	ErrFileNotFound ErrorType = iota
	ErrFileRead
	ErrFileWrite
	ErrParse
	ErrAPI
	ErrValidation
	ErrConfig
	ErrNetwork
	ErrTranslation
	ErrUnknown
)

var errorKinds = map[ErrorType]struct{ name, advice string }{
	ErrFileNotFound: {"FileNotFound", "Check the input path; the file must exist and be readable"},
	ErrFileRead:     {"FileRead", "Check read permissions and that the file is not truncated or locked"},
	ErrFileWrite:    {"FileWrite", "Check that the output directory exists and is writable"},
	ErrParse:        {"Parse", "The input must be an SRT, WebVTT, ASS/SSA or plain text subtitle file"},
	ErrAPI:          {"API", "The translation backend rejected the request; check the API key, model name and provider status"},
	ErrValidation:   {"Validation", "An input path is required and the output extension must be a supported subtitle format"},
	ErrConfig:       {"Config", "Set MISTRAL_API_KEY (or LLM_API_KEY) and check the file named by SUBTRANS_CONFIG"},
	ErrNetwork:      {"Network", "The translation backend could not be reached; check connectivity and the API URL"},
	ErrTranslation:  {"Translation", "Replies did not line up with the input; try a smaller batch size or another model"},
	ErrUnknown:      {"Unknown", "Re-run with --log-level debug for details"},
}

func (t ErrorType) String() string {
	if k, ok := errorKinds[t]; ok {
		return k.name
	}
	return errorKinds[ErrUnknown].name
}

// Advice is a one-line hint for the operator.
func (t ErrorType) Advice() string {
	if k, ok := errorKinds[t]; ok {
		return k.advice
	}
	return errorKinds[ErrUnknown].advice
}

// TranslateError is a classified failure with optional key/value context.
type TranslateError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *TranslateError {
	return NewErrorWithCause(errorType, message, nil)
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *TranslateError {
	return &TranslateError{Type: errorType, Message: message, Cause: cause}
}

// WrapError classifies err under errorType.
func WrapError(err error, errorType ErrorType, message string) *TranslateError {
	return NewErrorWithCause(errorType, message, err)
}

// WithContext attaches a key/value pair shown in Error().
func (e *TranslateError) WithContext(key string, value any) *TranslateError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error renders "[Type] message | context: k=v, ... | cause: ..." with
// context keys sorted.
func (e *TranslateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" | context: ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " | cause: %v", e.Cause)
	}
	return b.String()
}

func (e *TranslateError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err wraps a TranslateError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var te *TranslateError
	return errors.As(err, &te) && te.Type == errorType
}

// Classify returns the type of the outermost TranslateError in err, or a
// best guess from well-known causes.
func Classify(err error) ErrorType {
	var te *TranslateError
	if errors.As(err, &te) {
		return te.Type
	}

	var statusErr *llm.StatusError
	var netErr net.Error
	switch {
	case err == nil:
		return ErrUnknown
	case errors.Is(err, os.ErrNotExist):
		return ErrFileNotFound
	case errors.Is(err, os.ErrPermission):
		return ErrFileRead
	case errors.As(err, &statusErr):
		return ErrAPI
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return ErrNetwork
	default:
		return ErrUnknown
	}
}

// ErrorReporter logs failures together with operator advice.
type ErrorReporter struct {
	logger *log.Logger
}

func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{logger: log.GetLogger()}
}

// Report logs err and reports whether it carried a classification.
func (r *ErrorReporter) Report(err error) bool {
	if err == nil {
		return false
	}
	var te *TranslateError
	classified := errors.As(err, &te)

	kind := Classify(err)
	if classified {
		r.logger.Error("%v", err)
	} else {
		r.logger.Error("%s error: %v", kind, err)
	}
	r.logger.Error("  advice: %s", kind.Advice())
	return classified
}

// SafeExecute runs fn, converting a panic into an ErrUnknown error.
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewError(ErrUnknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()
	return fn()
}
