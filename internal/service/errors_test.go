package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/batch-sub-translator/internal/llm"
	"github.com/MimeLyc/batch-sub-translator/pkg/log"
)

func TestTranslateErrorString(t *testing.T) {
	err := NewErrorWithCause(ErrFileNotFound, "input file not found", os.ErrNotExist).
		WithContext("path", "/media/ep1.srt").
		WithContext("attempt", 2)

	assert.Equal(t, "[FileNotFound] input file not found | context: attempt=2, path=/media/ep1.srt | cause: file does not exist", err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "[Config] missing key", NewError(ErrConfig, "missing key").Error())
}

func TestIsErrorType(t *testing.T) {
	err := fmt.Errorf("translate ep1: %w", WrapError(errors.New("boom"), ErrAPI, "request failed"))

	assert.True(t, IsErrorType(err, ErrAPI))
	assert.False(t, IsErrorType(err, ErrNetwork))
	assert.False(t, IsErrorType(errors.New("plain"), ErrAPI))
	assert.False(t, IsErrorType(nil, ErrAPI))
}

func TestErrorTypeNamesAndAdvice(t *testing.T) {
	assert.Equal(t, "Validation", ErrValidation.String())
	assert.Equal(t, "Unknown", ErrorType(99).String())
	assert.Equal(t, ErrUnknown.Advice(), ErrorType(99).Advice())
	assert.Contains(t, ErrConfig.Advice(), "MISTRAL_API_KEY")

	for typ := ErrFileNotFound; typ <= ErrUnknown; typ++ {
		assert.NotEmpty(t, typ.Advice(), typ.String())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"classified wins", WrapError(os.ErrNotExist, ErrParse, "x"), ErrParse},
		{"missing file", &fs.PathError{Op: "open", Path: "a.srt", Err: fs.ErrNotExist}, ErrFileNotFound},
		{"permission", fmt.Errorf("read: %w", fs.ErrPermission), ErrFileRead},
		{"http status", fmt.Errorf("batch: %w", &llm.StatusError{StatusCode: 401}), ErrAPI},
		{"deadline", context.DeadlineExceeded, ErrNetwork},
		{"net error", fmt.Errorf("dial: %w", timeoutErr{}), ErrNetwork},
		{"plain", errors.New("plain"), ErrUnknown},
		{"nil", nil, ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewLogger(log.LevelError)
	logger.SetOutput(&buf)
	r := &ErrorReporter{logger: logger}

	assert.True(t, r.Report(fmt.Errorf("wrapped: %w", NewError(ErrParse, "bad file"))))
	assert.Contains(t, buf.String(), "[Parse] bad file")
	assert.Contains(t, buf.String(), ErrParse.Advice())

	buf.Reset()
	assert.False(t, r.Report(fmt.Errorf("open: %w", os.ErrNotExist)))
	assert.Contains(t, buf.String(), "FileNotFound error")
	assert.Contains(t, buf.String(), ErrFileNotFound.Advice())

	assert.False(t, r.Report(nil))
	assert.NotNil(t, NewErrorReporter().logger)
}

func TestSafeExecute(t *testing.T) {
	require.NoError(t, SafeExecute(func() error { return nil }))
	assert.ErrorIs(t, SafeExecute(func() error { return errBoom }), errBoom)

	err := SafeExecute(func() error { panic("kaboom") })
	requireTranslateError(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "kaboom")
}
