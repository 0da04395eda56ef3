package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolError(t *testing.T) {
	err := NewPoolError(
		ErrCodeNoFreePages,
		"NewPage",
		"no free pages available in buffer pool",
		nil,
	)

	assert.Equal(t, ErrCodeNoFreePages, err.Code)
	assert.Equal(t, "NewPage", err.Op)
	assert.Equal(t, "NewPage: no free pages available in buffer pool", err.Error())
}

func TestPoolErrorWithUnderlying(t *testing.T) {
	underlying := fmt.Errorf("disk read failed")
	err := NewPoolError(
		ErrCodeDiskReadFailed,
		"ReadPage",
		"failed to read page",
		underlying,
	)

	assert.Equal(t, underlying, err.Err)
	assert.Equal(t, underlying, errors.Unwrap(err))
	assert.Equal(t, "ReadPage: failed to read page: disk read failed", err.Error())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      *PoolError
		code     ErrorCode
		contains string
	}{
		{
			name:     "NoFreePages",
			err:      errNoFreePages("NewPage"),
			code:     ErrCodeNoFreePages,
			contains: "no free pages",
		},
		{
			name:     "PagePinned",
			err:      errPagePinned("Delete", 789, 3),
			code:     ErrCodePagePinned,
			contains: "page 789 is pinned (pin count: 3)",
		},
		{
			name:     "InvalidConfig",
			err:      errInvalidConfig("NewBufferPool", "pool size must be greater than 0"),
			code:     ErrCodeInvalidConfig,
			contains: "pool size must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Error())
			assert.True(t, strings.Contains(tt.err.Error(), tt.contains))
		})
	}
}

func TestIsErrorCode(t *testing.T) {
	err := errNoFreePages("NewPage")

	assert.True(t, IsErrorCode(err, ErrCodeNoFreePages))
	assert.False(t, IsErrorCode(err, ErrCodePagePinned))

	genericErr := fmt.Errorf("generic error")
	assert.False(t, IsErrorCode(genericErr, ErrCodeNoFreePages))
}

func TestGetErrorCode(t *testing.T) {
	err := errPagePinned("Delete", 1, 1)
	assert.Equal(t, ErrCodePagePinned, GetErrorCode(err))

	genericErr := fmt.Errorf("generic error")
	assert.Equal(t, ErrCodeUnknown, GetErrorCode(genericErr))
}

func TestErrorIs(t *testing.T) {
	err1 := errPagePinned("Delete", 123, 1)
	err2 := errPagePinned("Delete", 456, 2)

	// Different page IDs but same error code
	assert.True(t, errors.Is(err1, err2))

	err3 := errNoFreePages("NewPage")
	assert.False(t, errors.Is(err1, err3))
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("underlying IO error")
	wrappedErr := errDiskOperation("WritePage", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(wrappedErr))
	assert.True(t, errors.Is(wrappedErr, baseErr))
}

func TestErrorCodeConstants(t *testing.T) {
	codes := map[ErrorCode]bool{
		ErrCodeUnknown:         true,
		ErrCodeInternal:        true,
		ErrCodeInvalidConfig:   true,
		ErrCodeInvalidPageID:   true,
		ErrCodeNoFreePages:     true,
		ErrCodePagePinned:      true,
		ErrCodeDiskReadFailed:  true,
		ErrCodeDiskWriteFailed: true,
		ErrCodeFileNotFound:    true,
	}

	assert.Len(t, codes, 9)
}
