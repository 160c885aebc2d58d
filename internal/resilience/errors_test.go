package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError_Message(t *testing.T) {
	err := NewStatusError("pdl", 429, []byte(`  {"error":"rate limited"} `))
	assert.Equal(t, `pdl: unexpected status 429: {"error":"rate limited"}`, err.Error())
}

func TestStatusError_TruncatesBody(t *testing.T) {
	err := NewStatusError("neverbounce", 500, []byte(strings.Repeat("x", 2000)))
	assert.Len(t, err.Body, maxErrorBody+3)
	assert.True(t, strings.HasSuffix(err.Body, "..."))
}

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("get property: %w", NewStatusError("propertyradar", 404, nil))
	assert.Equal(t, 404, StatusCode(wrapped))
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, 0, StatusCode(nil))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("invalid input"), false},
		{"429", NewStatusError("pdl", 429, nil), true},
		{"503 wrapped", fmt.Errorf("call: %w", NewStatusError("pdl", 503, nil)), true},
		{"400", NewStatusError("pdl", 400, nil), false},
		{"404", NewStatusError("pdl", 404, nil), false},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"conn refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"string pattern", errors.New("Get https://x: i/o timeout"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), code)
	}
}
