package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"itransfer/internal/transfer"
)

func TestSubmitReported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", &transfer.ValidationError{Field: "email", Message: transfer.MsgNoRecipient}, true},
		{"rejected", &transfer.HTTPError{StatusCode: 400}, true},
		{"network", &transfer.NetworkError{Op: "upload", Err: errors.New("refused")}, true},
		{"size changed", fmt.Errorf("building archive: %w", &transfer.SizeChangedError{Path: "/a", Staged: 1, Actual: -1}), true},
		{"cancelled", transfer.ErrCancelled, true},
		{"not logged in", transfer.ErrUnauthenticated, false},
		{"context", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, submitReported(tt.err))
		})
	}
}
