package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPrecondition(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "no active document",
			err:  NoActiveDocumentError,
			want: true,
		},
		{
			name: "wrapped no dart project",
			err:  fmt.Errorf("build: %w", NoDartProjectError),
			want: true,
		},
		{
			name: "no dart workspace",
			err:  fmt.Errorf("toggle: %w", NoDartWorkspaceError),
			want: true,
		},
		{
			name: "no build_runner",
			err:  NoBuildRunnerError,
			want: true,
		},
		{
			name: "folder not found",
			err:  &FolderNotFoundError{Label: "app"},
			want: true,
		},
		{
			name: "wrapped sdk unavailable",
			err:  fmt.Errorf("build: %w", &SDKUnavailableError{}),
			want: true,
		},
		{
			name: "outside workspace",
			err:  &OutsideWorkspaceError{Path: "/tmp/a.dart", Root: "/work"},
			want: true,
		},
		{
			name: "selection cancelled",
			err:  SelectionCancelledError,
			want: false,
		},
		{
			name: "other",
			err:  New("boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsPrecondition(tt.err))
		})
	}
}
