package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsSQLiteConstraintError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique violation", errors.New("constraint failed: UNIQUE constraint failed: chat_sessions.session_id (1555)"), true},
		{"fk violation", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true},
		{"code form", errors.New("SQLITE_CONSTRAINT"), true},
		{"wrapped", fmt.Errorf("insert: %w", errors.New("constraint failed")), true},
		{"unrelated", errors.New("disk I/O error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSQLiteConstraintError(tt.err); got != tt.want {
				t.Errorf("IsSQLiteConstraintError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsSQLiteBusyError(t *testing.T) {
	t.Parallel()

	if IsSQLiteBusyError(nil) {
		t.Error("nil error should not be busy")
	}
	if !IsSQLiteBusyError(errors.New("database is locked (5) (SQLITE_BUSY)")) {
		t.Error("expected busy error to be detected")
	}
	if IsSQLiteBusyError(errors.New("constraint failed")) {
		t.Error("constraint error should not be busy")
	}
}
