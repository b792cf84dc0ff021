package render

import (
	"errors"
	"testing"
)

func TestWrapNavError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		navigated bool
	}{
		{"nil", nil, false},
		{"context destroyed", errors.New("Execution context was destroyed, most likely because of a navigation"), true},
		{"context id gone", errors.New("Cannot find context with specified id"), true},
		{"unrelated", errors.New("net::ERR_CONNECTION_REFUSED"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapNavError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Errorf("wrapNavError(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, ErrPageNavigated) != tt.navigated {
				t.Errorf("errors.Is(ErrPageNavigated) = %v, want %v for %v", !tt.navigated, tt.navigated, tt.err)
			}
		})
	}
}
