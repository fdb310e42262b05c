package domain

import "testing"

func TestLoopMode_String(t *testing.T) {
	tests := []struct {
		mode LoopMode
		want string
	}{
		{LoopModeNone, "none"},
		{LoopModeOne, "one"},
		{LoopModeAll, "all"},
		{LoopMode(42), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.want {
				t.Errorf("LoopMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}
