package ui

import "testing"

func TestPlainWhenDisabled(t *testing.T) {
	DisableColor()

	tests := []struct {
		name   string
		render func(string) string
	}{
		{"pass", RenderPass},
		{"warn", RenderWarn},
		{"fail", RenderFail},
		{"accent", RenderAccent},
		{"muted", RenderMuted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.render("ok"); got != "ok" {
				t.Errorf("expected plain text, got %q", got)
			}
		})
	}
}

func TestNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled() {
		t.Error("NO_COLOR should disable color")
	}
}
