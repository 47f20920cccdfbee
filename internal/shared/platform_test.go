package shared

import "testing"

func withRuntime(t *testing.T, goos string) {
	t.Helper()
	orig := getRuntime
	getRuntime = func() string { return goos }
	t.Cleanup(func() { getRuntime = orig })
}

func TestPlatform(t *testing.T) {
	tc := []struct {
		goos   string
		scoped bool
	}{
		{goos: "android", scoped: true},
		{goos: "linux", scoped: false},
		{goos: "darwin", scoped: false},
		{goos: "windows", scoped: false},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			withRuntime(t, tt.goos)

			if Platform() != tt.goos {
				t.Errorf("Platform() = %s, want %s", Platform(), tt.goos)
			}
			if HasScopedStorage() != tt.scoped {
				t.Errorf("HasScopedStorage() = %v, want %v", HasScopedStorage(), tt.scoped)
			}
		})
	}
}

func TestRevealPathUnsupported(t *testing.T) {
	withRuntime(t, "plan9")

	if err := RevealPath("/tmp"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
