package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// Platform returns the operating system the binary is running on.
func Platform() string {
	return getRuntime()
}

// HasScopedStorage reports whether the platform mediates public media writes through a content index.
func HasScopedStorage() bool {
	return getRuntime() == "android"
}

// RevealPath opens the system file manager at the specified path.
//
// Supports macOS, Linux, and Windows platforms.
func RevealPath(path string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("explorer", path)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open file manager: %w", err)
	}

	return nil
}
