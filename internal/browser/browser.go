// Package browser opens URLs in the user's default browser.
package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// Launcher opens a URL in the system browser. Implementations must not
// block on the page being loaded; launching the browser is enough.
type Launcher interface {
	Open(ctx context.Context, url string) error
}

// ExecLauncher shells out to the platform opener.
type ExecLauncher struct{}

func (ExecLauncher) Open(ctx context.Context, url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	// Reap the child when it exits; the flow does not depend on it.
	go func() { _ = cmd.Wait() }()

	return nil
}
