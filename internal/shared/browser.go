package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

var (
	getRuntime = func() string { return runtime.GOOS }
	startCmd   = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// browserCommand picks the command that opens url. $BROWSER wins over the platform default so headless sessions
// can point it at something like w3m, or at echo to only print the link.
func browserCommand(url string) (*exec.Cmd, error) {
	if fields := strings.Fields(os.Getenv("BROWSER")); len(fields) > 0 {
		return exec.Command(fields[0], append(fields[1:], url)...), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("%w: no browser for platform %s", ErrNotImplemented, rt)
	}
}

// OpenBrowser opens url in the user's browser without waiting for it to exit.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}
	if err := startCmd(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
