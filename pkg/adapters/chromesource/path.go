package chromesource

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/playwright-community/playwright-go"
)

// ErrChromeNotFound is returned when no Chrome or Chromium executable can be located.
var ErrChromeNotFound = errors.New("chromesource: chrome not found (install Chrome/Chromium, set CHROME_PATH, or use --chrome-path)")

// ResolveChromePath returns explicit when set, then $CHROME_PATH, then the
// first Chromium or Chrome found in the platform's usual places. It returns
// "" when nothing is found.
func ResolveChromePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env
	}
	for _, candidate := range chromeCandidates() {
		if path := lookExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

// Chromium is preferred over Chrome on every platform.
func chromeCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
		}
	case "windows":
		var out []string
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			root := os.Getenv(env)
			if root == "" {
				continue
			}
			out = append(out,
				filepath.Join(root, "Chromium", "Application", "chrome.exe"),
				filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"),
			)
		}
		return out
	default:
		return []string{"chromium", "chromium-browser", "google-chrome-stable", "google-chrome"}
	}
}

// lookExecutable checks absolute paths on disk and bare names on $PATH.
func lookExecutable(nameOrPath string) string {
	if filepath.IsAbs(nameOrPath) {
		if info, err := os.Stat(nameOrPath); err == nil && !info.IsDir() {
			return nameOrPath
		}
		return ""
	}
	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}

// InstallChromium downloads Playwright's Chromium build and returns its
// executable path. Later calls reuse the cached download.
func InstallChromium() (string, error) {
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
	}
	if err := playwright.Install(opts); err != nil {
		return "", fmt.Errorf("install chromium: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	path := pw.Chromium.ExecutablePath()
	if lookExecutable(path) == "" {
		return "", fmt.Errorf("%w: playwright reported %q", ErrChromeNotFound, path)
	}
	return path, nil
}

// FindChrome resolves a Chrome executable, falling back to a Playwright
// download when install is true.
func FindChrome(explicit string, install bool) (string, error) {
	if path := ResolveChromePath(explicit); path != "" {
		return path, nil
	}
	if !install {
		return "", ErrChromeNotFound
	}
	return InstallChromium()
}
