package webpdf

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// resolveBrowser returns a cached Chromium, downloading it on first use
// into ~/.cache/rod/browser (%APPDATA%\rod\browser on Windows).
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("webpdf: downloading browser: %w", err)
	}
	return path, nil
}
