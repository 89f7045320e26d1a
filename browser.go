package labelsheet

import (
	"github.com/go-rod/rod/lib/launcher"
	"github.com/pkg/errors"
)

// resolveBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored in ~/.cache/rod/browser (Unix) or %APPDATA%\rod\browser (Windows).
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", errors.Wrap(err, "labelsheet: downloading browser")
	}
	return path, nil
}

// lookupBrowser returns the path of an installed Chrome or Chromium, or
// false when none is found in the standard locations.
func lookupBrowser() (string, bool) {
	return launcher.LookPath()
}
