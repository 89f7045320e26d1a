package labelsheet

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// browserConfig holds internal configuration for a BrowserRasterizer.
type browserConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	headless     string
	autoDownload bool
	scale        float64
	logger       log.FieldLogger
}

func defaultConfig() browserConfig {
	return browserConfig{
		timeout:  30 * time.Second,
		headless: "new",
		scale:    DefaultScale,
		logger:   log.StandardLogger(),
	}
}

// Option configures a [BrowserRasterizer].
type Option func(*browserConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *browserConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration for capturing a single page.
// Defaults to 30 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *browserConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *browserConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium build when no executable
// path is configured. The binary is cached between runs.
func WithAutoDownload() Option {
	return func(c *browserConfig) {
		c.autoDownload = true
	}
}

// WithScale sets the device pixel ratio used for captures. Defaults to
// [DefaultScale]; values of zero or less are ignored.
func WithScale(scale float64) Option {
	return func(c *browserConfig) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithLogger sets the logger for browser lifecycle messages.
func WithLogger(l log.FieldLogger) Option {
	return func(c *browserConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
