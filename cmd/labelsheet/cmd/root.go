package cmd

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/porticus-lab/labelsheet/internal/config"
)

// app carries the settings resolved before any sub-command runs.
type app struct {
	v   *viper.Viper
	cfg *config.Config
}

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var configPath string

	cmd := &cobra.Command{
		Use:           "labelsheet",
		Short:         "labelsheet prints the cells of a CSV file as label sheets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, configPath)
			if err != nil {
				return err
			}
			if err := configureLogging(cfg.Logging); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("layout", "", "layout preset name (see 'labelsheet layouts')")
	flags.String("layout-file", "", "YAML layout file; overrides --layout")
	flags.String("delimiter", "", "field delimiter; empty detects it")
	flags.String("encoding", "", "input charset, e.g. windows-1252; empty means UTF-8")
	flags.String("rasterizer", "", "page rasterizer: browser or native")
	flags.Float64("scale", 0, "raster pixels per CSS pixel")
	flags.String("chrome-path", "", "Chrome or Chromium executable")
	flags.Bool("no-sandbox", false, "disable the Chrome sandbox (needed as root)")
	flags.Bool("auto-download", false, "download Chromium when none is installed")
	flags.Duration("timeout", 0, "maximum time to capture one page")

	bindFlags(a.v, flags, map[string]string{
		"logging.level":        "log-level",
		"logging.format":       "log-format",
		"layout":               "layout",
		"layoutFile":           "layout-file",
		"input.delimiter":      "delimiter",
		"input.encoding":       "encoding",
		"rasterizer":           "rasterizer",
		"scale":                "scale",
		"browser.chromePath":   "chrome-path",
		"browser.noSandbox":    "no-sandbox",
		"browser.autoDownload": "auto-download",
		"browser.timeout":      "timeout",
	})

	cmd.AddCommand(
		exportCmd(a),
		previewCmd(a),
		layoutsCmd(),
	)

	cmd.SetOut(os.Stdout)
	return cmd
}

// bindFlags binds persistent flags to config keys. A flag only overrides
// the config when it is set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// configureLogging applies the logging settings to the standard logger.
func configureLogging(c config.LoggingConfig) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch c.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return errors.Errorf("invalid log format %q", c.Format)
	}
	return nil
}
