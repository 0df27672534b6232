package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipkeep/internal/capture"
	"go.klb.dev/clipkeep/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPKEEP_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPKEEP_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipkeep")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipkeep/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipkeep"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addDirFlag adds --dir, shared by every command that looks at the output
// directory.
func addDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("dir", defaultDir(), "directory artifacts are written to")
}

// addWatchFlags adds the monitor settings.
func addWatchFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	addDirFlag(cmd)
	f.StringSlice("marker", capture.DefaultMarkers, "format names whose presence suppresses an event")
	f.Bool("dedup-images", false, "skip an image whose pixels equal the last saved image")
	f.Bool("capture-initial", true, "classify the clipboard once at startup")
	f.Duration("poll-interval", 0, "clipboard poll interval on polling backends (0 = platform default)")
	f.Bool("no-status", false, "do not serve status on the local socket")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	level := logging.ResolveLevel(v.GetString("log-level"), interactive)
	logging.Setup(logging.ParseFormat(v.GetString("log-format")), level)
}

// Settings is the effective monitor configuration.
type Settings struct {
	Dir            string        `toml:"dir"`
	Markers        []string      `toml:"marker"`
	DedupImages    bool          `toml:"dedup-images"`
	CaptureInitial bool          `toml:"capture-initial"`
	PollInterval   time.Duration `toml:"-"`
	NoStatus       bool          `toml:"no-status"`
	LogFormat      string        `toml:"log-format"`
	LogLevel       string        `toml:"log-level"`

	// Poll is PollInterval as a duration string, for the TOML dump.
	Poll string `toml:"poll-interval"`
}

func settingsFrom(v *viper.Viper) Settings {
	s := Settings{
		Dir:            v.GetString("dir"),
		Markers:        v.GetStringSlice("marker"),
		DedupImages:    v.GetBool("dedup-images"),
		CaptureInitial: v.GetBool("capture-initial"),
		PollInterval:   v.GetDuration("poll-interval"),
		NoStatus:       v.GetBool("no-status"),
		LogFormat:      v.GetString("log-format"),
		LogLevel:       v.GetString("log-level"),
	}
	if s.Dir == "" {
		s.Dir = defaultDir()
	}
	s.Poll = s.PollInterval.String()
	return s
}

func newConfigCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Long: `Resolves defaults, the config file, CLIPKEEP_* env vars and flags the same
way "clipkeep watch" does and prints the result. The output is a valid
clipkeep.toml.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := toml.Marshal(settingsFrom(v))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	addWatchFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}
