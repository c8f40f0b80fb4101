package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"nightlyprep/internal/config"
	"nightlyprep/internal/errors"
	"nightlyprep/internal/log"
)

// EnvPrefix prefixes the environment variables mirroring the flags,
// e.g. NIGHTLYPREP_SUFFIX.
const EnvPrefix = "NIGHTLYPREP"

// Execute runs the root command and handles top-level error reporting.
// Any failure exits with status 1 after naming the step that failed.
func Execute() {
	rootCmd, flush := newRootCmd(afero.NewOsFs())
	err := rootCmd.Execute()
	flush()
	if err != nil {
		if step := errors.FailedStep(err); step != "" {
			fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", step, err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree on fsys. The returned function flushes
// the structured logger and must be called once Execute returns.
func newRootCmd(fsys afero.Fs) (*cobra.Command, func()) {
	cfg := config.New(".")
	v := viper.New()
	flush := func() {}

	rootCmd := &cobra.Command{
		Use:   "nightlyprep [options] [directory]",
		Short: "Prepare a glecs addon directory for a nightly build",
		Long: `Nightlyprep turns a glecs addon directory into its nightly variant. It
promotes the release build descriptor and ignore file over the active ones,
renames the plugin in plugin.cfg and appends a suffix to its version.

The run is all-or-nothing: missing release files or plugin fields abort it
before any file is changed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadFromViper(cfg, v)
			var lgr logr.Logger
			lgr, flush = log.NewStructured(cfg.LogLevel(), cmd.ErrOrStderr())
			cmd.SetContext(log.WithLogger(contextOf(cmd), lgr.WithValues(log.CommandKey, cmd.Name())))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.Directory = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return executePrep(cmd.Context(), cfg, fsys, cmd.OutOrStdout())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose mode")
	flags.BoolVar(&cfg.Debug, "debug", false, "Debug mode")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Quiet mode")

	local := rootCmd.Flags()
	local.StringVar(&cfg.NightlyName, "name", config.DefaultNightlyName, "Display name written to plugin.cfg")
	local.StringVar(&cfg.VersionSuffix, "suffix", config.DefaultVersionSuffix, "Suffix appended to the plugin version")
	local.StringVar(&cfg.PluginFile, "plugin-file", config.DefaultPluginFile, "Plugin configuration file, relative to the directory")
	local.BoolVar(&cfg.DryRun, "dry-run", false, "Check and report without changing files")
	local.BoolVar(&cfg.DryRun, "fake", false, "Check and report without changing files (alias for --dry-run)")
	local.BoolVar(&cfg.Backup, "backup", false, "Keep a timestamped .bak copy of the plugin file")
	local.StringVar(&cfg.LogFile, "log", "", "Report file (default: stdout)")
	local.Var((*logFormatFlag)(&cfg.LogFormat), "log-format", "Report format (text, json, csv)")

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	rootCmd.MarkFlagsMutuallyExclusive("debug", "quiet")

	bindViper(v, rootCmd)
	rootCmd.AddCommand(newInspectCmd(fsys, cfg))

	return rootCmd, func() { flush() }
}

// bindViper mirrors every flag into v so NIGHTLYPREP_* variables can set it.
func bindViper(v *viper.Viper, cmd *cobra.Command) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.PersistentFlags())
	_ = v.BindPFlags(cmd.Flags())
}

// loadFromViper copies flag or environment values into cfg. Explicit flags
// win over the environment, which wins over defaults.
func loadFromViper(cfg *config.Config, v *viper.Viper) {
	cfg.Verbose = v.GetBool("verbose")
	cfg.Debug = v.GetBool("debug")
	cfg.Quiet = v.GetBool("quiet")
	cfg.NightlyName = v.GetString("name")
	cfg.VersionSuffix = v.GetString("suffix")
	cfg.PluginFile = v.GetString("plugin-file")
	cfg.DryRun = v.GetBool("dry-run") || v.GetBool("fake")
	cfg.Backup = v.GetBool("backup")
	cfg.LogFile = v.GetString("log")
	if format := v.GetString("log-format"); format != "" {
		cfg.LogFormat = config.LogFormat(format)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

type logFormatFlag config.LogFormat

func (f *logFormatFlag) String() string {
	return string(*f)
}

func (f *logFormatFlag) Set(v string) error {
	switch config.LogFormat(v) {
	case config.LogFormatJSON, config.LogFormatCSV, config.LogFormatText:
		*f = logFormatFlag(v)
		return nil
	default:
		return fmt.Errorf("must be 'text', 'json' or 'csv'")
	}
}

func (f *logFormatFlag) Type() string {
	return "string"
}
