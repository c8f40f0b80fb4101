package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"nightlyprep/internal/config"
	"nightlyprep/internal/log"
	"nightlyprep/internal/plugincfg"
)

func newInspectCmd(fsys afero.Fs, cfg *config.Config) *cobra.Command {
	var (
		asJSON     bool
		pluginFile string
	)

	inspectCmd := &cobra.Command{
		Use:   "inspect [directory]",
		Short: "Show the plugin name and version of an addon directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cfg.Directory = args[0]
			}
			if cmd.Flags().Changed("plugin-file") {
				cfg.PluginFile = pluginFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lgr := log.FromContext(cmd.Context())
			lgr.V(1).Info("reading plugin configuration", log.PathKey, cfg.PluginPath())

			info, err := plugincfg.Load(fsys, cfg.PluginPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			}
			fmt.Fprintf(out, "name: %s\n", info.Name)
			fmt.Fprintf(out, "version: %s\n", info.Version)
			return nil
		},
	}

	inspectCmd.Flags().BoolVar(&asJSON, "json", false, "Print the plugin metadata as JSON")
	inspectCmd.Flags().StringVar(&pluginFile, "plugin-file", config.DefaultPluginFile, "Plugin configuration file, relative to the directory")

	return inspectCmd
}
