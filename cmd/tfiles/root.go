package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/tfiles/pkg/files/config"
	"github.com/jamesainslie/tfiles/pkg/files/logging"
)

var (
	cfgFile string

	// v holds flags, environment and file settings; cfg is its decoded form.
	v   *viper.Viper
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "tfiles",
		Short: "Inspect and browse the file trees of torrents",
		Long: `tfiles reads .torrent files and Transmission RPC responses and shows
their files as a directory tree.

Examples:
  tfiles show movie.torrent            # Print the file tree
  tfiles show -f json response.json    # Tree of a torrent-get response as JSON
  tfiles browse movie.torrent          # Interactive browser
  tfiles find ~/Downloads --summary    # Find .torrent files and summarize them
  tfiles magnet 'magnet:?xt=urn:btih:...'
  tfiles config show                   # Show configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.Close()
		},
	}
)

func init() {
	rootCmd.PersistentPreRunE = initConfig

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tfiles/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output on stderr")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (tree, plain, json, jsonl, yaml, template)")
	rootCmd.PersistentFlags().Bool("no-state", false, "do not load or save browsing state")
}

// initConfig reads the config file and environment, binds the persistent
// flags over them, then starts logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if v, err = config.New(); err != nil {
		return err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("output.format", flags.Lookup("format"))
	_ = v.BindPFlag("no_state", flags.Lookup("no-state"))

	if cfg, err = config.Read(v); err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		MaxBackups: cfg.Logging.MaxBackups,
		Components: cfg.Logging.Components,
	}
	if logCfg.MaxSize, err = cfg.LogMaxBytes(); err != nil {
		return err
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}
	logCfg.TUIMode = cmd == browseCmd

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Get("cli").Debug("starting", "command", cmd.Name(), "config", v.ConfigFileUsed())
	return nil
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return v.GetBool("verbose")
}

// stateEnabled reports whether browsing state should be persisted.
func stateEnabled() bool {
	return cfg.State.Enabled && !v.GetBool("no_state")
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
