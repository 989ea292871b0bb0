package main

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/windexdb/winx"
)

const writeShutdownGrace = 5 * time.Second

func bindFlags(cmd *cobra.Command) {
	registerFlags(cmd.Flags())
	_ = viper.BindPFlags(cmd.Flags())
	viper.SetEnvPrefix("WINX")
	viper.AutomaticEnv()
}

// registerFlags declares every windexd flag against the raw *pflag.FlagSet
// cobra.Command.Flags() hands back, the same layering lockd's cmd package
// uses to keep flag declarations testable independent of a *cobra.Command.
func registerFlags(fs *pflag.FlagSet) {
	fs.String("data-dir", "./winx-data", "pebble data directory")
	fs.String("addr", ":8088", "HTTP listen address")
	fs.Int("workers", 4, "number of shard workers")
	fs.Int("gc-interval-seconds", 60, "GC sweep interval")
	fs.Int("gc-prune-max-seconds", 3600, "age past which an abandoned request is pruned")
	fs.Bool("legacy-compat", false, "enable the req_id==0 compatibility path")
	fs.String("config", "", "path to a YAML/JSON config file (hot-reloaded)")
}

// loadConfig resolves winx.Config and server-only settings from flags,
// env vars, and an optional config file, matching the flag/viper layering
// the teacher's own cmd entrypoints use. If --config names a file, viper
// watches it with fsnotify, so later viper reads see edits, but windexd
// reads it into winx.Config only once, here at startup: edits made while
// it runs do not reach the running Indexer.
func loadConfig(cmd *cobra.Command) (cfg winx.Config, dataDir, addr string, err error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return cfg, "", "", fmt.Errorf("read config: %w", err)
		}
		viper.WatchConfig()
		viper.OnConfigChange(func(fsnotify.Event) {})
	}

	cfg.Workers = viper.GetInt("workers")
	cfg.GCIntervalSeconds = viper.GetInt("gc-interval-seconds")
	cfg.GCPruneMaxSeconds = viper.GetInt("gc-prune-max-seconds")
	cfg.LegacyCompat = viper.GetBool("legacy-compat")
	cfg.SetDefaults()

	return cfg, viper.GetString("data-dir"), viper.GetString("addr"), nil
}
