// Package cli wires configuration, storage, the explorer hub and the
// presentation layers into the postexplorer command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"postexplorer/internal/config"
	"postexplorer/internal/eventbus"
	"postexplorer/internal/explorer"
	"postexplorer/internal/logging"
	"postexplorer/internal/posts"
	"postexplorer/internal/storage"
)

var exampleUsage = strings.TrimSpace(`
  postexplorer
  postexplorer list --query "qui est"
  postexplorer --storage redis --redis-addr localhost:6379 serve --addr :8080
  postexplorer history clear
`)

// rootOptions holds values of the persistent flags
type rootOptions struct {
	configPath string
	overrides  config.Overrides
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	// A missing .env is fine
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the postexplorer command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "postexplorer",
		Short:         "Browse, search and refresh posts from a JSON endpoint",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default <user config dir>/postexplorer/config.toml)")
	flags.StringVar(&opts.overrides.Endpoint, config.FlagEndpoint, "", "posts endpoint URL")
	flags.StringVar(&opts.overrides.Storage, config.FlagStorage, "", "search query storage backend: file, redis or memory")
	flags.StringVar(&opts.overrides.StateFile, config.FlagStateFile, "", "state file for the file storage backend")
	flags.StringVar(&opts.overrides.RedisAddr, config.FlagRedisAddr, "", "redis address for the redis storage backend")
	flags.BoolVar(&opts.overrides.MatchBody, config.FlagMatchBody, true, "match the search query against post bodies too")
	flags.StringVar(&opts.overrides.LogFile, config.FlagLogFile, "", "log file used by the terminal UI")
	flags.StringVar(&opts.overrides.LogLevel, config.FlagLogLevel, "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCommand(opts),
		newHistoryCommand(opts),
		newServeCommand(opts),
		newVoiceCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// changedFlags returns the names of the flags set on the command line
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}

// loadConfig resolves the configuration: defaults < file < environment < flags
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.NewConfigServiceAt(opts.configPath).LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.NewConfigService().Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	changed := changedFlags(cmd)
	if err := config.ApplyEnv(cfg, changed); err != nil {
		return nil, err
	}
	config.ApplyOverrides(cfg, opts.overrides, changed)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds what every command needs: configuration, a logger and the
// resources to release on exit
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	closers []io.Closer
}

// newApp loads configuration and sets up logging. Interactive commands log
// to the configured file; the rest log to stderr.
func newApp(cmd *cobra.Command, opts *rootOptions, interactive bool) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	log, closer, err := logging.Setup(logging.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		Console: !interactive,
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, closers: []io.Closer{closer}}
	a.log.Debug().
		Str("endpoint", cfg.Source.Endpoint).
		Str("storage", cfg.Storage.Backend).
		Bool("match_body", cfg.Search.MatchBody).
		Msg("configuration")
	return a, nil
}

func (a *app) onClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("close")
		}
	}
	a.closers = nil
}

// queryStore opens the configured storage backend
func (a *app) queryStore() (*storage.QueryStore, error) {
	kv, err := storage.Open(a.cfg.Storage, a.log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.onClose(kv)
	return storage.NewQueryStore(kv, a.log), nil
}

func (a *app) source() posts.Source {
	return posts.NewHTTPSource(a.cfg.Source.Endpoint, a.cfg.Source.TimeoutDuration(), a.log)
}

func (a *app) matchOptions() explorer.MatchOptions {
	return explorer.MatchOptions{Body: a.cfg.Search.MatchBody}
}

// hub builds the explorer hub; bus may be nil
func (a *app) hub(bus eventbus.EventBus) (*explorer.Hub, error) {
	store, err := a.queryStore()
	if err != nil {
		return nil, err
	}
	hub := explorer.NewHub(a.source(), store, explorer.Options{
		Match: a.matchOptions(),
		Bus:   bus,
		Log:   a.log,
	})
	a.onClose(closerFunc(func() error {
		hub.Close()
		return nil
	}))
	return hub, nil
}

// bus creates an event bus closed with the app
func (a *app) bus() eventbus.EventBus {
	bus := eventbus.New(a.log)
	a.onClose(closerFunc(func() error {
		bus.Close()
		return nil
	}))
	return bus
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
