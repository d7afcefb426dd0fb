package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gg "github.com/gogpu/gg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/pkg/buildinfo"
	"github.com/matzehuels/scalebar/pkg/cache"
	"github.com/matzehuels/scalebar/pkg/fonts"
	"github.com/matzehuels/scalebar/pkg/history"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/pipeline"
	"github.com/matzehuels/scalebar/pkg/session"
	"github.com/matzehuels/scalebar/pkg/settings"
	"github.com/matzehuels/scalebar/pkg/task"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scalebar"

	// Environment overrides for the shared backends.
	envRedisAddr = "SCALEBAR_REDIS_ADDR"
	envMongoURI  = "SCALEBAR_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	noCache    bool
	redisAddr  string
	mongoURI   string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Scalebar stamps calibrated scale bars onto microscopy images",
		Long: `Scalebar overlays a calibrated scale bar and its length label onto
electron-microscopy images. Queue images with "add", adjust them with "set",
check the result with "preview", then write every output with "run".`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			level := LogInfo
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			gg.SetLogger(slog.New(c.Logger))

			if c.redisAddr == "" {
				c.redisAddr = os.Getenv(envRedisAddr)
			}
			if c.mongoURI == "" {
				c.mongoURI = os.Getenv(envMongoURI)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "settings file (default: $"+settings.EnvConfig+" or the user config dir)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the preview cache")
	flags.StringVar(&c.redisAddr, "redis", "", "share the preview cache through Redis (host:port or redis:// URL)")
	flags.StringVar(&c.mongoURI, "mongo", "", "record batch runs in MongoDB (mongodb:// URI)")

	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.addCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.removeCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.outputDirCommand())
	root.AddCommand(c.queueCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.serveCommand())

	return root
}

// =============================================================================
// Workspace
// =============================================================================

// settingsStore opens the settings document selected by --config.
func (c *CLI) settingsStore() (*settings.Store, error) {
	path := c.configPath
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return nil, err
		}
	}
	s := settings.NewStore(path)
	s.Logger = c.Logger
	return s, nil
}

// loadSettings returns the stored settings, falling back to defaults.
func (c *CLI) loadSettings() (settings.AppConfig, *settings.Store, error) {
	s, err := c.settingsStore()
	if err != nil {
		return settings.Default(), nil, err
	}
	return s.Load(), s, nil
}

// sessionStore opens the saved queue. It lives next to the settings file.
func (c *CLI) sessionStore() (*session.FileStore, error) {
	s, err := c.settingsStore()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(filepath.Join(filepath.Dir(s.Path()), "queue.json"))
}

// loadQueue returns the saved queue and its store.
func (c *CLI) loadQueue(ctx context.Context) (*task.Queue, *session.FileStore, error) {
	store, err := c.sessionStore()
	if err != nil {
		return nil, nil, err
	}
	q, err := store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("loaded queue", "path", store.Path(), "tasks", q.Len())
	return q, store, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRenderer builds the renderer selected by cfg.
func (c *CLI) newRenderer(cfg settings.AppConfig) (*overlay.Renderer, error) {
	comp, err := overlay.NewCompositor(cfg.Compositor)
	if err != nil {
		return nil, err
	}
	return overlay.NewRenderer(fonts.NewResolver(), cfg.Font, comp, c.Logger), nil
}

// newRunner creates a pipeline runner for CLI use. The caller must Close it.
func (c *CLI) newRunner(ctx context.Context, cfg settings.AppConfig) (*pipeline.Runner, error) {
	r, err := c.newRenderer(cfg)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(r, c.newCache(ctx), nil, c.Logger)
	if c.redisAddr != "" {
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, cache.DefaultNamespace)
	}
	runner.History = c.newHistory(ctx)
	return runner, nil
}

// newCache picks the preview cache backend. Unavailable backends degrade to
// no caching; a preview is never worth failing a command over.
func (c *CLI) newCache(ctx context.Context) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	if c.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, c.redisAddr, cache.DefaultNamespace)
		if err == nil {
			return rc
		}
		c.Logger.Warn("redis unavailable, caching disabled", "addr", c.redisAddr, "err", err)
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("file cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// newHistory picks the run history backend.
func (c *CLI) newHistory(ctx context.Context) history.Store {
	if c.mongoURI != "" {
		s, err := history.NewMongoStore(ctx, c.mongoURI)
		if err == nil {
			return s
		}
		c.Logger.Warn("mongodb unavailable, falling back to local history", "err", err)
	}
	path, err := history.DefaultPath()
	if err != nil {
		return history.NullStore{}
	}
	s, err := history.NewFileStore(path)
	if err != nil {
		c.Logger.Debug("history unavailable", "path", path, "err", err)
		return history.NullStore{}
	}
	return s
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scalebar/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
