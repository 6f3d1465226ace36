package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/mahyarmirrashed/dotignore/internal/config"
	"github.com/mahyarmirrashed/dotignore/internal/daemon"
	"github.com/mahyarmirrashed/dotignore/internal/excluder"
	"github.com/mahyarmirrashed/dotignore/internal/utils"
	"github.com/mattn/go-isatty"
	godaemon "github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Set at build time: go build -ldflags "-X main.version=1.2.3"
var version = "dev"

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

func main() {
	app := &cli.Command{
		Name:    "dotignore",
		Usage:   "Check paths against .gitignore rules",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file (.yaml or .toml)",
				Sources: cli.EnvVars("DOTIGNORE_CONFIG"),
				Value:   config.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "directory the ignore file search starts from",
				Sources: cli.EnvVars("DOTIGNORE_ROOT"),
			},
			&cli.StringFlag{
				Name:    "ignore-file",
				Usage:   "name of the ignore file to look for",
				Sources: cli.EnvVars("DOTIGNORE_IGNORE_FILE"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "extra rules applied after the ignore file (repeat or comma-separated)",
				Sources: cli.EnvVars("DOTIGNORE_EXCLUDE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "logging level: debug, info, warn, error",
				Sources: cli.EnvVars("DOTIGNORE_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			checkCommand(),
			watchCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "print the given paths that are ignored",
		ArgsUsage: "PATH...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "show the deciding rule for every matched path",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("no paths given", 2)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ex, err := excluder.New(utils.ExpandTilde(cfg.Root), cfg.IgnoreFile, cfg.Exclude)
			if err != nil {
				return err
			}
			log.Debugf("Loaded %d rules from %q anchored at %s", ex.RuleCount(), ex.IgnoreFile(), ex.Base())

			color := isTerminal(cmd.Root().Writer)
			if checkPaths(cmd.Root().Writer, ex, paths, cmd.Bool("verbose"), color) == 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "report files created under the root that are not ignored",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "daemonize",
				Usage:   "run as daemon",
				Sources: cli.EnvVars("DOTIGNORE_DAEMONIZE"),
			},
			&cli.BoolFlag{
				Name:    "notifications",
				Usage:   "send desktop notifications",
				Sources: cli.EnvVars("DOTIGNORE_NOTIFICATIONS"),
			},
			&cli.DurationFlag{
				Name:    "delay",
				Usage:   "processing delay on created files",
				Sources: cli.EnvVars("DOTIGNORE_DELAY"),
				Value:   0,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("daemonize") {
				cfg.Daemonize = cmd.Bool("daemonize")
			}
			if cmd.IsSet("notifications") {
				cfg.Notifications = cmd.Bool("notifications")
			}
			if cmd.IsSet("delay") {
				cfg.Delay = cmd.Duration("delay")
			}

			// Only daemonize if config says so
			if cfg.Daemonize {
				daemonCtx := &godaemon.Context{
					PidFileName: "dotignore.pid",
					PidFilePerm: 0644,
					LogFileName: "dotignore.log",
					LogFilePerm: 0640,
					WorkDir:     "./",
					Umask:       027,
					Args:        []string{"[dotignore-watch]"},
				}

				d, err := daemonCtx.Reborn()
				if err != nil {
					log.Fatalf("Unable to run: %s", err)
				}
				if d != nil {
					return nil // Parent process exits
				}
				defer daemonCtx.Release()
				log.Info("Daemon started")
			} else {
				log.Info("Running in foreground (not daemonized)")
			}

			return watch(ctx, cfg)
		},
	}
}

// loadConfig reads the config file if present and applies global flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	configPath := utils.ExpandTilde(cmd.String("config"))

	// Only load config if the file exists, unless it was asked for explicitly
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else if cmd.IsSet("config") || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags if set
	if cmd.IsSet("root") {
		cfg.Root = cmd.String("root")
	}
	if cmd.IsSet("ignore-file") {
		cfg.IgnoreFile = cmd.String("ignore-file")
	}
	if cmd.IsSet("exclude") {
		var merged []string
		for _, e := range cmd.StringSlice("exclude") {
			merged = append(merged, strings.Split(e, ",")...)
		}
		cfg.Exclude = merged
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	utils.SetLogLevel(cfg.LogLevel)
	return cfg, nil
}

func watch(ctx context.Context, cfg *config.Config) error {
	utils.ConfigureLogger()
	err := daemon.RunDaemon(ctx, cfg)
	if cfg.Daemonize {
		if rerr := os.Remove("dotignore.pid"); rerr != nil && !os.IsNotExist(rerr) {
			log.Warnf("Error removing PID file: %v", rerr)
		}
	}
	log.Info("Cleanup complete. Exiting.")
	return err
}

// checkPaths writes one line per ignored path, or per matched path when
// verbose, and returns how many paths are ignored.
func checkPaths(w io.Writer, ex *excluder.Excluder, paths []string, verbose, color bool) int {
	source := ex.IgnoreFile()
	if source == "" {
		source = "-"
	}

	ignored := 0
	for _, p := range paths {
		rule, ok := ex.Explain(p)
		isIgnored := ok && !rule.Negated
		if isIgnored {
			ignored++
		}

		switch {
		case verbose && ok:
			fmt.Fprintf(w, "%s:%d:%s\t%s\n", source, rule.Line, rule, paint(p, isIgnored && color))
		case isIgnored:
			fmt.Fprintln(w, paint(p, color))
		}
	}
	return ignored
}

func paint(s string, color bool) string {
	if !color {
		return s
	}
	return colorRed + s + colorReset
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
