package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/eidsvag/animere/internal"
	pkgconfig "github.com/eidsvag/animere/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = key
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func animate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: animere animate <diagram.mmd>")
	}
	return internal.RunAnimate(ctx, cfg, internal.AnimateParams{
		SourcePath:  cmd.Args().First(),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Theme:       cmd.String("theme"),
		FrameHint:   int(cmd.Int("frames")),
		Output:      cmd.String("output"),
	})
}

func validate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: animere validate <diagram.mmd>")
	}
	return internal.RunValidate(cmd.Args().First())
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "animere",
		Usage: "Animate Mermaid diagrams into self-contained SVG files",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (and the source watcher, when enabled)",
				Flags:  []cli.Flag{configFlag},
				Action: serve,
			},
			{
				Name:      "animate",
				Usage:     "Animate one diagram file and exit",
				ArgsUsage: "<diagram.mmd>",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "name",
						Usage: "Run name recorded in the catalog (default: file stem)",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Animation intent; skips the describe step",
					},
					&cli.StringFlag{
						Name:  "theme",
						Usage: "Theme: " + strings.Join(internal.ListThemeNames(), ", "),
					},
					&cli.IntFlag{
						Name:  "frames",
						Usage: "Requested keyframe count (0 for the default)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the artifact to this path as well",
					},
				},
				Action: animate,
			},
			{
				Name:      "validate",
				Usage:     "Validate a diagram file without animating it",
				ArgsUsage: "<diagram.mmd>",
				Action:    validate,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the animation tools over MCP stdio",
				Flags:  []cli.Flag{configFlag},
				Action: mcp,
			},
		},
		// Bare invocation behaves like serve.
		Action: serve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
