package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/bodgit/infinitycard"
	"github.com/bodgit/infinitycard/layout"
	"github.com/bodgit/infinitycard/preview"
	"github.com/bodgit/infinitycard/watch"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB      = "cards.db"
	previewFile    = "preview.gif"
	envPrefix      = "INFINITYCARD_"
	defaultDBDir   = "infinitycard"
	timeFormat     = "2006-01-02 15:04"
	exitUserError  = 1
	projectArgs    = "DIRECTORY"
	projectArgsOpt = "DIRECTORY FACE"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, defaultDBDir, defaultDB)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(cwd, defaultDB)
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func openDB(c *cli.Context) (*infinitycard.CardDB, error) {
	file := c.String("db")
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, err
	}
	return infinitycard.NewCardDB(file)
}

// withProject opens the project named by the first argument and hands it to f.
// A nil cfg means the project must already exist.
func withProject(c *cli.Context, cfg *infinitycard.Config, f func(*infinitycard.Project, *log.Logger) error) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), exitUserError)
	}

	if cfg == nil {
		file := filepath.Join(c.Args().First(), infinitycard.GridFilename)
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				err = fmt.Errorf("%s: %w", file, layout.ErrMissingAsset)
			}
			return cli.Exit(err, exitUserError)
		}
		d := infinitycard.DefaultConfig()
		cfg = &d
	}

	logger := newLogger(c)

	db, err := openDB(c)
	if err != nil {
		return cli.Exit(err, exitUserError)
	}
	defer db.Close()

	cfg.Font = c.String("font")

	p, err := infinitycard.Open(c.Context, c.Args().First(), *cfg, db, logger)
	if err != nil {
		return cli.Exit(err, exitUserError)
	}

	if err := f(p, logger); err != nil {
		return cli.Exit(err, exitUserError)
	}

	return nil
}

func createConfig(c *cli.Context) (infinitycard.Config, error) {
	cfg := infinitycard.DefaultConfig()

	if c.IsSet("preset") {
		l, err := layout.Preset(c.String("preset"))
		if err != nil {
			return cfg, err
		}
		cfg.Layout = l
	}
	if c.IsSet("grid-order") {
		cfg.Layout.Grid = layout.GridOrder(c.String("grid-order"))
	}
	if c.IsSet("faces") {
		var faces []string
		for _, s := range c.StringSlice("faces") {
			faces = append(faces, strings.Fields(strings.ReplaceAll(s, ",", " "))...)
		}
		cfg.Layout = layout.New(string(cfg.Layout.Grid), faces...)
	}
	cfg.TileWidth = c.Int("tile-width")
	cfg.TileHeight = c.Int("tile-height")

	return cfg, nil
}

func printStatus(p *infinitycard.Project, s infinitycard.Status) {
	if s.Clean() {
		fmt.Printf("%s: clean\n", p.Name())
		return
	}
	fmt.Printf("%s:\n", p.Name())
	for _, i := range s.Stale {
		fmt.Printf("  %s differs from %s (run update to push it)\n", infinitycard.FaceFilename(i), infinitycard.GridFilename)
	}
	if len(s.Diverged) > 0 {
		labels := make([]string, len(s.Diverged))
		for i, l := range s.Diverged {
			labels[i] = l.String()
		}
		fmt.Printf("  faces disagree on tiles %s\n", strings.Join(labels, " "))
	}
	for _, name := range s.Modified {
		fmt.Printf("  %s modified since last written\n", name)
	}
}

func watchProject(ctx context.Context, p *infinitycard.Project, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(p.Dir(), watch.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("Watching %s, press Ctrl-C to stop\n", p.Dir())

	for e := range w.Events() {
		switch {
		case e.Name == infinitycard.GridFilename:
			err = p.Regenerate(ctx)
		case e.Name == infinitycard.RebuildFilename:
			continue
		default:
			if _, perr := infinitycard.ParseFaceFilename(e.Name, p.Layout().Len()); perr != nil {
				logger.Printf("Ignoring \"%s\": %v\n", e.Name, perr)
				continue
			}
			err = p.UpdateFace(ctx, e.Name)
		}

		// A bad edit is reported but does not stop the watch
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", e.Name, err)
			continue
		}
		fmt.Printf("Updated from %s\n", e.Name)

		for _, file := range p.Assets() {
			if err := w.Remember(file); err != nil {
				return err
			}
		}
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "infinitycard"
	app.Usage = "Infinity card artwork management utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{envPrefix + "DB"},
			Value:   defaultDBPath(),
			Usage:   "path to project catalogue",
		},
		&cli.StringFlag{
			Name:    "font",
			EnvVars: []string{envPrefix + "FONT"},
			Usage:   "TrueType or OpenType font used to label new grids",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "create",
			Usage:       "Create a project with a labelled grid and its faces",
			Description: "An existing project is loaded instead and its layout is left alone.",
			ArgsUsage:   projectArgs,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "preset",
					Value: layout.DefaultPreset,
					Usage: "face layout, one of " + strings.Join(layout.Presets(), ", "),
				},
				&cli.StringFlag{
					Name:  "grid-order",
					Usage: "the 16 grid labels in row-major order",
				},
				&cli.StringSliceFlag{
					Name:  "faces",
					Usage: "face codes of 4 labels each, in face order",
				},
				&cli.IntFlag{
					Name:  "tile-width",
					Value: 300,
					Usage: "tile width in pixels",
				},
				&cli.IntFlag{
					Name:  "tile-height",
					Value: 300,
					Usage: "tile height in pixels",
				},
			},
			Action: func(c *cli.Context) error {
				cfg, err := createConfig(c)
				if err != nil {
					return cli.Exit(err, exitUserError)
				}
				return withProject(c, &cfg, func(p *infinitycard.Project, _ *log.Logger) error {
					fmt.Printf("%s: %s\n", p.Dir(), p.Layout())
					return nil
				})
			},
		},
		{
			Name:        "update",
			Usage:       "Push an edited face back into the grid and regenerate all faces",
			Description: "FACE is a file named face{N} with any image extension in the project directory.",
			ArgsUsage:   projectArgsOpt,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), exitUserError)
				}
				return withProject(c, nil, func(p *infinitycard.Project, _ *log.Logger) error {
					return p.UpdateFace(c.Context, c.Args().Get(1))
				})
			},
		},
		{
			Name:      "regenerate",
			Usage:     "Rewrite every face from an edited grid",
			ArgsUsage: projectArgs,
			Action: func(c *cli.Context) error {
				return withProject(c, nil, func(p *infinitycard.Project, _ *log.Logger) error {
					return p.Regenerate(c.Context)
				})
			},
		},
		{
			Name:      "assemble",
			Usage:     "Rebuild a grid from the faces into " + infinitycard.RebuildFilename,
			ArgsUsage: projectArgs,
			Action: func(c *cli.Context) error {
				return withProject(c, nil, func(p *infinitycard.Project, _ *log.Logger) error {
					if _, err := p.Rebuild(); err != nil {
						return err
					}
					fmt.Println(filepath.Join(p.Dir(), infinitycard.RebuildFilename))
					return nil
				})
			},
		},
		{
			Name:      "status",
			Usage:     "Report faces that are out of step with the grid",
			ArgsUsage: projectArgs,
			Action: func(c *cli.Context) error {
				return withProject(c, nil, func(p *infinitycard.Project, _ *log.Logger) error {
					s, err := p.Status()
					if err != nil {
						return err
					}
					printStatus(p, s)
					return nil
				})
			},
		},
		{
			Name:      "preview",
			Usage:     "Write an animated GIF of the faces in fold order",
			ArgsUsage: projectArgs,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "output file (default: " + previewFile + " in the project directory)",
				},
				&cli.IntFlag{
					Name:  "size",
					Value: preview.ThumbnailSize,
					Usage: "longest side of each frame, 0 for full size",
				},
				&cli.IntFlag{
					Name:  "delay",
					Value: 100,
					Usage: "frame delay in 100ths of a second",
				},
				&cli.IntFlag{
					Name:  "colors",
					Value: 256,
					Usage: "palette size of each frame",
				},
			},
			Action: func(c *cli.Context) error {
				return withProject(c, nil, func(p *infinitycard.Project, _ *log.Logger) error {
					out := c.String("output")
					if out == "" {
						out = filepath.Join(p.Dir(), previewFile)
					}

					faces := p.Faces()
					frames := make([]image.Image, len(faces))
					for i, f := range faces {
						frames[i] = f
					}

					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()

					if err := preview.Encode(f, frames, &preview.Options{
						Size:   c.Int("size"),
						Delay:  c.Int("delay"),
						Colors: c.Int("colors"),
					}); err != nil {
						return err
					}
					fmt.Println(out)
					return f.Close()
				})
			},
		},
		{
			Name:      "watch",
			Usage:     "Watch a project and push every edited face automatically",
			ArgsUsage: projectArgs,
			Action: func(c *cli.Context) error {
				return withProject(c, nil, func(p *infinitycard.Project, logger *log.Logger) error {
					return watchProject(c.Context, p, logger)
				})
			},
		},
		{
			Name:      "scan",
			Usage:     "Catalogue every project found beneath a directory",
			ArgsUsage: projectArgs,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), exitUserError)
				}

				db, err := openDB(c)
				if err != nil {
					return cli.Exit(err, exitUserError)
				}
				defer db.Close()

				if err := db.Scan(c.Args().First(), newLogger(c)); err != nil {
					return cli.Exit(err, exitUserError)
				}

				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List catalogued projects",
			Action: func(c *cli.Context) error {
				db, err := openDB(c)
				if err != nil {
					return cli.Exit(err, exitUserError)
				}
				defer db.Close()

				projects, err := db.Projects()
				if err != nil {
					return cli.Exit(err, exitUserError)
				}

				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tFACES\tTILE\tUPDATED\tPATH")
				for _, p := range projects {
					fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%s\t%s\n", p.Name, p.Layout.Len(), p.TileWidth, p.TileHeight, p.Updated.Format(timeFormat), p.Path)
				}
				return tw.Flush()
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
