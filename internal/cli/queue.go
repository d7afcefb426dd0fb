package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/pkg/errors"
	scio "github.com/matzehuels/scalebar/pkg/io"
	"github.com/matzehuels/scalebar/pkg/magnification"
	"github.com/matzehuels/scalebar/pkg/overlay"
	"github.com/matzehuels/scalebar/pkg/task"
)

// =============================================================================
// add
// =============================================================================

type addOptions struct {
	magnification string
	alignment     string
	output        string
	dir           bool
	recursive     bool
}

func (c *CLI) addCommand() *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add <image|dir>...",
		Short: "Queue images for processing",
		Long: `Add images to the queue. Accepted types: .jpg .jpeg .png .bmp .tiff.

If any argument has another extension the whole list is rejected and the
queue is left unchanged. With --dir, each argument is a directory whose
images are queued in name order.`,
		Example: `  scalebar add cells/a.tiff cells/b.tiff --magnification 57
  scalebar add --dir cells --recursive --alignment right`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.magnification, "magnification", "m", "", "magnification ratio, e.g. 57 or 57K (default from settings)")
	cmd.Flags().StringVarP(&opts.alignment, "alignment", "a", "", "left, center or right (default from settings)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from settings, else next to each image)")
	cmd.Flags().BoolVar(&opts.dir, "dir", false, "treat arguments as directories")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "with --dir, include subdirectories")

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, args []string, opts addOptions) error {
	cfg, _, err := c.loadSettings()
	if err != nil {
		return err
	}
	d := cfg.ImportDefaults.TaskDefaults()
	if opts.magnification != "" {
		if d.Magnification, err = magnification.Parse(opts.magnification); err != nil {
			return err
		}
	}
	if opts.alignment != "" {
		if d.Alignment, err = overlay.ParseAlignment(opts.alignment); err != nil {
			return err
		}
	}
	if opts.output != "" {
		d.DestinationDirectory = opts.output
	}

	var tasks []task.Task
	if opts.dir {
		for _, dir := range args {
			found, err := task.Import(ctx, task.DirPicker{Dir: dir, Recursive: opts.recursive}, d)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				printWarning("No images in %s", dir)
			}
			tasks = append(tasks, found...)
		}
	} else {
		if tasks, err = task.Import(ctx, task.StaticPicker(args), d); err != nil {
			return err
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	q, store, err := c.loadQueue(ctx)
	if err != nil {
		return err
	}
	if err := q.Add(tasks...); err != nil {
		return err
	}
	if err := store.Save(ctx, q); err != nil {
		return err
	}

	printSuccess("Queued %d image(s) at %s", len(tasks), d.Magnification.DisplayText())
	for _, t := range tasks {
		printFile(t.OutputPath)
	}
	printDetail("%d task(s) in queue", q.Len())
	return nil
}

// =============================================================================
// list
// =============================================================================

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the queue",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _, err := c.loadQueue(cmd.Context())
			if err != nil {
				return err
			}
			if q.Len() == 0 {
				printInfo("Queue is empty")
				printNextStep("Add images with", "scalebar add <image>...")
				return nil
			}
			printTaskTable(q.Tasks())
			return nil
		},
	}
}

func printTaskTable(tasks []task.Task) {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			t.ShortID(),
			t.Name(),
			t.Magnification.DisplayText(),
			t.Magnification.Label(),
			t.Alignment.String(),
			t.OutputPath,
		}
	}
	printTable([]string{"#", "ID", "Image", "Mag", "Bar", "Align", "Output"}, rows, func(_, col int) bool {
		return col == 3
	})
}

// =============================================================================
// remove / clear
// =============================================================================

func (c *CLI) removeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <task>...",
		Aliases: []string{"rm"},
		Short:   "Remove tasks by position or ID",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, store, err := c.loadQueue(ctx)
			if err != nil {
				return err
			}
			// Resolve every reference before removing any, so positions
			// refer to the queue as listed.
			var remove []task.Task
			for _, ref := range args {
				t, err := q.Resolve(ref)
				if err != nil {
					return err
				}
				remove = append(remove, t)
			}
			for _, t := range remove {
				if err := q.Remove(t.ID); err != nil && !errors.Is(err, errors.ErrCodeNotFound) {
					return err
				}
				printSuccess("Removed %s %s", t.Name(), StyleDim.Render(t.ShortID()))
			}
			return store.Save(ctx, q)
		},
	}
}

func (c *CLI) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every task from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, store, err := c.loadQueue(ctx)
			if err != nil {
				return err
			}
			n := q.Len()
			if err := store.Clear(ctx); err != nil {
				return err
			}
			printSuccess("Cleared %d task(s)", n)
			return nil
		},
	}
}

// =============================================================================
// set / output-dir
// =============================================================================

func (c *CLI) setCommand() *cobra.Command {
	var mag, align, output string

	cmd := &cobra.Command{
		Use:   "set <task>",
		Short: "Change a task's magnification, alignment or output path",
		Example: `  scalebar set 2 --magnification 92
  scalebar set 3f1c --alignment center --output out/fig3.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mag == "" && align == "" && output == "" {
				return errors.New(errors.ErrCodeInvalidInput, "nothing to change (use --magnification, --alignment or --output)")
			}
			ctx := cmd.Context()
			q, store, err := c.loadQueue(ctx)
			if err != nil {
				return err
			}
			ref, err := q.Resolve(args[0])
			if err != nil {
				return err
			}

			t, err := q.Update(ref.ID, func(t *task.Task) error {
				if mag != "" {
					o, err := magnification.Parse(mag)
					if err != nil {
						return err
					}
					t.Magnification = o
				}
				if align != "" {
					a, err := overlay.ParseAlignment(align)
					if err != nil {
						return err
					}
					t.Alignment = a
				}
				if output != "" {
					if err := errors.ValidatePath(output); err != nil {
						return err
					}
					abs, err := filepath.Abs(output)
					if err != nil {
						return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", output)
					}
					t.OutputPath = abs
				}
				return nil
			})
			if err != nil {
				return err
			}
			if err := store.Save(ctx, q); err != nil {
				return err
			}

			printSuccess("Updated %s", t.Name())
			printKeyValue("Magnification", fmt.Sprintf("%s (%s)", t.Magnification.DisplayText(), t.Magnification.Label()))
			printKeyValue("Alignment", t.Alignment.String())
			printKeyValue("Output", t.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mag, "magnification", "m", "", "magnification ratio")
	cmd.Flags().StringVarP(&align, "alignment", "a", "", "left, center or right")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")

	return cmd
}

func (c *CLI) outputDirCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "output-dir <dir>",
		Short: "Send every queued output to one directory",
		Long: `Rewrite every task's output path to <dir>/<name>_ScaleBar<ext>, keeping
the queue order. With --save the directory also becomes the import default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", args[0])
			}

			q, store, err := c.loadQueue(ctx)
			if err != nil {
				return err
			}
			if err := q.RemapOutputDirectory(dir); err != nil {
				return err
			}
			if err := store.Save(ctx, q); err != nil {
				return err
			}
			printSuccess("Outputs of %d task(s) now go to %s", q.Len(), dir)

			if save {
				cfg, s, err := c.loadSettings()
				if err != nil {
					return err
				}
				cfg.ImportDefaults.DestinationDirectory = dir
				if err := s.Save(cfg); err != nil {
					return err
				}
				printDetail("Saved as default destination")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "also store the directory as the import default")
	return cmd
}

// =============================================================================
// queue import / export
// =============================================================================

func (c *CLI) queueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Import or export the queue as a JSON or TOML manifest",
	}
	cmd.AddCommand(c.queueImportCommand())
	cmd.AddCommand(c.queueExportCommand())
	return cmd
}

func (c *CLI) queueImportCommand() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file.json|file.toml>",
		Short: "Append the tasks of a manifest to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, err := c.loadSettings()
			if err != nil {
				return err
			}
			tasks, err := scio.Import(args[0], cfg.ImportDefaults.TaskDefaults())
			if err != nil {
				return err
			}

			q, store, err := c.loadQueue(ctx)
			if err != nil {
				return err
			}
			if replace {
				q.Clear()
			}
			if err := q.Add(tasks...); err != nil {
				return err
			}
			if err := store.Save(ctx, q); err != nil {
				return err
			}
			printSuccess("Imported %d task(s) from %s", len(tasks), args[0])
			printDetail("%d task(s) in queue", q.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "clear the queue first")
	return cmd
}

func (c *CLI) queueExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.json|file.toml>",
		Short: "Write the queue to a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _, err := c.loadQueue(cmd.Context())
			if err != nil {
				return err
			}
			if err := scio.Export(args[0], q.Tasks()); err != nil {
				return err
			}
			printSuccess("Exported %d task(s)", q.Len())
			printFile(args[0])
			return nil
		},
	}
}
