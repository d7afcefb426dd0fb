package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/pkg/errors"
	"github.com/matzehuels/scalebar/pkg/settings"
)

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved settings",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configSetCommand())
	cmd.AddCommand(c.configPathCommand())
	return cmd
}

func (c *CLI) configShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settingsStore()
			if err != nil {
				return err
			}
			cfg, err := s.LoadStrict()
			switch {
			case errors.Is(err, errors.ErrCodeNotFound):
				cfg = settings.Default()
			case err != nil:
				printWarning("%s; showing defaults", errors.UserMessage(err))
				cfg = settings.Default()
			}

			if asJSON {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			d := cfg.ImportDefaults
			dest := d.DestinationDirectory
			if dest == "" {
				dest = StyleDim.Render("(next to each image)")
			}
			fontDesc := cfg.Font.Family
			if cfg.Font.Path != "" {
				fontDesc = cfg.Font.Path
			}
			if cfg.Font.AllowFallback {
				fontDesc += StyleDim.Render(" (fallback allowed)")
			}

			printKeyValue("magnification", d.Magnification().DisplayText())
			printKeyValue("alignment", d.Alignment.String())
			printKeyValue("destination", dest)
			printKeyValue("marginLeft", fmt.Sprint(cfg.ScaleBarLeftMargin))
			printKeyValue("marginBottom", fmt.Sprint(cfg.ScaleBarBottomMargin))
			printKeyValue("font", fontDesc)
			printKeyValue("compositor", cfg.Compositor)
			printKeyValue("previewWidth", fmt.Sprint(cfg.PreviewWidth))
			printNewline()
			printDetail("File: %s", s.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON document")
	return cmd
}

func (c *CLI) configSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Change one setting. Keys: " + strings.Join(settings.Keys, ", ") + ".",
		Example: `  scalebar config set magnification 57
  scalebar config set marginBottom 60
  scalebar config set font.allowFallback true`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return settings.Keys, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settingsStore()
			if err != nil {
				return err
			}
			// A corrupt document is reported rather than replaced.
			cfg, err := s.LoadStrict()
			if errors.Is(err, errors.ErrCodeNotFound) {
				cfg, err = settings.Default(), nil
			}
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := s.Save(cfg); err != nil {
				return err
			}
			printSuccess("%s = %s", args[0], StyleHighlight.Render(args[1]))
			return nil
		},
	}
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.settingsStore()
			if err != nil {
				return err
			}
			fmt.Println(s.Path())
			return nil
		},
	}
}
