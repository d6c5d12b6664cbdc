package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"section-presets/auth"
	"section-presets/client"
	"section-presets/preset"
)

type options struct {
	url     string
	token   string
	section string
}

func (o *options) client() *client.Client {
	return client.New(o.url, o.token)
}

func (o *options) scope() (preset.Section, error) {
	section := preset.Section(o.section)
	if err := preset.ValidateSection(section); err != nil {
		return "", err
	}
	return section, nil
}

// NewRootCommand builds presetctl with its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "presetctl",
		Short:         "Manage saved section presets on a preset server",
		Long:          `presetctl lists, saves, deletes and exports the named presets a user keeps for a form section.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.url, "url", getenv("PRESETS_URL", "http://localhost:8080"), "Preset server URL (env PRESETS_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PRESETS_TOKEN"), "Bearer token (env PRESETS_TOKEN)")
	root.PersistentFlags().StringVar(&opts.section, "section", string(preset.Education), "Form section")

	root.AddCommand(
		newListCommand(opts),
		newSaveCommand(opts),
		newDeleteCommand(opts),
		newExportCommand(opts),
		newTokenCommand(),
	)
	return root
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List saved presets in registry order",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := opts.scope()
			if err != nil {
				return err
			}
			presets, err := opts.client().List(cmd.Context(), "", section)
			if err != nil {
				return fmt.Errorf("list presets: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(presets) == 0 {
				fmt.Fprintf(out, "No %s presets saved.\n", section)
				return nil
			}
			for _, p := range presets {
				fmt.Fprintf(out, "%s\t%d record(s)\n", p.Name, len(p.Value))
			}
			return nil
		},
	}
}

func newSaveCommand(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <name> -f <records.yaml>",
		Short: "Save a record list as a preset, overwriting any preset of that name",
		Long: `Save reads a YAML list of records and stores it under name.

Example records.yaml:
  - institution: MIT
    degree: BS
    year: "2020"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := opts.scope()
			if err != nil {
				return err
			}
			records, err := readRecords(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p := preset.Preset{Name: args[0], Value: records}
			if err := preset.Validate(p); err != nil {
				return err
			}
			if err := opts.client().Save(cmd.Context(), "", section, p); err != nil {
				return fmt.Errorf("save preset %q: %w", p.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s preset %q (%d records)\n", section, p.Name, len(records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with the records (- for stdin)")
	cmd.MarkFlagRequired("file") //nolint:errcheck
	return cmd
}

func newDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Short:   "Delete a preset",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := opts.scope()
			if err != nil {
				return err
			}
			if err := opts.client().Delete(cmd.Context(), "", section, args[0]); err != nil {
				return fmt.Errorf("delete preset %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s preset %q\n", section, args[0])
			return nil
		},
	}
}

func newExportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <name>",
		Short: "Print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, err := opts.scope()
			if err != nil {
				return err
			}
			presets, err := opts.client().List(cmd.Context(), "", section)
			if err != nil {
				return fmt.Errorf("list presets: %w", err)
			}
			i := preset.IndexOf(presets, args[0])
			if i < 0 {
				return fmt.Errorf("%w: %q", preset.ErrNotFound, args[0])
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(presets[i]); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newTokenCommand() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [user]",
		Short: "Sign a bearer token with JWT_SECRET",
		Long:  `Token signs a token for user, or for a fresh random user id when none is given. The secret is read from JWT_SECRET.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := auth.NewIssuer(os.Getenv("JWT_SECRET"))
			if err != nil {
				return err
			}
			user := uuid.New().String()
			if len(args) == 1 {
				user = args[0]
			}
			tok, err := issuer.Issue(user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func readRecords(path string, stdin io.Reader) ([]preset.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	records := []preset.Record{}
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	if records == nil {
		records = []preset.Record{}
	}
	return records, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
