package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/cli"
	"github.com/toyz/lark/internal/utils"
)

type globalFlags struct {
	module  string
	verbose bool
	quiet   bool
}

func (f *globalFlags) diagnostics(cmd *cobra.Command) *utils.DiagnosticSystem {
	level := utils.DiagnosticInfo
	switch {
	case f.quiet:
		level = utils.DiagnosticError
	case f.verbose:
		level = utils.DiagnosticVerbose
	}
	return utils.NewDiagnosticSystemWithWriters(level, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func (f *globalFlags) generator(cmd *cobra.Command, diagnostics *utils.DiagnosticSystem) *cli.Generator {
	reporter := cli.NewDiagnosticReporterWithWriter(f.verbose, cmd.ErrOrStderr())
	return cli.NewGenerator(diagnostics, reporter)
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "larkgen",
		Short: "Generate Lark request implementations from annotated structs",
		Long: `larkgen scans Go packages for structs embedding lark.Endpoint and writes a
lark_requests_gen.go per package implementing lark.Request for each of them.

Directory arguments accept Go-style patterns:
  ./...              the current directory and all subdirectories
  ./internal/...     internal and all its subdirectories
  ./pkg/api          only that directory`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.module, "module", "", "Module path for reported import paths (defaults to go.mod)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output and detailed error reporting")
	cmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only show errors")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		newGenerateCommand(flags),
		newCleanCommand(flags),
		newInspectCommand(flags),
		newSchemaCommand(),
	)

	return cmd
}

func newGenerateCommand(flags *globalFlags) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "generate [directories...]",
		Short: "Write lark_requests_gen.go for every package with request structs",
		Example: `  larkgen generate ./...
  larkgen generate --check ./api/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics := flags.diagnostics(cmd)
			diagnostics.Section("Request Generator")

			if flags.verbose {
				diagnostics.Subsection("Configuration")
				diagnostics.List("Target directories: %s", strings.Join(directories(args), ", "))
				if flags.module != "" {
					diagnostics.List("Custom module: %s", flags.module)
				}
				if check {
					diagnostics.List("Check mode: enabled")
				}
			}

			generator := flags.generator(cmd, diagnostics)
			err := generator.Run(cli.Config{
				Directories: directories(args),
				ModuleName:  flags.module,
				Verbose:     flags.verbose,
				Check:       check,
			})
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			summary := generator.GetSummary()
			diagnostics.Summary("Generation complete", map[string]interface{}{
				"Packages processed": summary.PackagesProcessed,
				"Requests found":     summary.RequestsFound,
				"Files written":      len(summary.GeneratedFiles),
				"Files unchanged":    len(summary.UnchangedFiles),
				"Files removed":      len(summary.RemovedFiles),
			})

			if flags.verbose && len(summary.GeneratedFiles) > 0 {
				diagnostics.Subsection("Generated Files")
				for _, file := range summary.GeneratedFiles {
					diagnostics.List("%s", file)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Fail when generated files are missing or out of date instead of writing them")
	return cmd
}

func newCleanCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [directories...]",
		Short: "Delete generated lark_requests_gen.go files",
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics := flags.diagnostics(cmd)

			removed, err := cli.NewCleaner().CleanGeneratedFiles(directories(args))
			if err != nil {
				return fmt.Errorf("clean failed: %w", err)
			}

			for _, file := range removed {
				diagnostics.Verbose("removed %s", file)
			}
			diagnostics.Success("Removed %d generated files", len(removed))
			return nil
		},
	}
}

func newInspectCommand(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [directories...]",
		Short: "Print the compiled request descriptors without writing files",
		RunE: func(cmd *cobra.Command, args []string) error {
			// keep stdout clean for the report
			diagnostics := utils.NewDiagnosticSystemWithWriters(utils.DiagnosticError, cmd.ErrOrStderr(), cmd.ErrOrStderr())
			if flags.verbose {
				diagnostics = utils.NewDiagnosticSystemWithWriters(utils.DiagnosticVerbose, cmd.ErrOrStderr(), cmd.ErrOrStderr())
			}

			packages, err := flags.generator(cmd, diagnostics).Inspect(cli.Config{
				Directories: directories(args),
				ModuleName:  flags.module,
				Verbose:     flags.verbose,
			})
			if err != nil {
				return fmt.Errorf("inspect failed: %w", err)
			}

			return cli.WriteInspectReport(cmd.OutOrStdout(), cli.NewInspectReport(packages), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Describe the request annotation grammar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "On the embedded lark.Endpoint field:")
			fmt.Fprint(out, annotations.ContainerSchema.Describe())
			fmt.Fprintln(out)
			fmt.Fprintln(out, "On request fields:")
			fmt.Fprint(out, annotations.FieldSchema.Describe())
			return nil
		},
	}
}

// directories defaults to the whole module
func directories(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}
