package dependencies

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gitsnow/gitsnow/cmd/foldertoscript"
	"github.com/gitsnow/gitsnow/cmd/util"
	"github.com/gitsnow/gitsnow/internal/plan"
)

var (
	ignorePrefixes []string
	upperCase      bool
	outputFormat   string
	workers        int
)

var ShowDependenciesCmd = &cobra.Command{
	Use:   "show-dependencies",
	Short: "Print the dependency graph of the scripts directory",
	Long: `Print every object of the scripts directory in deployment order together
with the objects it reads from, followed by the objects nothing depends on
and the referenced names that no script defines.`,
	RunE:         runShowDependencies,
	SilenceUsage: true,
}

func init() {
	ShowDependenciesCmd.Flags().StringSliceVar(&ignorePrefixes, "ignore-prefixes", nil, "Comma-separated name prefixes left out of the unreferenced objects list")
	ShowDependenciesCmd.Flags().BoolVar(&upperCase, "upper-case", false, "Show object names in upper case")
	ShowDependenciesCmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text or table")
	ShowDependenciesCmd.Flags().IntVar(&workers, "workers", 0, "Number of files parsed in parallel (default: one per CPU)")
}

func runShowDependencies(cmd *cobra.Command, args []string) error {
	scriptsDir, err := util.ScriptsDir(cmd)
	if err != nil {
		return err
	}

	deployPlan, err := foldertoscript.GeneratePlan(cmd.Context(), &foldertoscript.FolderToScriptConfig{
		ScriptsDir: scriptsDir,
		Workers:    workers,
	})
	if err != nil {
		return err
	}

	return WriteDependencies(cmd.OutOrStdout(), deployPlan, Options{
		IgnorePrefixes: ignorePrefixes,
		UpperCase:      upperCase,
		Format:         outputFormat,
	})
}

// Options controls how the dependency report is printed
type Options struct {
	// IgnorePrefixes hides matching names from the unreferenced list
	IgnorePrefixes []string
	UpperCase      bool
	// Format is "text" (default) or "table"
	Format string
}

// WriteDependencies prints the dependency report of deployPlan to w
func WriteDependencies(w io.Writer, deployPlan *plan.Plan, opts Options) error {
	display := strings.ToLower
	if opts.UpperCase {
		display = func(s string) string { return s }
	}
	g := deployPlan.Graph

	switch opts.Format {
	case "", "text":
		for _, obj := range deployPlan.Sequence {
			deps := references(deployPlan, obj.Key())
			if len(deps) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s:\n", display(obj.Key()))
			for _, dep := range deps {
				fmt.Fprintf(w, "  - %s\n", display(dep))
			}
			fmt.Fprintln(w)
		}
	case "table":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Object", "Type", "Depends on"})
		for i, obj := range deployPlan.Sequence {
			deps := references(deployPlan, obj.Key())
			for j := range deps {
				deps[j] = display(deps[j])
			}
			t.AppendRow(table.Row{i + 1, display(obj.Key()), strings.ToLower(string(obj.Type)), strings.Join(deps, "\n")})
		}
		t.Render()
		fmt.Fprintln(w)
	default:
		return fmt.Errorf("unknown format %q (use text or table)", opts.Format)
	}

	fmt.Fprintln(w, "Unreferenced objects:")
	for _, name := range g.Unreferenced() {
		if hasPrefix(name, opts.IgnorePrefixes) {
			continue
		}
		fmt.Fprintf(w, "  - %s\n", display(name))
	}

	if external := g.AllExternalReferences(); len(external) > 0 {
		fmt.Fprintln(w, "\nReferenced dependencies with no known path:")
		for _, ref := range external {
			fmt.Fprintf(w, "  - %s\n", display(ref.String()))
		}
	}
	return nil
}

// references lists the known dependencies of name followed by its external references
func references(deployPlan *plan.Plan, name string) []string {
	deps := append([]string(nil), deployPlan.Graph.Dependencies(name)...)
	for _, ref := range deployPlan.Graph.ExternalReferences(name) {
		deps = append(deps, ref.String())
	}
	return deps
}

func hasPrefix(name string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && strings.HasPrefix(strings.ToUpper(name), strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}
