package foldertoscript

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitsnow/gitsnow/cmd/util"
	"github.com/gitsnow/gitsnow/internal/format"
	"github.com/gitsnow/gitsnow/internal/ignore"
	"github.com/gitsnow/gitsnow/internal/plan"
	"github.com/gitsnow/gitsnow/internal/source"
)

var (
	dbName            string
	outputFile        string
	outputJSON        string
	outputHuman       string
	noColor           bool
	formatterCmd      string
	workers           int
	expectFingerprint string
	includeComments   bool
)

var FolderToScriptCmd = &cobra.Command{
	Use:   "folder-to-script",
	Short: "Compile the scripts directory into one ordered deployment script",
	Long: `Parse every .sql file under the scripts directory, work out which objects
read from which, and write a single deployment script that creates the
objects in dependency order. Fails on unparseable files, duplicate
definitions and dependency cycles.`,
	RunE:         runFolderToScript,
	SilenceUsage: true,
	PreRunE:      util.PreRunEWithEnvVarsAndFormatter(&dbName, &formatterCmd),
}

func init() {
	FolderToScriptCmd.Flags().StringVar(&dbName, "db-name", "", "Database name (required) (env: SNOWFLAKE_DATABASE)")
	FolderToScriptCmd.Flags().StringVar(&outputFile, "output-file", "", "Write the deployment script to stdout or a file path")
	FolderToScriptCmd.Flags().StringVar(&outputJSON, "output-json", "", "Write the plan as JSON to stdout or a file path")
	FolderToScriptCmd.Flags().StringVar(&outputHuman, "output-human", "", "Write a human-readable summary to stdout or a file path")
	FolderToScriptCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	FolderToScriptCmd.Flags().StringVar(&formatterCmd, "formatter-cmd", "", "External formatter reading SQL on stdin (env: GITSNOW_FORMATTER)")
	FolderToScriptCmd.Flags().IntVar(&workers, "workers", util.GetEnvIntWithDefault(util.EnvWorkers, 0), "Number of files parsed in parallel (default: one per CPU) (env: GITSNOW_WORKERS)")
	FolderToScriptCmd.Flags().StringVar(&expectFingerprint, "expect-fingerprint", "", "Fail unless the object set has this fingerprint (prefix allowed)")
	FolderToScriptCmd.Flags().BoolVar(&includeComments, "include-comments", true, "Precede each statement with an object comment")
}

func runFolderToScript(cmd *cobra.Command, args []string) error {
	scriptsDir, err := util.ScriptsDir(cmd)
	if err != nil {
		return err
	}

	config := &FolderToScriptConfig{
		ScriptsDir:        scriptsDir,
		Database:          dbName,
		FormatterCmd:      formatterCmd,
		Workers:           workers,
		ExpectFingerprint: expectFingerprint,
		IncludeComments:   includeComments,
	}

	outputs, err := determineOutputs()
	if err != nil {
		return err
	}

	deployPlan, err := GeneratePlan(cmd.Context(), config)
	if err != nil {
		return err
	}

	for _, output := range outputs {
		if err := processOutput(cmd, deployPlan, output); err != nil {
			return err
		}
	}
	return nil
}

// FolderToScriptConfig holds configuration for compiling a scripts directory
type FolderToScriptConfig struct {
	ScriptsDir        string
	Database          string
	FormatterCmd      string
	Workers           int
	ExpectFingerprint string
	IncludeComments   bool
}

// GeneratePlan loads, parses and sequences every script under config.ScriptsDir
func GeneratePlan(ctx context.Context, config *FolderToScriptConfig) (*plan.Plan, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	ignoreConfig, err := ignore.LoadForScriptsDir(config.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ignore.IgnoreFileName, err)
	}

	files, err := source.LoadDir(config.ScriptsDir)
	if err != nil {
		return nil, err
	}

	formatter, err := format.ForScripts(config.FormatterCmd)
	if err != nil {
		return nil, err
	}

	deployPlan, err := plan.Build(ctx, files, plan.Options{
		Database:        config.Database,
		Workers:         config.Workers,
		Ignore:          ignoreConfig,
		Formatter:       formatter,
		IncludeComments: config.IncludeComments,
	})
	if err != nil {
		return nil, err
	}

	if config.ExpectFingerprint != "" {
		if err := deployPlan.CheckFingerprint(config.ExpectFingerprint); err != nil {
			return nil, err
		}
	}
	return deployPlan, nil
}

// outputSpec is one requested output: a format and where it goes
type outputSpec struct {
	format string // "human", "json", or "sql"
	target string // "stdout" or file path
}

func isStdout(target string) bool {
	return target == "stdout" || target == "-"
}

// determineOutputs parses the output flags and returns the list of outputs to generate
func determineOutputs() ([]outputSpec, error) {
	var outputs []outputSpec
	stdoutCount := 0

	for _, o := range []outputSpec{
		{format: "sql", target: outputFile},
		{format: "json", target: outputJSON},
		{format: "human", target: outputHuman},
	} {
		if o.target == "" {
			continue
		}
		if isStdout(o.target) {
			stdoutCount++
		}
		outputs = append(outputs, o)
	}

	if stdoutCount > 1 {
		return nil, fmt.Errorf("only one output format can use stdout")
	}

	// Default behavior: the deployment script on stdout
	if len(outputs) == 0 {
		outputs = append(outputs, outputSpec{format: "sql", target: "stdout"})
	}
	return outputs, nil
}

// processOutput writes the plan in the specified format to the target destination
func processOutput(cmd *cobra.Command, deployPlan *plan.Plan, output outputSpec) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var content string
	var err error

	switch output.format {
	case "sql":
		content, err = deployPlan.ToSQL(ctx)
	case "json":
		content, err = deployPlan.ToJSON(ctx)
		content += "\n"
	case "human":
		useColor := isStdout(output.target) && !noColor
		content = deployPlan.HumanColored(useColor)
	default:
		return fmt.Errorf("unknown output format: %s", output.format)
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s output: %w", output.format, err)
	}

	if isStdout(output.target) {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(output.target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s output to %s: %w", output.format, output.target, err)
	}
	return nil
}
