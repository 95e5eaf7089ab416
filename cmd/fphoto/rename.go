package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelly/fphoto/internal/execute"
	"github.com/kelly/fphoto/internal/plan"
	"github.com/kelly/fphoto/internal/render"
	"github.com/kelly/fphoto/internal/report"
	"github.com/kelly/fphoto/internal/store"
	"github.com/kelly/fphoto/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultTemplate is used when neither flag nor config provide one.
const defaultTemplate = "{year}{month}{day}_{orig_name}"

var renameCmd = &cobra.Command{
	Use:   "rename <jpg-input>",
	Short: "Plan and optionally apply metadata-based renames",
	Long: `Plan new names for the given JPG file or directory. The plan is
printed and, without --apply, nothing is changed on disk.

With --apply every conflict-free rename in the plan is executed and
recorded so 'fphoto undo' can roll it back. Pass --backup to copy the
originals into a backup directory under the JPG folder first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRename,
}

func init() {
	rootCmd.AddCommand(renameCmd)

	addPlanFlags(renameCmd)
	renameCmd.Flags().Bool("apply", false, "Execute the plan instead of just printing it")
	renameCmd.Flags().Bool("backup", false, "Copy originals into a backup directory before renaming")
}

// addPlanFlags registers the flags shared by rename and preview.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().String("raw", "", "Directory containing XMP/DNG/RAF sidecars")
	cmd.Flags().Bool("raw-from-parent", false, "Look for sidecars in the parent of the JPG directory when --raw is not given")
	cmd.Flags().BoolP("recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().Bool("include-hidden", false, "Include hidden files and directories")
	cmd.Flags().String("template", "", "Filename template (default \"{year}{month}{day}_{orig_name}\")")
	cmd.Flags().StringArray("exclude", nil, "Substring to strip from rendered names (repeatable)")
	cmd.Flags().Bool("dedupe-same-maker", true, "Blank {lens_maker} when it equals {camera_maker}")
	cmd.Flags().Int("max-len", render.DefaultMaxFilenameLen, "Maximum filename length in runes")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

func runRename(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	apply, _ := cmd.Flags().GetBool("apply")
	backup, _ := cmd.Flags().GetBool("backup")
	output, _ := cmd.Flags().GetString("output")

	logger := newEventLogger()
	defer logger.Close()

	builder := plan.New(plan.Config{
		Logger:   logger,
		Progress: output != "json",
	})

	start := time.Now()
	p, err := builder.Build(planRequestFromFlags(cmd, args[0]))
	if err != nil {
		return planError(err)
	}

	if err := printPlan(p, output); err != nil {
		return err
	}

	util.InfoLog("Planned %d renames, %d unchanged, %d conflicts in %v",
		p.Stats.Planned, p.Stats.Unchanged, p.Stats.Conflicts,
		time.Since(start).Round(time.Millisecond))

	if !apply {
		if p.Stats.Planned > 0 {
			util.InfoLog("Dry run; pass --apply to rename")
		}
		return nil
	}

	dbPath := viper.GetString("db")
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	executor := execute.New(execute.Config{
		Store:  db,
		Logger: logger,
	})

	result, err := executor.Apply(p, execute.Options{
		BackupOriginals: backup,
	})
	if err != nil {
		return err
	}

	util.SuccessLog("Applied %d renames (%d unchanged, %d failed)",
		result.Applied, result.Unchanged, result.Failed)
	if result.BackupDir != "" {
		util.InfoLog("Originals backed up to %s", result.BackupDir)
	}
	for _, e := range result.Errors {
		util.WarnLog("%v", e)
	}
	if result.Applied > 0 {
		util.InfoLog("Roll back with: fphoto undo --db %s", dbPath)
	}

	return nil
}

// planRequestFromFlags merges flags with config file values, flags
// winning.
func planRequestFromFlags(cmd *cobra.Command, input string) plan.Request {
	template, _ := cmd.Flags().GetString("template")
	if template == "" {
		template = viper.GetString("template")
	}
	if template == "" {
		template = defaultTemplate
	}

	exclusions, _ := cmd.Flags().GetStringArray("exclude")
	if len(exclusions) == 0 {
		exclusions = viper.GetStringSlice("exclude")
	}

	rawInput, _ := cmd.Flags().GetString("raw")
	rawFromParent, _ := cmd.Flags().GetBool("raw-from-parent")
	recursive, _ := cmd.Flags().GetBool("recursive")
	includeHidden, _ := cmd.Flags().GetBool("include-hidden")
	dedupe, _ := cmd.Flags().GetBool("dedupe-same-maker")
	maxLen, _ := cmd.Flags().GetInt("max-len")

	return plan.Request{
		JPGInput:           input,
		RawInput:           rawInput,
		RawParentIfMissing: rawFromParent,
		Recursive:          recursive,
		IncludeHidden:      includeHidden,
		Template:           template,
		Exclusions:         exclusions,
		DedupeSameMaker:    dedupe,
		MaxFilenameLen:     maxLen,
	}
}

// newEventLogger picks the event log level from the global verbosity
// flags, falling back to a no-op logger when artifacts cannot be
// written.
func newEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo
	if viper.GetBool("quiet") {
		logLevel = report.LevelWarning
	} else if viper.GetBool("verbose") {
		logLevel = report.LevelDebug
	}

	logger, err := report.NewEventLogger("artifacts", logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}
	return logger
}

// planError rewrites builder sentinels into actionable messages.
func planError(err error) error {
	switch {
	case errors.Is(err, plan.ErrMissingInput):
		return fmt.Errorf("%w (check the path)", err)
	case errors.Is(err, plan.ErrUnsupportedFileType):
		return fmt.Errorf("%w (only .jpg/.jpeg files are renamed)", err)
	case errors.Is(err, plan.ErrRawRootNotFound):
		return fmt.Errorf("%w (check --raw)", err)
	case errors.Is(err, util.ErrInvalidTemplate):
		return fmt.Errorf("%w (templates must not contain \\ / : * ? \" < > |)", err)
	}
	return err
}
