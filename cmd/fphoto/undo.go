package main

import (
	"errors"
	"fmt"

	"github.com/kelly/fphoto/internal/execute"
	"github.com/kelly/fphoto/internal/store"
	"github.com/kelly/fphoto/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Roll back the most recent apply",
	Long: `Rename every file from the last apply back to its original name, in
reverse order. Files that were moved or deleted since are skipped.
Backup directories are never removed.`,
	RunE: runUndo,
}

func init() {
	rootCmd.AddCommand(undoCmd)
}

func runUndo(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	logger := newEventLogger()
	defer logger.Close()

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	executor := execute.New(execute.Config{
		Store:  db,
		Logger: logger,
	})

	result, err := executor.Undo()
	if err != nil {
		if errors.Is(err, execute.ErrNothingToUndo) {
			util.InfoLog("Nothing to undo")
			return nil
		}
		return err
	}

	util.SuccessLog("Restored %d files (%d skipped)", result.Restored, result.Skipped)
	for _, e := range result.Errors {
		util.WarnLog("%v", e)
	}

	return nil
}
