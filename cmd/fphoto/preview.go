package main

import (
	"fmt"
	"time"

	"github.com/kelly/fphoto/internal/meta"
	"github.com/kelly/fphoto/internal/render"
	"github.com/kelly/fphoto/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var previewCmd = &cobra.Command{
	Use:   "preview [template]",
	Short: "Validate a template and render it against a sample photo",
	Long: `Check a template for disallowed characters and show what it produces
for a representative photo. Useful while composing a template; no
files are read or changed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringArray("exclude", nil, "Substring to strip from rendered names (repeatable)")
	previewCmd.Flags().Bool("dedupe-same-maker", true, "Blank {lens_maker} when it equals {camera_maker}")
	previewCmd.Flags().Int("max-len", render.DefaultMaxFilenameLen, "Maximum filename length in runes")
}

// sampleRecord stands in for a typical sidecar-backed photo.
func sampleRecord() meta.Record {
	return meta.Record{
		Taken:       time.Date(2026, 2, 8, 14, 30, 52, 0, time.Local),
		CameraMaker: "FUJIFILM",
		CameraModel: "X-T5",
		LensMaker:   "FUJIFILM",
		LensModel:   "XF35mmF1.4 R",
		FilmSim:     "Velvia",
		Source:      meta.SourceXMP,
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	template := ""
	if len(args) == 1 {
		template = args[0]
	}
	if template == "" {
		template = viper.GetString("template")
	}
	if template == "" {
		template = defaultTemplate
	}

	exclusions, _ := cmd.Flags().GetStringArray("exclude")
	dedupe, _ := cmd.Flags().GetBool("dedupe-same-maker")
	maxLen, _ := cmd.Flags().GetInt("max-len")

	r, err := render.New(&render.Config{
		Template:        template,
		Exclusions:      exclusions,
		DedupeSameMaker: dedupe,
		MaxFilenameLen:  maxLen,
	})
	if err != nil {
		return planError(err)
	}

	fmt.Printf("template: %s\n", template)
	fmt.Printf("sample:   DSCF0001.JPG -> %s\n", r.Render(sampleRecord(), "DSCF0001.JPG"))

	return nil
}
