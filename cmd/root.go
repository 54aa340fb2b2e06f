package cmd

import (
	"github.com/spf13/cobra"

	"github.com/avolette/chordsift/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chordsift",
	Short: "Note cleanup and chord segmentation for polyphonic transcriptions",
	Long: `chordsift cleans up raw note detections from an audio-to-notes
transcription model and extracts time-aligned chord segments.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetLevel(logging.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
