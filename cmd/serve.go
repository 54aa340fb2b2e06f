package cmd

import (
	"github.com/spf13/cobra"

	"github.com/avolette/chordsift/logging"
	"github.com/avolette/chordsift/pipeline"
	"github.com/avolette/chordsift/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the note-cleanup HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := server.New(pipeline.DefaultConfig())
		if err != nil {
			return err
		}
		logging.Info("listening", logging.Fields{"addr": serveAddr})
		return srv.ListenAndServe(serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
