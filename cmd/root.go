// Package cmd wires the reelsmith command line.
package cmd

import (
	"reelsmith/config"
	"reelsmith/types"

	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "reelsmith",
	Short: "Assemble short-form videos from a project folder",
	Long: `reelsmith turns a project folder of clips, captions and background music
into a single captioned, narrated short video. It can run once from the
command line or as a server that accepts render requests over HTTP and Kafka.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnv()
	},
}

// Execute runs the root command. The caller maps the error to an exit code.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return types.NewError(types.ErrConfig, err)
	})

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(uploadCmd)
}
