package main

import (
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/skillbridge/skillbridge/internal/config"
	"github.com/skillbridge/skillbridge/internal/mcpserver"
	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool/builtin"
)

var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the session tools over MCP (stdio)",
	Long: `Starts a Model Context Protocol server on stdin/stdout with a fresh session.
An MCP client can read a resume, edit session state and save the career plan
with the same tools the pipeline stages use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries JSON-RPC
		log.SetOutput(os.Stderr)

		settings := config.LoadSettings()
		if err := settings.Validate(); err != nil {
			return err
		}
		sess := state.NewSession(uuid.NewString())
		reg := builtin.NewSessionRegistry(sess, builtin.Options{
			ResumeDir:  settings.ResumeDir,
			OutputDir:  settings.OutputDir,
			OutputFile: settings.OutputFile,
		})
		return mcpserver.New(sess, reg, version).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
