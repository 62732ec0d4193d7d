// Package main provides the entry point for the MailBridge CLI tool.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mnohosten/mailbridge/internal/config"
	"github.com/mnohosten/mailbridge/internal/logging"
	"github.com/mnohosten/mailbridge/internal/service"
	"github.com/mnohosten/mailbridge/internal/version"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "mailbridge",
		Short: "MailBridge - email operations CLI",
		Long:  "Send, read, search and manage email over configured SMTP and IMAP accounts.",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")

	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(bulkCmd())
	rootCmd.AddCommand(readCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(markCmd())
	rootCmd.AddCommand(forwardCmd())
	rootCmd.AddCommand(replyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(draftCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(contactsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("MailBridge CLI %s\n", version.Version)
			fmt.Printf("Commit: %s\n", version.Commit)
			fmt.Printf("Built: %s\n", version.BuildTime)
		},
	}
}

// withService loads configuration, builds the service and runs fn,
// closing the service afterwards.
func withService(fn func(svc *service.Service) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging)

	svc, err := service.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer svc.Close()

	return fn(svc)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
