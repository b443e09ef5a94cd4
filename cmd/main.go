package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront cart and session service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, gRPC health server and checkout consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), configPath)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", getEnv("STOREFRONT_CONFIG", ""), "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
