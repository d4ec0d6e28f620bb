// Starknode DB tool - inspect and maintain a node's block store
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/halcyonlabs/starknode/log"
	"github.com/halcyonlabs/starknode/storage"
)

var (
	Version = "dev"
	Commit  = "none"
)

func openBackend(dataPath string) (*storage.Backend, error) {
	db, err := storage.NewPersistenceStore(dataPath)
	if err != nil {
		return nil, err
	}
	return storage.NewBackend(db)
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "starknode",
		Short: "Starknet node block store tool",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dataPath string
		logLevel string
	)
	rootCmd.PersistentFlags().StringVar(&dataPath, "db", "", "path to the block store")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace|debug|info|warn|error)")

	var latestCmd = &cobra.Command{
		Use:   "latest",
		Short: "Print the latest block hash and number",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
			backend, err := openBackend(dataPath)
			if err != nil {
				fmt.Printf("Failed to open block store at %s: %v\n", dataPath, err)
				os.Exit(1)
			}
			defer backend.Close()

			hash, number, err := backend.GetBlockHashAndNumber()
			if errors.Is(err, storage.ErrMissingBlock) {
				fmt.Println("No blocks imported yet")
				return
			}
			if err != nil {
				fmt.Printf("Failed to read latest block: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Block %d  %s\n", number, hash)
		},
	}

	var clearPendingCmd = &cobra.Command{
		Use:   "clear-pending",
		Short: "Drop the staged pending block and its classes",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
			backend, err := openBackend(dataPath)
			if err != nil {
				fmt.Printf("Failed to open block store at %s: %v\n", dataPath, err)
				os.Exit(1)
			}
			defer backend.Close()

			// NewBackend already cleared the tier on open; this is explicit
			// for scripting against a copied store.
			if err := backend.ClearPending(); err != nil {
				fmt.Printf("Failed to clear pending tier: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Pending tier cleared")
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("starknode %s (%s)\n", Version, Commit)
		},
	}

	rootCmd.AddCommand(latestCmd, clearPendingCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
