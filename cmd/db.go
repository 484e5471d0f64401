package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shelfgate/shelfgate/internal/config"
	"github.com/shelfgate/shelfgate/internal/store"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the station store",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store schema",
	Long: `Create the store schema if it does not exist yet. Opening the
store applies the schema, so this is mainly useful for provisioning a
database before the first serve.`,
	RunE: runDBInit,
}

var dbPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all circulation data",
	RunE:  runDBPurge,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbPurgeCmd)

	dbPurgeCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runDBInit(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := store.Open(context.Background(), &cfg.Store)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer st.Close()

	fmt.Println("Store schema ready")
	return nil
}

func runDBPurge(cmd *cobra.Command, args []string) error {
	if !mustGetBool(cmd, "yes") {
		fmt.Print("This deletes ALL assets, identities and transactions. Continue? [y/N] ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	cfg := config.Load()
	st, err := store.Open(context.Background(), &cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.PurgeAll(context.Background()); err != nil {
		return fmt.Errorf("purging store: %w", err)
	}
	fmt.Println("Store purged")
	return nil
}
