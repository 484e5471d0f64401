package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shelfgate",
	Short: "RFID and face-recognition circulation station",
	Long: `Shelfgate runs a self-service circulation station: assets are
identified by RFID tags and borrowers by facial recognition. The serve
command starts the station with its web console; the db commands manage
the underlying store.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
