package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
	"github.com/shelfgate/shelfgate/internal/config"
	"github.com/shelfgate/shelfgate/internal/hardware"
	"github.com/shelfgate/shelfgate/internal/session"
	"github.com/shelfgate/shelfgate/internal/store"
	"github.com/shelfgate/shelfgate/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the circulation station",
	Long: `Start the Shelfgate station: the HTTP API, the operator console
and the session workflow engine. With --sim the station runs against
simulated hardware instead of the RFID and camera bridge daemons.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("sim", false, "Use simulated hardware instead of bridge daemons")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// simHardware builds in-process hardware that always presents the same
// tag and the same face, so the full workflow can be exercised without
// a reader or camera attached.
func simHardware() (hardware.TagReader, hardware.Camera) {
	embedding := make(biometric.Embedding, biometric.EmbeddingDim)
	for i := range embedding {
		embedding[i] = 0.1
	}
	scene := hardware.OneFaceScene(embedding)

	reader := &hardware.SimReader{DefaultTag: "SIM0001"}
	camera := &hardware.SimCamera{Default: &scene}
	return reader, camera
}

func buildHardware(cmd *cobra.Command, cfg *config.Config) (hardware.TagReader, hardware.Camera) {
	if mustGetBool(cmd, "sim") {
		fmt.Println("Using simulated hardware")
		return simHardware()
	}
	fmt.Printf("RFID bridge: %s\n", cfg.Hardware.ReaderURL)
	fmt.Printf("Camera bridge: %s\n", cfg.Hardware.CameraURL)
	reader := hardware.NewReaderClient(cfg.Hardware.ReaderURL, cfg.Hardware.TagReadTimeout)
	camera := hardware.NewCameraClient(cfg.Hardware.CameraURL, cfg.Hardware.CaptureTimeout)
	return reader, camera
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ctx := context.Background()
	st, err := store.Open(ctx, &cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	reader, camera := buildHardware(cmd, cfg)

	status := session.NewStatusCell()
	sess := session.New(st, reader, camera, status, session.Config{
		Tolerance:     cfg.Circulation.MatchTolerance,
		LoanPeriod:    cfg.Circulation.LoanPeriod,
		OperatorDwell: cfg.Circulation.OperatorDwell,
	})
	orchestrator := session.NewOrchestrator(sess, status)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(st, orchestrator, status, camera, host, port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Shelfgate station on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
