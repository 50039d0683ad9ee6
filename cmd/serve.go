package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/audiolibrelab/voicecapture/internal/server"
	"github.com/audiolibrelab/voicecapture/internal/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Start the VoiceCapture HTTP server to drive recordings remotely.

Endpoints: POST /start, /pause, /resume, /stop and GET /status,
/permission, /capabilities.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetString("port")
		}

		srv := server.New(service.New(cfg), port)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("VoiceCapture web server starting", "port", port, "config", cfgFile, "profile", cfg.Profile)

		// Run blocks until a signal arrives and the recording is abandoned
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "port for the web server (overrides config)")
}
