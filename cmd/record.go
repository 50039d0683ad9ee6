package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/audiolibrelab/voicecapture/internal/packager"
	"github.com/audiolibrelab/voicecapture/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone until stopped",
	Long: `Record from the default microphone. Commands are read from stdin:

  p      pause
  r      resume
  s      stop (an empty line or Ctrl+C also stops)

Without format flags the fixed default format is used (raw AAC, 44100 Hz,
16384 bit/s). Any of --encoder, --sample-rate or --bit-rate selects a
parameterised recording; missing values come from the configuration profile.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		encoder, _ := cmd.Flags().GetString("encoder")
		sampleRate, _ := cmd.Flags().GetFloat64("sample-rate")
		bitRate, _ := cmd.Flags().GetInt("bit-rate")
		outFile, _ := cmd.Flags().GetString("out")
		asJSON, _ := cmd.Flags().GetBool("json")

		svc := service.New(cfg)
		defer svc.Shutdown()

		var err error
		if cmd.Flags().Changed("encoder") || cmd.Flags().Changed("sample-rate") || cmd.Flags().Changed("bit-rate") {
			err = svc.StartWithFormat(service.FormatParams{
				Encoder:    encoder,
				SampleRate: sampleRate,
				BitRate:    bitRate,
			})
		} else {
			err = svc.Start()
		}
		if err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		slog.Info("Recording - type p to pause, r to resume, s or Enter to stop")

		if err := waitForStop(cmd.Context(), svc, cmd.InOrStdin()); err != nil {
			return err
		}

		slog.Info("Stopping recording...")
		artifact, err := svc.Stop(context.Background())
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}

		if outFile != "" {
			if err := os.WriteFile(outFile, artifact.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outFile, err)
			}
			slog.Info("Recording saved", "file", outFile)
		}

		return printArtifact(cmd.OutOrStdout(), artifact, asJSON)
	},
}

// waitForStop drives pause and resume from stdin until a stop command,
// end of input or a termination signal
func waitForStop(ctx context.Context, svc service.Service, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-sigChan:
			return nil
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "s", "stop":
				return nil
			case "p", "pause":
				ok, err := svc.Pause()
				if err != nil {
					return err
				}
				slog.Info("Pause", "paused", ok, "status", svc.GetCurrentStatus())
			case "r", "resume":
				ok, err := svc.Resume()
				if err != nil {
					return err
				}
				slog.Info("Resume", "resumed", ok, "status", svc.GetCurrentStatus())
			default:
				slog.Warn("Unknown command", "command", line)
			}
		}
	}
}

func printArtifact(w io.Writer, artifact packager.Artifact, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(artifact)
	}
	fmt.Fprintf(w, "mimeType:   %s\n", artifact.MimeType)
	fmt.Fprintf(w, "msDuration: %d\n", artifact.MsDuration)
	fmt.Fprintf(w, "bytes:      %d\n", len(artifact.Data))
	return nil
}

func init() {
	recordCmd.Flags().String("encoder", "", "encoder: AAC, AMR_NB, AMR_WB or VORBIS")
	recordCmd.Flags().Float64("sample-rate", 0, "sample rate in Hz")
	recordCmd.Flags().Int("bit-rate", 0, "bit rate in bits per second")
	recordCmd.Flags().StringP("out", "o", "", "write the recorded file here")
	recordCmd.Flags().Bool("json", false, "print the artifact as JSON (content, mimeType, msDuration)")
}
