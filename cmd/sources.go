package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/audiolibrelab/voicecapture/internal/audio"
	"github.com/audiolibrelab/voicecapture/internal/session"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List available audio input sources",
	Long:  `List capture sources known to PulseAudio and capture ports in the PipeWire graph.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("🎵 Audio Sources (%s)\n", runtime.GOOS)
		fmt.Printf("═══════════════════════════════════════\n\n")

		pulseErr := listPulseSources()
		if pulseErr != nil {
			slog.Warn("Could not list PulseAudio sources", "error", pulseErr)
		}

		pipewireErr := listPipeWirePorts()
		if pipewireErr != nil {
			slog.Warn("Could not list PipeWire ports", "error", pipewireErr)
		}

		if pulseErr != nil && pipewireErr != nil {
			return fmt.Errorf("no audio server reachable")
		}

		fmt.Printf("\n💡 Usage:\n")
		fmt.Printf("  • Set audio.input_device to a PulseAudio source name\n")
		fmt.Printf("  • Current: %s\n\n", cfg.Audio.InputDevice)
		return nil
	},
}

func listPulseSources() error {
	sources, err := session.ListPulseSources()
	if err != nil {
		return err
	}

	fmt.Printf("📋 PULSEAUDIO SOURCES (%d found):\n", len(sources))
	for i, source := range sources {
		fmt.Printf("  %d. %s (%s)\n", i+1, source.ID, source.Name)
	}
	fmt.Println()
	return nil
}

func listPipeWirePorts() error {
	ports, err := audio.NewPipeWire().ListCapturePorts()
	if err != nil {
		return err
	}

	fmt.Printf("📋 PIPEWIRE CAPTURE PORTS (%d found):\n", len(ports))
	for i, port := range ports {
		fmt.Printf("  %d. %s\n", i+1, port)
	}
	return nil
}
