package audio

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// PipeWire lists capture ports through the pw-link tool
type PipeWire struct{}

// NewPipeWire creates a new PipeWire instance
func NewPipeWire() *PipeWire {
	return &PipeWire{}
}

// ListCapturePorts returns the output ports of the PipeWire graph, which
// include every microphone capture port
func (pw *PipeWire) ListCapturePorts() ([]string, error) {
	cmd := exec.Command("pw-link", "-o")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list PipeWire ports: %w", err)
	}

	ports := parsePortList(string(output))
	slog.Debug("Listed PipeWire ports", "count", len(ports))
	return ports, nil
}

// parsePortList extracts port names from pw-link output, keeping only
// capture-side ports and dropping duplicates
func parsePortList(output string) []string {
	seen := make(map[string]bool)
	var ports []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Input ports:") || strings.HasPrefix(line, "Output ports:") {
			continue
		}
		if !isCapturePort(line) {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		ports = append(ports, line)
	}

	return ports
}

// isCapturePort filters out playback monitors, which carry no microphone signal
func isCapturePort(port string) bool {
	lower := strings.ToLower(port)
	return !strings.Contains(lower, ":monitor_")
}
