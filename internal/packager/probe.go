package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

const probeTimeout = 10 * time.Second

// Prober reads the media duration of a container file
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFProbe reads durations with the ffprobe binary
type FFProbe struct {
	path string
}

var _ Prober = (*FFProbe)(nil)

// NewFFProbe creates a prober using the ffprobe binary at path
func NewFFProbe(path string) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{path: path}
}

// Duration runs ffprobe and returns the container's format duration
func (p *FFProbe) Duration(ctx context.Context, path string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	return parseProbeDuration(output)
}

// parseProbeDuration extracts format.duration from ffprobe JSON output
func parseProbeDuration(output []byte) (time.Duration, error) {
	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if probeResult.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}

	seconds, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", probeResult.Format.Duration, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %v", seconds)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
