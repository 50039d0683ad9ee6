package audio

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/audiolibrelab/voicecapture/internal/config"
	"github.com/audiolibrelab/voicecapture/internal/format"
)

const (
	stopTimeout = 5 * time.Second

	// a missing encoder or unwritable output makes ffmpeg exit within this
	// window
	startupGrace = 300 * time.Millisecond
)

// FFmpegEngine records by feeding PCM from a Source into an ffmpeg process
// per capture
type FFmpegEngine struct {
	cfg    config.AudioConfig
	source Source
}

var _ Engine = (*FFmpegEngine)(nil)

// NewFFmpegEngine creates a new ffmpeg-based engine reading from source
func NewFFmpegEngine(cfg config.AudioConfig, source Source) *FFmpegEngine {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &FFmpegEngine{cfg: cfg, source: source}
}

// Available checks that the ffmpeg binary can be found
func (e *FFmpegEngine) Available() error {
	if _, err := exec.LookPath(e.cfg.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", e.cfg.FFmpegPath, err)
	}
	return nil
}

// NewCapture builds the ffmpeg command line for the requested format
func (e *FFmpegEngine) NewCapture(outputPath string, spec format.Spec) (Capture, error) {
	args, err := e.buildArgs(outputPath, spec)
	if err != nil {
		return nil, err
	}
	return &FFmpegCapture{
		ffmpegPath: e.cfg.FFmpegPath,
		args:       args,
		outputPath: outputPath,
		source:     e.source,
		sampleRate: spec.EncoderSampleRate(),
	}, nil
}

func (e *FFmpegEngine) buildArgs(outputPath string, spec format.Spec) ([]string, error) {
	codecArgs, err := codecArgs(spec)
	if err != nil {
		return nil, err
	}

	rate := strconv.Itoa(spec.EncoderSampleRate())
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-f", "s16le",
		"-ar", rate,
		"-ac", strconv.Itoa(spec.Channels),
		"-i", "pipe:0",
		"-ar", rate,
	}
	args = append(args, codecArgs...)
	args = append(args, "-y", outputPath)

	return args, nil
}

// codecArgs maps a resolved format to ffmpeg encoder arguments. The muxer is
// picked by ffmpeg from the output extension.
func codecArgs(spec format.Spec) ([]string, error) {
	bitRate := strconv.Itoa(spec.BitRate)
	switch spec.Codec {
	case format.CodecAAC:
		return []string{"-c:a", "aac", "-b:a", bitRate}, nil
	case format.CodecAMRNB:
		return []string{"-c:a", "libopencore_amrnb", "-b:a", bitRate}, nil
	case format.CodecAMRWB:
		return []string{"-c:a", "libvo_amrwbenc", "-b:a", bitRate}, nil
	case format.CodecOpus:
		return []string{"-c:a", "libopus", "-b:a", bitRate}, nil
	default:
		return nil, fmt.Errorf("no ffmpeg encoder for codec %q", spec.Codec)
	}
}

// FFmpegCapture is a single ffmpeg process writing one output file. Audio
// reaches it on stdin through a feed that can be paused at the source.
type FFmpegCapture struct {
	ffmpegPath string
	args       []string
	outputPath string
	source     Source
	sampleRate int

	mutex  sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	feed   *feed
	done   chan error
	paused bool

	bufMutex  sync.Mutex
	stderrBuf strings.Builder
}

var _ Capture = (*FFmpegCapture)(nil)

// Args returns the ffmpeg arguments this capture runs with
func (c *FFmpegCapture) Args() []string {
	return append([]string(nil), c.args...)
}

// Start launches ffmpeg and connects the audio source to it
func (c *FFmpegCapture) Start() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cmd != nil {
		return fmt.Errorf("capture already started")
	}
	if c.source == nil {
		return fmt.Errorf("no audio source configured")
	}

	// Remove existing output file
	os.Remove(c.outputPath)

	slog.Info("Starting FFmpeg capture", "command", c.ffmpegPath+" "+strings.Join(c.args, " "))

	cmd := exec.Command(c.ffmpegPath, c.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start FFmpeg: %w", err)
	}

	done := make(chan error, 1)

	var readers sync.WaitGroup
	readers.Add(2)
	go c.readOutput(stdout, nil, "stdout", &readers)
	go c.readOutput(stderr, &c.stderrBuf, "stderr", &readers)

	go func() {
		// Wait must not run before the pipes are drained
		readers.Wait()
		done <- cmd.Wait()
	}()

	f, err := openFeed(c.source, c.sampleRate, stdin)
	if err != nil {
		stdin.Close()
		cmd.Process.Kill()
		<-done
		return err
	}

	select {
	case err := <-done:
		f.close()
		stdin.Close()
		return fmt.Errorf("FFmpeg exited during startup: %v: %s", err, lastLine(c.Stderr()))
	case <-time.After(startupGrace):
	}

	c.cmd = cmd
	c.stdin = stdin
	c.feed = f
	c.done = done
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

// readOutput reads from a pipe and optionally buffers output
func (c *FFmpegCapture) readOutput(pipe io.Reader, buffer *strings.Builder, label string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		if buffer != nil {
			c.bufMutex.Lock()
			buffer.WriteString(line + "\n")
			c.bufMutex.Unlock()
		}
		slog.Debug("FFmpeg output", "stream", label, "line", line)
	}
}

// Pause stops the source stream; audio captured while paused is discarded
func (c *FFmpegCapture) Pause() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.feed == nil {
		return fmt.Errorf("capture not started")
	}
	if c.paused {
		return nil
	}
	if err := c.feed.pause(); err != nil {
		return fmt.Errorf("failed to pause audio source: %w", err)
	}
	c.paused = true
	slog.Debug("FFmpeg capture paused")
	return nil
}

// Resume restarts the source stream
func (c *FFmpegCapture) Resume() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.feed == nil {
		return fmt.Errorf("capture not started")
	}
	if !c.paused {
		return nil
	}
	if err := c.feed.resume(); err != nil {
		return fmt.Errorf("failed to resume audio source: %w", err)
	}
	c.paused = false
	slog.Debug("FFmpeg capture resumed")
	return nil
}

// Stop closes the source and ffmpeg's stdin so it finalises the container,
// then waits for it
func (c *FFmpegCapture) Stop() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cmd == nil {
		return nil
	}
	defer c.reset()

	if err := c.feed.close(); err != nil {
		slog.Debug("Failed to close audio source", "error", err)
	}
	if err := c.stdin.Close(); err != nil {
		slog.Debug("Failed to close FFmpeg stdin", "error", err)
	}

	select {
	case err := <-c.done:
		return normalizeExit(err)
	case <-time.After(stopTimeout):
		slog.Warn("FFmpeg did not exit within timeout, force killing")
		if c.cmd.Process != nil {
			c.cmd.Process.Kill()
		}
		<-c.done
		return nil
	}
}

// reset must be called with the mutex held
func (c *FFmpegCapture) reset() {
	c.cmd = nil
	c.stdin = nil
	c.feed = nil
	c.paused = false
}

// normalizeExit treats interrupted and killed exits as success
func normalizeExit(err error) error {
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		// Exit code 255 means ffmpeg was interrupted gracefully
		if exitErr.ExitCode() == 255 {
			return nil
		}
		if exitErr.ProcessState != nil {
			stateStr := exitErr.ProcessState.String()
			if stateStr == "signal: interrupt" || stateStr == "signal: killed" {
				return nil
			}
		}
	}
	return fmt.Errorf("FFmpeg process failed: %w", err)
}

// Stderr returns what ffmpeg wrote to stderr so far
func (c *FFmpegCapture) Stderr() string {
	c.bufMutex.Lock()
	defer c.bufMutex.Unlock()
	return c.stderrBuf.String()
}
