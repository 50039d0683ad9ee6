package audio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out a single stream that emits frames on demand. Frames
// are delivered whether or not the stream is started, like buffers already
// in flight from the device.
type fakeSource struct {
	stream  *fakeStream
	openErr error
}

func (s *fakeSource) Open(sampleRate int, w io.Writer) (SourceStream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.stream = &fakeStream{w: w, sampleRate: sampleRate}
	return s.stream, nil
}

type fakeStream struct {
	mutex      sync.Mutex
	w          io.Writer
	sampleRate int
	running    bool
	starts     int
	stops      int
	closed     bool
	failStop   error
}

func (s *fakeStream) emit(t *testing.T, frame []byte) {
	t.Helper()
	n, err := s.w.Write(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)
}

func (s *fakeStream) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.running = true
	s.starts++
	return nil
}

func (s *fakeStream) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.failStop != nil {
		return s.failStop
	}
	s.running = false
	s.stops++
	return nil
}

func (s *fakeStream) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.running = false
	s.closed = true
	return nil
}

func (s *fakeStream) isRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

func TestFeed_PausedFramesNeverReachSink(t *testing.T) {
	source := &fakeSource{}
	var sink bytes.Buffer

	f, err := openFeed(source, 16000, &sink)
	require.NoError(t, err)
	assert.Equal(t, 16000, source.stream.sampleRate)
	assert.True(t, source.stream.isRunning())

	source.stream.emit(t, []byte("aaaa"))

	require.NoError(t, f.pause())
	assert.False(t, source.stream.isRunning())
	source.stream.emit(t, []byte("bbbbbb"))

	require.NoError(t, f.resume())
	assert.True(t, source.stream.isRunning())
	source.stream.emit(t, []byte("cccc"))

	require.NoError(t, f.close())
	source.stream.emit(t, []byte("dd"))

	assert.Equal(t, "aaaacccc", sink.String())
	assert.Equal(t, int64(8), f.gate.droppedBytes())
	assert.Equal(t, 1, source.stream.stops)
	assert.Equal(t, 2, source.stream.starts)
	assert.True(t, source.stream.closed)
}

func TestFeed_PauseFailureKeepsDelivering(t *testing.T) {
	source := &fakeSource{}
	var sink bytes.Buffer

	f, err := openFeed(source, 8000, &sink)
	require.NoError(t, err)

	source.stream.failStop = errors.New("cork refused")
	assert.Error(t, f.pause())

	source.stream.emit(t, []byte("live"))
	assert.Equal(t, "live", sink.String())
	assert.Zero(t, f.gate.droppedBytes())
}

func TestFeed_OpenFailure(t *testing.T) {
	source := &fakeSource{openErr: errors.New("no such source")}
	_, err := openFeed(source, 8000, io.Discard)
	assert.ErrorContains(t, err, "no such source")
}

// fakeEncoderScript stands in for ffmpeg by copying stdin to the last
// argument, which is the output path
func fakeEncoderScript(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	script := "#!/bin/sh\nfor arg; do out=$arg; done\nexec cat > \"$out\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestFFmpegCapture_PausedAudioNotEncoded(t *testing.T) {
	source := &fakeSource{}
	output := filepath.Join(t.TempDir(), "out.aac")
	capture := &FFmpegCapture{
		ffmpegPath: fakeEncoderScript(t),
		args:       []string{"-f", "s16le", "-i", "pipe:0", "-y", output},
		outputPath: output,
		source:     source,
		sampleRate: 44100,
	}

	require.NoError(t, capture.Start())
	source.stream.emit(t, []byte("before-"))

	require.NoError(t, capture.Pause())
	source.stream.emit(t, []byte("PAUSED-AUDIO"))

	require.NoError(t, capture.Resume())
	source.stream.emit(t, []byte("after"))

	require.NoError(t, capture.Stop())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "before-after", string(data))
	assert.NotContains(t, string(data), "PAUSED")
	assert.Equal(t, 1, source.stream.stops)
	assert.True(t, source.stream.closed)
}
