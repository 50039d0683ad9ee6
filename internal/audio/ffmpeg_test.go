package audio

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/voicecapture/internal/config"
	"github.com/audiolibrelab/voicecapture/internal/format"
)

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestFFmpegEngine_DefaultFormatArgs(t *testing.T) {
	engine := NewFFmpegEngine(config.AudioConfig{}, &fakeSource{})

	capture, err := engine.NewCapture("/tmp/out.aac", format.Default())
	require.NoError(t, err)

	args := capture.(*FFmpegCapture).Args()
	assert.Equal(t, "s16le", argValue(args, "-f"))
	assert.Equal(t, "pipe:0", argValue(args, "-i"))
	assert.Equal(t, "1", argValue(args, "-ac"))
	assert.Equal(t, "44100", argValue(args, "-ar"))
	assert.Equal(t, "aac", argValue(args, "-c:a"))
	assert.Equal(t, "16384", argValue(args, "-b:a"))
	assert.Equal(t, "/tmp/out.aac", args[len(args)-1])
}

func TestFFmpegEngine_CodecArgs(t *testing.T) {
	tests := []struct {
		encoder string
		codec   string
		rate    string
	}{
		{"AAC", "aac", "44100"},
		{"AMR_NB", "libopencore_amrnb", "8000"},
		{"AMR_WB", "libvo_amrwbenc", "16000"},
		{"VORBIS", "libopus", "48000"},
	}

	engine := NewFFmpegEngine(config.AudioConfig{InputDevice: "alsa_input.usb-mic"}, &fakeSource{})

	for _, tt := range tests {
		t.Run(tt.encoder, func(t *testing.T) {
			spec, err := format.Resolve(tt.encoder, 44100, 24000)
			require.NoError(t, err)

			capture, err := engine.NewCapture("/tmp/out"+spec.Extension, spec)
			require.NoError(t, err)

			ffmpeg := capture.(*FFmpegCapture)
			args := ffmpeg.Args()
			assert.Equal(t, "pipe:0", argValue(args, "-i"))
			assert.Equal(t, tt.codec, argValue(args, "-c:a"))
			assert.Equal(t, tt.rate, argValue(args, "-ar"))
			assert.Equal(t, tt.rate, strconv.Itoa(ffmpeg.sampleRate))
			assert.True(t, strings.HasSuffix(args[len(args)-1], spec.Extension))
		})
	}
}

func TestFFmpegEngine_UnknownCodec(t *testing.T) {
	engine := NewFFmpegEngine(config.AudioConfig{}, &fakeSource{})
	_, err := engine.NewCapture("/tmp/out.bin", format.Spec{Codec: "pcm", Channels: 1, SampleRate: 8000})
	assert.Error(t, err)
}

func TestFFmpegEngine_Available(t *testing.T) {
	engine := NewFFmpegEngine(config.AudioConfig{FFmpegPath: "/nonexistent/ffmpeg-binary"}, nil)
	assert.Error(t, engine.Available())
}

func TestFFmpegCapture_StopBeforeStart(t *testing.T) {
	capture := &FFmpegCapture{}
	assert.NoError(t, capture.Stop())
	assert.Error(t, capture.Pause())
	assert.Error(t, capture.Resume())
}

func TestFFmpegCapture_StartFailure(t *testing.T) {
	capture := &FFmpegCapture{ffmpegPath: "/nonexistent/ffmpeg-binary", outputPath: t.TempDir() + "/out.aac", source: &fakeSource{}}
	assert.Error(t, capture.Start())
}

func TestFFmpegCapture_StartWithoutSource(t *testing.T) {
	capture := &FFmpegCapture{ffmpegPath: "ffmpeg", outputPath: t.TempDir() + "/out.aac"}
	assert.ErrorContains(t, capture.Start(), "no audio source")
}

func TestFFmpegCapture_SourceOpenFailureStopsEncoder(t *testing.T) {
	source := &fakeSource{openErr: errors.New("source unavailable")}
	output := t.TempDir() + "/out.aac"
	capture := &FFmpegCapture{ffmpegPath: fakeEncoderScript(t), args: []string{"-y", output}, outputPath: output, source: source}

	assert.ErrorContains(t, capture.Start(), "source unavailable")
	assert.Error(t, capture.Pause())
	assert.NoError(t, capture.Stop())
}

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	_, ok := NewEngine(cfg).(*FFmpegEngine)
	assert.True(t, ok)
	assert.Equal(t, []BackendType{BackendTypeFFmpeg}, GetAvailableBackends())
}
