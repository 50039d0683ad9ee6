package format

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SupportedEncoders(t *testing.T) {
	tests := []struct {
		id        string
		codec     Codec
		extension string
		mime      string
	}{
		{"AAC", CodecAAC, ".m4a", "audio/mp4"},
		{"aac", CodecAAC, ".m4a", "audio/mp4"},
		{"AMR_NB", CodecAMRNB, ".amr", "audio/amr"},
		{"amr_wb", CodecAMRWB, ".amr", "audio/amr-wb"},
		{"Vorbis", CodecOpus, ".ogg", "audio/ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			spec, err := Resolve(tt.id, 44100, 16384)
			require.NoError(t, err)
			assert.Equal(t, tt.codec, spec.Codec)
			assert.Equal(t, tt.extension, spec.Extension)
			assert.Equal(t, tt.mime, spec.MimeType())
			assert.Equal(t, 1, spec.Channels)
			assert.Equal(t, QualityHigh, spec.Quality)
		})
	}
}

func TestResolve_Unsupported(t *testing.T) {
	for _, id := range []string{"", "MP3", "HE_AAC", "DEFAULT", "opus", "AAC-LC"} {
		_, err := Resolve(id, 44100, 16384)
		var unsupported *UnsupportedError
		require.True(t, errors.As(err, &unsupported), "encoder %q should be rejected", id)
		assert.Equal(t, id, unsupported.Encoder)
	}
}

func TestResolve_TrimsWhitespace(t *testing.T) {
	spec, err := Resolve(" amr_nb ", 8000, 12200)
	require.NoError(t, err)
	assert.Equal(t, EncoderAMRNB, spec.Encoder)
}

func TestResolve_InvalidRates(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		bitRate    int
	}{
		{"zero sample rate", 0, 16384},
		{"negative sample rate", -44100, 16384},
		{"NaN sample rate", math.NaN(), 16384},
		{"+Inf sample rate", math.Inf(1), 16384},
		{"-Inf sample rate", math.Inf(-1), 16384},
		{"negative bit rate", 44100, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve("AAC", tt.sampleRate, tt.bitRate)
			assert.Error(t, err)
		})
	}
}

func TestValidSampleRate(t *testing.T) {
	assert.True(t, ValidSampleRate(8000))
	assert.True(t, ValidSampleRate(44100.5))
	assert.False(t, ValidSampleRate(0))
	assert.False(t, ValidSampleRate(-1))
	assert.False(t, ValidSampleRate(math.NaN()))
	assert.False(t, ValidSampleRate(math.Inf(1)))
	assert.False(t, ValidSampleRate(math.Inf(-1)))
}

func TestDefault(t *testing.T) {
	spec := Default()
	assert.Equal(t, EncoderAAC, spec.Encoder)
	assert.Equal(t, ".aac", spec.Extension)
	assert.Equal(t, 44100.0, spec.SampleRate)
	assert.Equal(t, 16384, spec.BitRate)
	assert.Equal(t, 1, spec.Channels)
	assert.Equal(t, QualityHigh, spec.Quality)
	assert.Equal(t, "audio/aac", spec.MimeType())
}

func TestEncoderSampleRate(t *testing.T) {
	amrnb, _ := Resolve("AMR_NB", 44100, 12200)
	assert.Equal(t, 8000, amrnb.EncoderSampleRate())

	amrwb, _ := Resolve("AMR_WB", 44100, 23850)
	assert.Equal(t, 16000, amrwb.EncoderSampleRate())

	opus, _ := Resolve("VORBIS", 44100, 32000)
	assert.Equal(t, 48000, opus.EncoderSampleRate())

	opusLow, _ := Resolve("VORBIS", 16000, 32000)
	assert.Equal(t, 16000, opusLow.EncoderSampleRate())

	aac, _ := Resolve("AAC", 22050, 32000)
	assert.Equal(t, 22050, aac.EncoderSampleRate())
}
