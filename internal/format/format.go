package format

import (
	"fmt"
	"math"
	"strings"
)

// Encoder is the caller-facing encoder identifier
type Encoder string

const (
	EncoderAAC    Encoder = "AAC"
	EncoderAMRNB  Encoder = "AMR_NB"
	EncoderAMRWB  Encoder = "AMR_WB"
	EncoderVorbis Encoder = "VORBIS"
)

// Codec is the concrete codec written into the container
type Codec string

const (
	CodecAAC   Codec = "mpeg4-aac"
	CodecAMRNB Codec = "amr-nb"
	CodecAMRWB Codec = "amr-wb"
	CodecOpus  Codec = "opus"
)

// Quality is the encoder quality hint
type Quality string

const (
	QualityMin    Quality = "min"
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityMax    Quality = "max"
)

const (
	DefaultEncoder    = EncoderAAC
	DefaultSampleRate = 44100.0
	DefaultBitRate    = 16384

	// Channels is fixed: every session records mono.
	Channels = 1
)

// Spec is a resolved encoding configuration. It is immutable for the
// lifetime of a recording session.
type Spec struct {
	Encoder    Encoder `json:"encoder" yaml:"encoder"`
	Codec      Codec   `json:"codec" yaml:"codec"`
	Extension  string  `json:"extension" yaml:"extension"`
	SampleRate float64 `json:"sample_rate" yaml:"sample_rate"`
	BitRate    int     `json:"bit_rate" yaml:"bit_rate"`
	Channels   int     `json:"channels" yaml:"channels"`
	Quality    Quality `json:"quality" yaml:"quality"`
}

type entry struct {
	codec     Codec
	extension string
}

var table = map[Encoder]entry{
	EncoderAAC:    {codec: CodecAAC, extension: ".m4a"},
	EncoderAMRNB:  {codec: CodecAMRNB, extension: ".amr"},
	EncoderAMRWB:  {codec: CodecAMRWB, extension: ".amr"},
	EncoderVorbis: {codec: CodecOpus, extension: ".ogg"},
}

// Encoders returns the closed set of supported encoder identifiers in a stable order
func Encoders() []Encoder {
	return []Encoder{EncoderAAC, EncoderAMRNB, EncoderAMRWB, EncoderVorbis}
}

// UnsupportedError is returned when an encoder identifier is outside the supported set
type UnsupportedError struct {
	Encoder string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported audio encoder: %q", e.Encoder)
}

// ParseEncoder matches an identifier case-insensitively against the supported set
func ParseEncoder(id string) (Encoder, error) {
	enc := Encoder(strings.ToUpper(strings.TrimSpace(id)))
	if _, ok := table[enc]; !ok {
		return "", &UnsupportedError{Encoder: id}
	}
	return enc, nil
}

// Resolve maps a requested encoder, sample rate and bit rate onto a Spec.
func Resolve(encoderID string, sampleRate float64, bitRate int) (Spec, error) {
	enc, err := ParseEncoder(encoderID)
	if err != nil {
		return Spec{}, err
	}
	if !ValidSampleRate(sampleRate) {
		return Spec{}, fmt.Errorf("sample rate must be a positive finite number, got %v", sampleRate)
	}
	if bitRate <= 0 {
		return Spec{}, fmt.Errorf("bit rate must be positive, got %d", bitRate)
	}

	e := table[enc]
	return Spec{
		Encoder:    enc,
		Codec:      e.codec,
		Extension:  e.extension,
		SampleRate: sampleRate,
		BitRate:    bitRate,
		Channels:   Channels,
		Quality:    QualityHigh,
	}, nil
}

// ValidSampleRate reports whether rate is a positive finite number of Hz.
// NaN fails every comparison, so it is rejected by rate > 0.
func ValidSampleRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0)
}

// Default is the zero-configuration recording format. It bypasses the
// encoder table and writes a raw AAC stream.
func Default() Spec {
	return Spec{
		Encoder:    EncoderAAC,
		Codec:      CodecAAC,
		Extension:  ".aac",
		SampleRate: DefaultSampleRate,
		BitRate:    DefaultBitRate,
		Channels:   Channels,
		Quality:    QualityHigh,
	}
}

// MimeType derives the MIME type from the container and codec, never from file contents
func (s Spec) MimeType() string {
	switch s.Codec {
	case CodecAAC:
		if s.Extension == ".aac" {
			return "audio/aac"
		}
		return "audio/mp4"
	case CodecAMRNB:
		return "audio/amr"
	case CodecAMRWB:
		return "audio/amr-wb"
	case CodecOpus:
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

// EncoderSampleRate is the rate actually handed to the encoder. AMR codecs
// only run at their native rate and Opus only accepts a handful of rates.
func (s Spec) EncoderSampleRate() int {
	switch s.Codec {
	case CodecAMRNB:
		return 8000
	case CodecAMRWB:
		return 16000
	case CodecOpus:
		return nearestOpusRate(int(s.SampleRate))
	default:
		return int(s.SampleRate)
	}
}

var opusRates = []int{8000, 12000, 16000, 24000, 48000}

func nearestOpusRate(rate int) int {
	for _, r := range opusRates {
		if r >= rate {
			return r
		}
	}
	return opusRates[len(opusRates)-1]
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%s %gHz %dbps %dch", s.Encoder, strings.TrimPrefix(s.Extension, "."), s.SampleRate, s.BitRate, s.Channels)
}
