package audio

import "bytes"

// Format is the container detected from the first bytes of a payload.
type Format string

const (
	FormatMP3     Format = "mp3"
	FormatWAV     Format = "wav"
	FormatOgg     Format = "ogg"
	FormatUnknown Format = "unknown"
)

// DetectFormat sniffs the audio container. MP3 is recognised either by an
// ID3v2 tag or by an MPEG audio frame sync (11 set bits).
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS")):
		return FormatOgg
	default:
		return FormatUnknown
	}
}
