// Package audio provides the MP3 container manipulation the narration
// pipeline needs: concatenating rendered segments and padding them with
// leading silence so playback does not clip the first word.
//
// MP3 is a frame-oriented format, so decoders accept back-to-back frame
// streams. Stitching therefore reduces to stripping per-segment ID3v2 tags
// and concatenating frames. No re-encoding happens here.
package audio

import (
	"bytes"
	"errors"
	"time"
)

// silentFrameDuration is the playback length of one synthesized frame at
// 44.1 kHz MPEG-1 Layer III.
const silentFrameDuration = 26122 * time.Microsecond

// silentFrameLen is 144 * bitrate / samplerate for 128 kbps at 44.1 kHz.
const silentFrameLen = 417

// ErrNoSegments is returned when Stitch is called with nothing to join.
var ErrNoSegments = errors.New("audio: no segments to stitch")

// silentFrame builds one MPEG-1 Layer III frame whose side info and main
// data are zeroed. Decoders render it as silence.
func silentFrame() []byte {
	frame := make([]byte, silentFrameLen)
	// Sync word, MPEG-1 Layer III no CRC, 128 kbps, 44.1 kHz, stereo
	frame[0] = 0xFF
	frame[1] = 0xFB
	frame[2] = 0x90
	frame[3] = 0x64
	return frame
}

// Silence returns an MP3 stream of approximately d of silence, rounded up
// to whole frames.
func Silence(d time.Duration) []byte {
	if d <= 0 {
		return nil
	}
	frames := int((d + silentFrameDuration - 1) / silentFrameDuration)
	frame := silentFrame()
	out := make([]byte, 0, frames*silentFrameLen)
	for i := 0; i < frames; i++ {
		out = append(out, frame...)
	}
	return out
}

// WithLeadingSilence prepends one second of silence to an MP3 stream.
func WithLeadingSilence(segment []byte) []byte {
	return append(Silence(time.Second), stripID3(segment)...)
}

// Stitch joins MP3 segments into one stream, adding one second of leading
// silence when leadingSilence is set. Empty segments are skipped; an input
// with no playable segments is an error.
func Stitch(segments [][]byte, leadingSilence bool) ([]byte, error) {
	var out bytes.Buffer

	if leadingSilence {
		out.Write(Silence(time.Second))
	}

	wrote := false
	for _, seg := range segments {
		seg = stripID3(seg)
		if len(seg) == 0 {
			continue
		}
		out.Write(seg)
		wrote = true
	}

	if !wrote {
		return nil, ErrNoSegments
	}
	return out.Bytes(), nil
}

// stripID3 removes a leading ID3v2 tag so tags from later segments do not
// land mid-stream.
func stripID3(segment []byte) []byte {
	if len(segment) < 10 || segment[0] != 'I' || segment[1] != 'D' || segment[2] != '3' {
		return segment
	}
	// Bytes 6-9 hold the tag size as a 28-bit syncsafe integer, excluding
	// the 10-byte header.
	size := int(segment[6]&0x7F)<<21 | int(segment[7]&0x7F)<<14 |
		int(segment[8]&0x7F)<<7 | int(segment[9]&0x7F)
	end := 10 + size
	if end > len(segment) {
		return segment
	}
	return segment[end:]
}
