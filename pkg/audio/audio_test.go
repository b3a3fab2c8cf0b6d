package audio

import (
	"bytes"
	"testing"
	"time"
)

// fakeSegment builds a recognizable stand-in for an MP3 stream.
func fakeSegment(marker byte, n int) []byte {
	seg := make([]byte, n)
	for i := range seg {
		seg[i] = marker
	}
	return seg
}

// taggedSegment prepends a minimal ID3v2 tag of the given payload size.
func taggedSegment(tagSize int, body []byte) []byte {
	tag := make([]byte, 10+tagSize)
	copy(tag, "ID3")
	tag[3] = 4
	tag[6] = byte((tagSize >> 21) & 0x7F)
	tag[7] = byte((tagSize >> 14) & 0x7F)
	tag[8] = byte((tagSize >> 7) & 0x7F)
	tag[9] = byte(tagSize & 0x7F)
	return append(tag, body...)
}

func TestSilence(t *testing.T) {
	t.Run("One second spans whole frames", func(t *testing.T) {
		s := Silence(time.Second)
		if len(s) == 0 || len(s)%silentFrameLen != 0 {
			t.Fatalf("silence length %d is not a whole number of frames", len(s))
		}
		// ~38.3 frames per second, rounded up
		if frames := len(s) / silentFrameLen; frames < 38 || frames > 39 {
			t.Errorf("frames = %d, want 38 or 39", frames)
		}
	})

	t.Run("Frames carry a valid sync word", func(t *testing.T) {
		s := Silence(time.Second)
		if s[0] != 0xFF || s[1]&0xE0 != 0xE0 {
			t.Errorf("first frame header = %x %x, want MP3 sync word", s[0], s[1])
		}
	})

	t.Run("Non-positive duration", func(t *testing.T) {
		if Silence(0) != nil || Silence(-time.Second) != nil {
			t.Error("expected nil for non-positive durations")
		}
	})
}

func TestStitch(t *testing.T) {
	opening := fakeSegment(0xAA, 100)
	body := fakeSegment(0xBB, 200)

	t.Run("Segments concatenated in order", func(t *testing.T) {
		out, err := Stitch([][]byte{opening, body}, false)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, append(append([]byte{}, opening...), body...)) {
			t.Error("output is not opening followed by body")
		}
	})

	t.Run("Leading silence prepended", func(t *testing.T) {
		out, err := Stitch([][]byte{opening}, true)
		if err != nil {
			t.Fatal(err)
		}
		silence := Silence(time.Second)
		if !bytes.HasPrefix(out, silence) {
			t.Error("output does not start with the silence stream")
		}
		if !bytes.HasSuffix(out, opening) {
			t.Error("output does not end with the segment")
		}
	})

	t.Run("Mid-stream ID3 tags stripped", func(t *testing.T) {
		tagged := taggedSegment(64, body)
		out, err := Stitch([][]byte{opening, tagged}, false)
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Contains(out, []byte("ID3")) {
			t.Error("ID3 tag survived into the stitched stream")
		}
		if !bytes.HasSuffix(out, body) {
			t.Error("tag stripping damaged the segment body")
		}
	})

	t.Run("Empty segments skipped", func(t *testing.T) {
		out, err := Stitch([][]byte{nil, opening, {}}, false)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, opening) {
			t.Error("empty segments should contribute nothing")
		}
	})

	t.Run("Nothing to stitch", func(t *testing.T) {
		if _, err := Stitch(nil, true); err != ErrNoSegments {
			t.Errorf("err = %v, want ErrNoSegments", err)
		}
	})
}

func TestWithLeadingSilence(t *testing.T) {
	body := fakeSegment(0xCC, 50)
	out := WithLeadingSilence(taggedSegment(32, body))

	if !bytes.HasPrefix(out, Silence(time.Second)) {
		t.Error("expected one second of silence first")
	}
	if !bytes.HasSuffix(out, body) {
		t.Error("expected the untagged body after the silence")
	}
}

func TestStripID3(t *testing.T) {
	body := fakeSegment(0xDD, 40)

	t.Run("Untagged passthrough", func(t *testing.T) {
		if !bytes.Equal(stripID3(body), body) {
			t.Error("untagged segment should pass through unchanged")
		}
	})

	t.Run("Truncated tag left alone", func(t *testing.T) {
		// Claims a bigger tag than the data holds; do not slice past the end
		broken := taggedSegment(1000, nil)[:20]
		if !bytes.Equal(stripID3(broken), broken) {
			t.Error("oversized tag claim should be returned unchanged")
		}
	})
}
