package video

import (
	"bufio"
	"bytes"
	"testing"
)

func TestSplitJpeg(t *testing.T) {
	// Construct a stream containing: [Garbage] [JPEG] [Garbage]
	// SOI (Start of Image): FF D8
	// EOI (End of Image):   FF D9

	jpegData := []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0xFF, 0xD9}

	streamData := []byte{0x00, 0x00} // Garbage at start
	streamData = append(streamData, jpegData...)
	streamData = append(streamData, []byte{0x00, 0x00}...) // Garbage at end

	// Use bufio.Scanner with our custom Split function
	scanner := bufio.NewScanner(bytes.NewReader(streamData))
	scanner.Split(SplitJpeg)

	// Scan() should skip the first garbage bytes and find the JPEG
	if !scanner.Scan() {
		t.Fatal("Expected to find a token, got EOF")
	}

	// Verify the extracted token is exactly the JPEG
	if !bytes.Equal(scanner.Bytes(), jpegData) {
		t.Errorf("Expected %X, got %X", jpegData, scanner.Bytes())
	}

	// Scan() again should return false (EOF) because the trailing garbage is not a JPEG
	if scanner.Scan() {
		t.Error("Expected only one token, found more")
	}
}

func TestSplitJpegBackToBack(t *testing.T) {
	frame1 := []byte{0xFF, 0xD8, 0xAA, 0xFF, 0xD9}
	frame2 := []byte{0xFF, 0xD8, 0xBB, 0xCC, 0xFF, 0xD9}

	stream := append(append([]byte{}, frame1...), frame2...)
	scanner := bufio.NewScanner(bytes.NewReader(stream))
	scanner.Split(SplitJpeg)

	if !scanner.Scan() || !bytes.Equal(scanner.Bytes(), frame1) {
		t.Fatalf("First frame mismatch: %X", scanner.Bytes())
	}
	if !scanner.Scan() || !bytes.Equal(scanner.Bytes(), frame2) {
		t.Fatalf("Second frame mismatch: %X", scanner.Bytes())
	}
	if scanner.Scan() {
		t.Error("Expected exactly two frames")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"30/1", 30.0},
		{"30000/1001", 29.97002997002997},
		{"25", 25.0},
		{"0/0", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, c := range cases {
		got := parseFrameRate(c.raw)
		if got != c.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}
