package unsquashfs

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestParseStreamCollapsesRepeatedPercentages(t *testing.T) {
	input := "[ 10%]\n[ 10%]\n[ 55%]\n[ 55%]\n[100%]\n"
	var got []int
	transcript, err := parseStream(strings.NewReader(input), func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	want := []int{10, 55, 100}
	if !equalInts(got, want) {
		t.Fatalf("unexpected callback sequence: got %v want %v", got, want)
	}
	if transcript != "" {
		t.Fatalf("expected empty transcript, got %q", transcript)
	}
}

func TestParseStreamReportsLeadingZero(t *testing.T) {
	var got []int
	if _, err := parseStream(strings.NewReader("[  0%]\n[  0%]\n[  7%]\n"), func(percent int) {
		got = append(got, percent)
	}); err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if !equalInts(got, []int{0, 7}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
}

func TestParseStreamAccumulatesDiagnostics(t *testing.T) {
	input := "Parallel unsquashfs: Using 4 processors\n[ 50%]\nwrite failed\n\n[ 50%]\nFATAL ERROR: aborting\n"
	var got []int
	transcript, err := parseStream(strings.NewReader(input), func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	want := "Parallel unsquashfs: Using 4 processors\nwrite failed\nFATAL ERROR: aborting\n"
	if transcript != want {
		t.Fatalf("unexpected transcript:\ngot  %q\nwant %q", transcript, want)
	}
	if !equalInts(got, []int{50}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
}

func TestParseStreamDropsGarbledProgressLines(t *testing.T) {
	var got []int
	transcript, err := parseStream(strings.NewReader("[abc%]\n[abc%\n"), func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no callbacks, got %v", got)
	}
	if transcript != "" {
		t.Fatalf("expected garbled progress lines discarded, transcript %q", transcript)
	}
}

func TestParseStreamAcceptsBareProgressLines(t *testing.T) {
	// The tool normally closes the bar with ']', but the value is owed to
	// the callback with or without it.
	var got []int
	transcript, err := parseStream(strings.NewReader("[ 10%\n[ 55%]\n"), func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if !equalInts(got, []int{10, 55}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
	if transcript != "" {
		t.Fatalf("expected empty transcript, got %q", transcript)
	}
}

func TestParseStreamReassemblesAcrossChunks(t *testing.T) {
	chunks := [][]byte{
		[]byte("[ 4"),
		[]byte("2%]\ndiag"),
		[]byte("nostic line\n[ 42%]\n[ 43"),
		[]byte("%]\n"),
	}
	var got []int
	transcript, err := parseStream(&scriptedReader{chunks: chunks}, func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if !equalInts(got, []int{42, 43}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
	if transcript != "diagnostic line\n" {
		t.Fatalf("unexpected transcript: %q", transcript)
	}
}

func TestParseStreamSplitsOnCarriageReturns(t *testing.T) {
	var got []int
	if _, err := parseStream(strings.NewReader("\r[ 10%]\r[ 11%]\r[ 11%]"), func(percent int) {
		got = append(got, percent)
	}); err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if !equalInts(got, []int{10, 11}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
}

func TestParseStreamFlushesTrailingLine(t *testing.T) {
	transcript, err := parseStream(strings.NewReader("no trailing newline"), nil)
	if err != nil {
		t.Fatalf("parseStream returned error: %v", err)
	}
	if transcript != "no trailing newline\n" {
		t.Fatalf("unexpected transcript: %q", transcript)
	}
}

func TestParseStreamTreatsEIOAsEndOfStream(t *testing.T) {
	reader := &scriptedReader{
		chunks:   [][]byte{[]byte("[ 90%]\ntail")},
		finalErr: fmt.Errorf("read master: %w", unix.EIO),
	}
	var got []int
	transcript, err := parseStream(reader, func(percent int) {
		got = append(got, percent)
	})
	if err != nil {
		t.Fatalf("expected EIO swallowed, got %v", err)
	}
	if !equalInts(got, []int{90}) {
		t.Fatalf("unexpected callback sequence: %v", got)
	}
	if transcript != "tail\n" {
		t.Fatalf("unexpected transcript: %q", transcript)
	}
}

func TestParseStreamPropagatesOtherErrors(t *testing.T) {
	reader := &scriptedReader{
		chunks:   [][]byte{[]byte("partial\n")},
		finalErr: fmt.Errorf("read master: %w", unix.EBADF),
	}
	if _, err := parseStream(reader, nil); err == nil {
		t.Fatal("expected read error to propagate")
	}
}

// scriptedReader hands out one chunk per Read call, then reports finalErr
// (io.EOF when unset).
type scriptedReader struct {
	chunks   [][]byte
	finalErr error
	next     int
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if r.next < len(r.chunks) {
		n := copy(p, r.chunks[r.next])
		r.next++
		return n, nil
	}
	if r.finalErr != nil {
		return 0, r.finalErr
	}
	return 0, io.EOF
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
