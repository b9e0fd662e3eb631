package unsquashfs

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const readChunkSize = 4096

// parseStream consumes the child's output until end of stream. Progress
// lines are forwarded through progress with consecutive duplicates collapsed;
// every other non-empty line is accumulated into the returned transcript,
// newline-terminated, in the order observed.
//
// Chunk boundaries carry no meaning: partial lines are held back until their
// terminator arrives, and whatever remains at end of stream is processed as a
// final line. A read failing with EIO means the child's end of the
// pseudo-terminal is gone and counts as a clean end of stream.
func parseStream(stream io.Reader, progress ProgressFunc) (string, error) {
	parser := lineParser{last: -1, progress: progress}
	buf := make([]byte, readChunkSize)
	var pending []byte
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = parser.drainLines(pending)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, unix.EIO) {
				if len(pending) > 0 {
					parser.handleLine(string(pending))
				}
				return parser.transcript.String(), nil
			}
			return parser.transcript.String(), err
		}
	}
}

type lineParser struct {
	transcript strings.Builder
	last       int
	progress   ProgressFunc
}

// drainLines processes every complete line in buf and returns the unfinished
// remainder. Lines end at either carriage return or line feed, since the tool
// redraws its progress bar in place.
func (p *lineParser) drainLines(buf []byte) []byte {
	start := 0
	for i, b := range buf {
		if b != '\r' && b != '\n' {
			continue
		}
		p.handleLine(string(buf[start:i]))
		start = i + 1
	}
	if start == 0 {
		return buf
	}
	return append(buf[:0], buf[start:]...)
}

func (p *lineParser) handleLine(line string) {
	if body, shaped := progressBody(line); shaped {
		value, ok := parsePercent(body)
		if !ok {
			// Garbled progress line; fail open rather than abort.
			return
		}
		if value != p.last {
			if p.progress != nil {
				p.progress(value)
			}
			p.last = value
		}
		return
	}
	if line == "" {
		return
	}
	p.transcript.WriteString(line)
	p.transcript.WriteByte('\n')
}

// progressBody matches the shape of the tool's progress bar: the line
// starts with '[', ends with '%' optionally followed by a closing ']', and
// is long enough to carry a value in the three characters before the '%'.
// It returns the line with the closing bracket removed.
func progressBody(line string) (string, bool) {
	if strings.HasSuffix(line, "]") {
		line = line[:len(line)-1]
	}
	if len(line) >= 4 && line[0] == '[' && line[len(line)-1] == '%' {
		return line, true
	}
	return "", false
}

func parsePercent(body string) (int, bool) {
	raw := strings.TrimSpace(body[len(body)-4 : len(body)-1])
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
