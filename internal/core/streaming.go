package core

// streaming.go wraps import input so the CSV parser sees clean text without
// the whole file being buffered:
//
//   - a leading UTF-8 BOM (common in Excel exports) is dropped
//   - invalid UTF-8 bytes are replaced with '?'

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WrapForStreaming returns a reader that skips a UTF-8 BOM and sanitizes
// invalid UTF-8 on the fly.
func WrapForStreaming(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{src: br}
}

// utf8Sanitizer decodes its source rune by rune. Bytes that do not form a
// valid sequence are written as '?' so the output never grows.
type utf8Sanitizer struct {
	src     *bufio.Reader
	pending []byte // encoded rune that did not fit in the last Read
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	for n < len(p) {
		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}
		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append(s.pending, buf[c:w]...)
			break
		}
	}
	return n, nil
}
