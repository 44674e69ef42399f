package sheet

// readers.go holds the io.Reader wrappers applied to delimited text before
// it reaches encoding/csv:
//
//   - a BOM skipper for files saved by Windows programs
//   - a UTF-8 sanitizer that replaces invalid bytes with '?'
//
// Use wrapText to apply both in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
type utf8Sanitizer struct {
	src     *bufio.Reader
	pending []byte
	buf     [utf8.UTFMax]byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &utf8Sanitizer{src: br}
}

// Read implements io.Reader.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	for n < len(p) {
		r, size, err := s.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		var enc []byte
		if r == utf8.RuneError && size == 1 {
			enc = []byte{'?'}
		} else {
			w := utf8.EncodeRune(s.buf[:], r)
			enc = s.buf[:w]
		}

		c := copy(p[n:], enc)
		n += c
		if c < len(enc) {
			s.pending = append(s.pending[:0], enc[c:]...)
		}
	}
	return n, nil
}

// wrapText strips a BOM first, then sanitizes what remains.
func wrapText(r io.Reader) io.Reader {
	return newUTF8Sanitizer(skipBOM(r))
}
