package core

// streaming.go provides the readers every input passes through before CSV
// parsing: a UTF-8 BOM is dropped, invalid byte sequences become U+FFFD and
// the decoded size is counted for the report log.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM discards a leading UTF-8 byte order mark.
func skipBOM(r *bufio.Reader) error {
	head, err := r.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = r.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// utf8Sanitizer re-encodes its input rune by rune. bufio.Reader.ReadRune
// already yields utf8.RuneError for each invalid byte, so the output is
// always valid UTF-8.
type utf8Sanitizer struct {
	src     *bufio.Reader
	pending []byte
}

func newUTF8Sanitizer(src *bufio.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{src: src}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	var buf [utf8.UTFMax]byte
	for n < len(p) {
		r, _, err := s.src.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		size := utf8.EncodeRune(buf[:], r)
		if copied := copy(p[n:], buf[:size]); copied < size {
			s.pending = append(s.pending[:0], buf[copied:size]...)
			return n + copied, nil
		}
		n += size
	}
	return n, nil
}

// countingReader tracks how many bytes were delivered.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *countingReader) BytesRead() int64 { return c.n }

// wrapInput applies BOM skipping, UTF-8 sanitising and counting in that
// order.
func wrapInput(r io.Reader) (*countingReader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	if err := skipBOM(br); err != nil {
		return nil, err
	}
	return &countingReader{r: newUTF8Sanitizer(br)}, nil
}
