package ledgerserver

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var errFrameTooLarge = errors.New("ledgerserver: frame too large")

// readFrame reads one newline-terminated frame without its line ending.
// The returned slice is only valid until the next read. A final frame
// without a newline is accepted at EOF.
func (c *conn) readFrame() ([]byte, error) {
	line, err := c.br.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, errFrameTooLarge
	case errors.Is(err, io.EOF) && len(line) > 0:
	case err != nil:
		return nil, err
	}

	line = bytes.TrimRight(line, "\r\n")
	if len(line) > c.maxFrame {
		return nil, errFrameTooLarge
	}
	return bytes.TrimSpace(line), nil
}
