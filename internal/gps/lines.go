// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"errors"
	"io"
)

// MaxLineLength caps one NMEA sentence or gpsd report. Real lines are far
// shorter; SKY reports with many satellites are the longest.
const MaxLineLength = 32 << 10

// ErrLineTooLong reports a line that exceeded the reader's limit. The line
// has been discarded up to its newline.
var ErrLineTooLong = errors.New("gps: line too long")

// LineReader splits a stream into newline-terminated lines of bounded size.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader reads lines of at most size bytes from r.
func NewLineReader(r io.Reader, size int) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, size)}
}

// ReadLine returns the next line without its CR/LF. A last line cut off by
// io.EOF is still returned; io.EOF comes on the following call.
func (l *LineReader) ReadLine() ([]byte, error) {
	line, err := l.r.ReadSlice('\n')
	switch {
	case err == nil:
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, l.discard()
	case errors.Is(err, io.EOF) && len(line) > 0:
	default:
		return nil, err
	}
	return append([]byte(nil), trimEOL(line)...), nil
}

// discard drops the rest of an overlong line.
func (l *LineReader) discard() error {
	for {
		_, err := l.r.ReadSlice('\n')
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil, errors.Is(err, io.EOF):
			return ErrLineTooLong
		default:
			return err
		}
	}
}

func trimEOL(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
