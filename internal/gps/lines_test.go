// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_DiscardsOverlongLine(t *testing.T) {
	input := "first\r\n" + strings.Repeat("x", 100) + "\nsecond\n"
	lr := NewLineReader(strings.NewReader(input), 32)

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "first", string(line))

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "second", string(line), "reading resumes after the discarded line")

	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_FinalLineWithoutNewline(t *testing.T) {
	lr := NewLineReader(strings.NewReader("one\ntwo"), MaxLineLength)

	for _, want := range []string{"one", "two"} {
		line, err := lr.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
	}
	_, err := lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_OverlongLineAtEOF(t *testing.T) {
	lr := NewLineReader(strings.NewReader(strings.Repeat("y", 200)), 32)

	_, err := lr.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
	_, err = lr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}
