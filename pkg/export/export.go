// Package export writes simulation trajectories to disk.
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/snappy"
)

// CompressedExt marks files written as a snappy framed stream
const CompressedExt = ".sz"

// streamMagic is the stream identifier chunk every snappy framed stream
// starts with
var streamMagic = []byte("\xff\x06\x00\x00sNaPpY")

// ErrRowWidth is returned when a row does not have one value per column
var ErrRowWidth = errors.New("row width does not match header")

// WriteCSV writes header and one line per row. Values use the shortest
// representation that parses back to the same float64.
func WriteCSV(w io.Writer, header []string, rows [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("%w: row %d has %d values, header has %d", ErrRowWidth, i, len(row), len(header))
		}
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Create opens path for writing. When compress is set, or path ends in
// CompressedExt, everything written is snappy compressed. Close flushes the
// compressor before closing the file.
func Create(path string, compress bool) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if !compress && !strings.HasSuffix(path, CompressedExt) {
		return f, nil
	}
	return &snappyFile{Writer: snappy.NewBufferedWriter(f), f: f}, nil
}

// Open opens a file written by Create. Compressed files are recognised by
// their stream header, whatever their name.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	br := bufio.NewReader(f)
	head, err := br.Peek(len(streamMagic))
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var r io.Reader = br
	if bytes.Equal(head, streamMagic) {
		r = snappy.NewReader(br)
	}
	return struct {
		io.Reader
		io.Closer
	}{r, f}, nil
}

type snappyFile struct {
	*snappy.Writer
	f *os.File
}

func (s *snappyFile) Close() error {
	if err := s.Writer.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
