// Package storage persists frames as .rawir text matrices.
//
// File layout is a compatibility contract with downstream readers:
//
//	<dir>/<seq:%06d>_<temperature>.rawir
//
// with one scan line per text line, samples as decimal integers separated by
// a single space.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/e7canasta/orion-care-sensor/modules/thermal-capture/internal/frame"
)

// Extension of persisted frame files.
const Extension = ".rawir"

// maxTempWidth bounds the temperature field of a file name.
const maxTempWidth = 5

var namePattern = regexp.MustCompile(`^(\d{6,})_(-?\d+(?:\.\d+)?)\.rawir$`)

// FormatTemperature renders celsius in its shortest form, dropping decimals
// until it fits in five characters (21.5 → "21.5", 21.534 → "21.53").
func FormatTemperature(celsius float64) string {
	s := strconv.FormatFloat(celsius, 'f', -1, 64)
	for prec := 2; len(s) > maxTempWidth && prec >= 0; prec-- {
		s = strconv.FormatFloat(celsius, 'f', prec, 64)
	}
	return s
}

// FileName returns the base name for frame seq taken at celsius.
func FileName(seq uint64, celsius float64) string {
	return fmt.Sprintf("%06d_%s%s", seq, FormatTemperature(celsius), Extension)
}

// Path returns the full path of frame seq in dir.
func Path(dir string, seq uint64, celsius float64) string {
	return filepath.Join(dir, FileName(seq, celsius))
}

// ParseFileName extracts the sequence number and temperature from a
// persisted file name.
func ParseFileName(name string) (seq uint64, celsius float64, err error) {
	m := namePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, fmt.Errorf("storage: %q is not a frame file name", name)
	}
	if seq, err = strconv.ParseUint(m[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("storage: sequence in %q: %w", name, err)
	}
	if celsius, err = strconv.ParseFloat(m[2], 64); err != nil {
		return 0, 0, fmt.Errorf("storage: temperature in %q: %w", name, err)
	}
	return seq, celsius, nil
}

// Writer persists frames into one directory.
type Writer struct {
	dir string
}

// NewWriter creates dir if needed and returns a Writer for it.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write stores f as frame seq and returns the written path.
func (w *Writer) Write(f *frame.Frame, seq uint64, celsius float64) (string, error) {
	path := Path(w.dir, seq, celsius)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", path, err)
	}

	if err := Encode(bufio.NewWriter(file), f); err != nil {
		file.Close()
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", path, err)
	}
	return path, nil
}

// Encode writes f as a text matrix and flushes bw.
func Encode(bw *bufio.Writer, f *frame.Frame) error {
	line := make([]byte, 0, f.Width*6)
	for y := 0; y < f.Height; y++ {
		line = line[:0]
		for x, v := range f.Row(y) {
			if x > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendUint(line, uint64(v), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadFile loads a persisted frame.
func ReadFile(path string) (*frame.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return Decode(string(data))
}

// Decode parses a text matrix. All rows must have the same width.
func Decode(text string) (*frame.Frame, error) {
	f := &frame.Frame{}
	for lineNo, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if f.Width == 0 {
			f.Width = len(fields)
		} else if len(fields) != f.Width {
			return nil, fmt.Errorf("storage: line %d has %d samples, want %d", lineNo+1, len(fields), f.Width)
		}
		for _, field := range fields {
			v, err := strconv.ParseUint(field, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("storage: line %d: %w", lineNo+1, err)
			}
			f.Pixels = append(f.Pixels, uint16(v))
		}
		f.Height++
	}
	return f, nil
}
