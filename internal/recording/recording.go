package recording

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxHeaderBytes bounds the first line of a v2/v3 file.
const maxHeaderBytes = 1 << 20

// ErrUnsupportedFormat is returned when a file is not a recognizable
// asciicast recording.
var ErrUnsupportedFormat = errors.New("unsupported asciicast format")

// Header is the subset of the asciicast header checked before upload.
type Header struct {
	Version int `json:"version"`
	Width   int `json:"width,omitempty"`
	Height  int `json:"height,omitempty"`
	Term    *struct {
		Cols int `json:"cols"`
		Rows int `json:"rows"`
	} `json:"term,omitempty"`
}

// Validate opens path and checks that it holds an asciicast v1, v2 or v3
// recording. It returns the detected version.
func Validate(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open recording: %w", err)
	}
	defer func() { _ = file.Close() }()

	version, err := Detect(file)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return version, nil
}

// Detect reads an asciicast stream and returns its format version.
func Detect(r io.Reader) (int, error) {
	reader := bufio.NewReader(r)

	line, err := readLine(reader)
	if err != nil {
		return 0, err
	}
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, ErrUnsupportedFormat
	}

	var header Header
	if err := json.Unmarshal(trimmed, &header); err == nil {
		switch header.Version {
		case 2:
			if header.Width <= 0 || header.Height <= 0 {
				return 0, fmt.Errorf("%w: v2 header requires width and height", ErrUnsupportedFormat)
			}
			return 2, nil
		case 3:
			if header.Term == nil || header.Term.Cols <= 0 || header.Term.Rows <= 0 {
				return 0, fmt.Errorf("%w: v3 header requires term size", ErrUnsupportedFormat)
			}
			return 3, nil
		case 1:
			// A single-line v1 document.
			return 1, nil
		default:
			return 0, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, header.Version)
		}
	}

	// v1 is one JSON document, usually pretty-printed over many lines.
	rest, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("read recording: %w", err)
	}
	var doc struct {
		Version int             `json:"version"`
		Stdout  json.RawMessage `json:"stdout"`
	}
	if err := json.Unmarshal(append(line, rest...), &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if doc.Version != 1 {
		return 0, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, doc.Version)
	}
	return 1, nil
}

func readLine(reader *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := reader.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxHeaderBytes {
			return nil, fmt.Errorf("%w: header line too long", ErrUnsupportedFormat)
		}
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, fmt.Errorf("read recording: %w", err)
		}
	}
}
