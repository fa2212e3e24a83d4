// Authors: Rohan Adla, Arrio Gonsalves, Shreyan Nalwad, Dylan Setiawan
// Date: Dec 12th 2025
// Project: Regression Segment Costs for Change-Point Detection
// Class: 02-613 at Caregie Mellon University

package tableio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the stream codec wrapped around a CSV file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionS2
	CompressionLZ4
)

var compressionNames = map[Compression]string{
	CompressionNone: "none",
	CompressionZstd: "zstd",
	CompressionS2:   "s2",
	CompressionLZ4:  "lz4",
}

var compressionExtensions = map[Compression]string{
	CompressionZstd: ".zst",
	CompressionS2:   ".sz",
	CompressionLZ4:  ".lz4",
}

// String returns the flag spelling of the codec.
func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

// Extension returns the file suffix for the codec, empty for none.
func (c Compression) Extension() string {
	return compressionExtensions[c]
}

// ParseCompression maps a codec name to its Compression.
func ParseCompression(name string) (Compression, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return CompressionNone, nil
	}
	for c, n := range compressionNames {
		if n == name {
			return c, nil
		}
	}
	return CompressionNone, fmt.Errorf("unknown compression %q (options: none, zstd, s2, lz4)", name)
}

// CompressionFromPath picks the codec from the file extension.
func CompressionFromPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	for c, e := range compressionExtensions {
		if e == ext {
			return c
		}
	}
	return CompressionNone
}

// WithExtension appends the codec's extension to path unless path already
// selects that codec. CompressionNone leaves path unchanged.
func WithExtension(path string, c Compression) string {
	if c == CompressionNone || CompressionFromPath(path) == c {
		return path
	}
	return path + c.Extension()
}

// newWriter wraps w with the codec. Closing the result flushes the codec but
// does not close w.
func newWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case CompressionS2:
		return s2.NewWriter(w), nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

// newReader wraps r with the codec.
func newReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return zstdReadCloser{dec}, nil
	case CompressionS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression %v", c)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// zstd decoders release their goroutines on Close, which returns nothing
type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
