package zstd

import (
	"io"

	"github.com/flowstore/streamio"
)

func init() {
	streamio.RegisterCompressor(".zst", newCodec)
}

// newCodec adapts Reader/Writer to the streamio.CodecFactory contract. zstd
// is registered as a plain user codec (not one of the spec's built-ins) to
// demonstrate that RegisterCompressor works the same way for a third-party
// algorithm as it does for gzip/bzip2.
func newCodec(raw io.ReadWriteCloser, mode streamio.Mode) (io.ReadWriteCloser, error) {
	switch mode.Direction {
	case streamio.Read:
		r, err := NewReader(raw)
		if err != nil {
			return nil, err
		}
		return &streamio.CodecStream{R: r, C: r}, nil
	default:
		w, err := NewWriter(raw)
		if err != nil {
			return nil, err
		}
		return &streamio.CodecStream{W: w, C: w}, nil
	}
}
