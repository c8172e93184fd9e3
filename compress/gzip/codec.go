package gzip

import (
	"io"

	"github.com/flowstore/streamio"
)

func init() {
	streamio.RegisterCompressor(".gz", newCodec)
}

// newCodec adapts Reader/Writer to the streamio.CodecFactory contract,
// wrapping raw on read with a decompressing Reader and on write with a
// compressing Writer.
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
