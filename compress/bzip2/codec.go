package bzip2

import (
	"io"

	"github.com/flowstore/streamio"
)

func init() {
	streamio.RegisterCompressor(".bz2", newCodec)
}

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
