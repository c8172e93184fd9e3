package webhdfs

import "github.com/flowstore/streamio"

func init() {
	streamio.RegisterBackend("webhdfs", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		l, ok := loc.(streamio.WebHdfs)
		if !ok {
			return nil, streamio.ErrMalformedURI
		}
		return New(ConfigFromMap(l.Host, l.Port, params)), nil
	})
}
