package http

import "github.com/flowstore/streamio"

func init() {
	streamio.RegisterBackend("http", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		if _, ok := loc.(streamio.HTTP); !ok {
			return nil, streamio.ErrMalformedURI
		}
		return New(ConfigFromMap(params)), nil
	})
}
