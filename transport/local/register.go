package local

import "github.com/flowstore/streamio"

func init() {
	streamio.RegisterBackend("local", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		if _, ok := loc.(streamio.Local); !ok {
			return nil, streamio.ErrMalformedURI
		}
		return New(ConfigFromMap(params)), nil
	})
}
