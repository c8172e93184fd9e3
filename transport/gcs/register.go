package gcs

import "github.com/flowstore/streamio"

func init() {
	streamio.RegisterBackend("gcs", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		l, ok := loc.(streamio.GCS)
		if !ok {
			return nil, streamio.ErrMalformedURI
		}
		return New(ConfigFromMap(l.Bucket, params))
	})
}
