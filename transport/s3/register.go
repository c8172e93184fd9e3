package s3

import (
	"strconv"

	"github.com/flowstore/streamio"
)

func init() {
	streamio.RegisterBackend("s3", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		l, ok := loc.(streamio.S3)
		if !ok {
			return nil, streamio.ErrMalformedURI
		}
		cfg := ConfigFromMap(l.Bucket, params)
		// Credentials and a custom endpoint embedded directly in the URI
		// (s3://key:secret@host:port@bucket/obj) take precedence over
		// whatever transport_params supplied.
		if l.AccessKey != "" {
			cfg.AccessKeyID = l.AccessKey
		}
		if l.SecretKey != "" {
			cfg.SecretAccessKey = l.SecretKey
		}
		if l.EndpointHost != "" {
			host := l.EndpointHost
			if l.EndpointPort != 0 {
				host = host + ":" + strconv.Itoa(l.EndpointPort)
			}
			cfg.Endpoint = "https://" + host
			cfg.UsePathStyle = true
		}
		return New(cfg)
	})
}
