package ssh

import "github.com/flowstore/streamio"

func init() {
	streamio.RegisterBackend("ssh", func(loc streamio.Location, params map[string]any) (streamio.Backend, error) {
		l, ok := loc.(streamio.SSH)
		if !ok {
			return nil, streamio.ErrMalformedURI
		}
		cfg := ConfigFromMap(l.Host, l.Port, l.User, l.Password, params)
		return New(cfg)
	})
}
