// Package streamio implements a unified streaming I/O layer: a single
// Open entry point that dispatches a location string to one of several
// storage backends (local filesystem, HTTP(S), S3, GCS, WebHDFS, SSH/SFTP)
// and transparently layers a registered compression codec chosen by file
// extension on top of the resulting byte stream.
package streamio

import (
	"strconv"
	"strings"
)

// Location is a tagged union produced by ParseLocation. Exactly one of the
// concrete types below is the dynamic type of any non-nil Location.
type Location interface {
	isLocation()
	// String renders the location back to a display form, for logging.
	String() string
}

// Local addresses a path on the local filesystem.
type Local struct {
	Path string
}

func (Local) isLocation()      {}
func (l Local) String() string { return l.Path }

// HTTP addresses a resource fetched over HTTP or HTTPS. Headers and
// authentication are not parsed from the URL; they arrive via transport
// params.
type HTTP struct {
	URL string
}

func (HTTP) isLocation()      {}
func (h HTTP) String() string { return h.URL }

// SSH addresses a path on a remote host reachable over SFTP.
type SSH struct {
	User     string
	Password string
	Host     string
	Port     int // 0 means "use the backend default"
	Path     string
}

func (SSH) isLocation() {}
func (s SSH) String() string {
	var b strings.Builder
	b.WriteString("ssh://")
	if s.User != "" {
		b.WriteString(s.User)
		b.WriteByte('@')
	}
	b.WriteString(s.Host)
	if s.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.Port))
	}
	b.WriteByte('/')
	b.WriteString(s.Path)
	return b.String()
}

// S3 addresses an object (or bucket, if Key is empty) in an S3-compatible
// object store. AccessKey/SecretKey/EndpointHost/EndpointPort are optional,
// parsed from the authority.
type S3 struct {
	Bucket       string
	Key          string
	AccessKey    string
	SecretKey    string
	EndpointHost string
	EndpointPort int
	VersionID    string
}

func (S3) isLocation() {}
func (s S3) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

// GCS addresses a blob in a Google Cloud Storage bucket.
type GCS struct {
	Bucket string
	Blob   string
}

func (GCS) isLocation()      {}
func (g GCS) String() string { return "gs://" + g.Bucket + "/" + g.Blob }

// HDFS addresses a path handled by the native HDFS RPC protocol. No backend
// handles it: Open rejects hdfs:// locations with ErrNotSupported.
type HDFS struct {
	Path string
}

func (HDFS) isLocation()      {}
func (h HDFS) String() string { return "hdfs://" + h.Path }

// WebHdfs addresses a path served by a WebHDFS REST endpoint.
type WebHdfs struct {
	Host string
	Port int
	Path string
}

func (WebHdfs) isLocation() {}
func (w WebHdfs) String() string {
	return "webhdfs://" + w.Host + ":" + strconv.Itoa(w.Port) + "/" + w.Path
}

// schemeBackend maps a lower-cased URI scheme to the backend family that
// handles it.
var schemeBackend = map[string]string{
	"file":    "local",
	"http":    "http",
	"https":   "http",
	"s3":      "s3",
	"s3a":     "s3",
	"s3n":     "s3",
	"s3u":     "s3",
	"gs":      "gcs",
	"hdfs":    "hdfs",
	"webhdfs": "webhdfs",
	"ssh":     "ssh",
	"scp":     "ssh",
	"sftp":    "ssh",
}

// ParseLocation parses a location string into a Location. An already-open
// stream supplied by the caller is handled by Open before it ever calls
// this function, since that check only makes sense against the original
// input value, not its string form.
func ParseLocation(raw string) (Location, error) {
	s := strings.TrimLeft(raw, " \t\r\n")

	if strings.HasPrefix(s, "~") {
		expanded, err := expandHome(s)
		if err != nil {
			return nil, err
		}
		s = expanded
	}

	scheme, rest, ok := splitScheme(s)
	if !ok {
		return Local{Path: s}, nil
	}

	backend, known := schemeBackend[strings.ToLower(scheme)]
	if !known {
		return nil, ErrUnsupportedScheme
	}

	switch backend {
	case "local":
		return Local{Path: rest}, nil
	case "http":
		return HTTP{URL: s}, nil
	case "s3":
		return parseS3(rest)
	case "gcs":
		return parseGCS(rest)
	case "hdfs":
		return HDFS{Path: rest}, nil
	case "webhdfs":
		return parseWebHDFS(rest)
	case "ssh":
		return parseSSH(rest)
	default:
		return nil, ErrUnsupportedScheme
	}
}

// splitScheme matches the leading `scheme://` per the grammar
// `[a-zA-Z][a-zA-Z0-9+.-]*://` and returns the scheme and the remainder.
// ok is false when no such prefix is present.
func splitScheme(s string) (scheme, rest string, ok bool) {
	idx := strings.Index(s, "://")
	if idx <= 0 {
		return "", "", false
	}
	candidate := s[:idx]
	if !isSchemeChar(candidate[0], true) {
		return "", "", false
	}
	for i := 1; i < len(candidate); i++ {
		if !isSchemeChar(candidate[i], false) {
			return "", "", false
		}
	}
	return candidate, s[idx+3:], true
}

func isSchemeChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case !first && (c >= '0' && c <= '9'):
		return true
	case !first && (c == '+' || c == '.' || c == '-'):
		return true
	default:
		return false
	}
}

// parseS3 parses the S3 authority grammar:
//
//	[access:secret@] [host[:port]@] bucket/key
//
// The '@' separator may appear up to twice; key is everything after the
// first '/' following the bucket, and may be empty.
func parseS3(rest string) (Location, error) {
	if rest == "" {
		return nil, ErrMalformedURI
	}

	loc := S3{}

	// Peel off up to two "@"-delimited segments for credentials and
	// endpoint, in that order.
	for i := 0; i < 2; i++ {
		at := strings.Index(rest, "@")
		if at < 0 {
			break
		}
		segment := rest[:at]
		// Only treat this as a credentials/endpoint segment if it doesn't
		// itself contain a "/", which would mean we've already reached the
		// bucket/key portion.
		if strings.Contains(segment, "/") {
			break
		}
		if colon := strings.Index(segment, ":"); colon >= 0 {
			left, right := segment[:colon], segment[colon+1:]
			if loc.AccessKey == "" && loc.EndpointHost == "" && i == 0 && looksLikeCredentials(left, right) {
				loc.AccessKey, loc.SecretKey = left, right
			} else {
				loc.EndpointHost = left
				if port, err := strconv.Atoi(right); err == nil {
					loc.EndpointPort = port
				}
			}
		} else if i == 0 {
			loc.EndpointHost = segment
		}
		rest = rest[at+1:]
	}

	slash := strings.Index(rest, "/")
	if slash < 0 {
		loc.Bucket = rest
		return loc, nil
	}
	loc.Bucket = rest[:slash]
	loc.Key = rest[slash+1:]

	if loc.Bucket == "" {
		return nil, ErrMalformedURI
	}
	return loc, nil
}

// looksLikeCredentials is a heuristic used only to decide, for the first
// "@"-segment, whether a "left:right" pair is access:secret credentials
// rather than host:port. A numeric right-hand side strongly suggests a
// port, so it's treated as an endpoint instead.
func looksLikeCredentials(_, right string) bool {
	if _, err := strconv.Atoi(right); err == nil {
		return false
	}
	return true
}

// parseGCS parses "bucket/blob"; blob may be empty.
func parseGCS(rest string) (Location, error) {
	if rest == "" {
		return nil, ErrMalformedURI
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return GCS{Bucket: rest}, nil
	}
	return GCS{Bucket: rest[:slash], Blob: rest[slash+1:]}, nil
}

// parseWebHDFS parses "host[:port]/path".
func parseWebHDFS(rest string) (Location, error) {
	slash := strings.Index(rest, "/")
	hostport := rest
	path := ""
	if slash >= 0 {
		hostport = rest[:slash]
		path = rest[slash+1:]
	}
	if hostport == "" {
		return nil, ErrMalformedURI
	}
	host := hostport
	port := 50070 // WebHDFS conventional default
	if colon := strings.Index(hostport, ":"); colon >= 0 {
		host = hostport[:colon]
		p, err := strconv.Atoi(hostport[colon+1:])
		if err != nil {
			return nil, ErrMalformedURI
		}
		port = p
	}
	return WebHdfs{Host: host, Port: port, Path: path}, nil
}

// parseSSH parses "[user[:pw]@]host[:port]/[/]path". A leading "//" after
// the host denotes an absolute path; a single "/" denotes a path relative
// to the user's home directory.
func parseSSH(rest string) (Location, error) {
	loc := SSH{}

	if at := strings.Index(rest, "@"); at >= 0 {
		userinfo := rest[:at]
		rest = rest[at+1:]
		if colon := strings.Index(userinfo, ":"); colon >= 0 {
			loc.User, loc.Password = userinfo[:colon], userinfo[colon+1:]
		} else {
			loc.User = userinfo
		}
	}

	slash := strings.Index(rest, "/")
	hostport := rest
	pathPart := ""
	if slash >= 0 {
		hostport = rest[:slash]
		pathPart = rest[slash:]
	}
	if hostport == "" {
		return nil, ErrMalformedURI
	}

	loc.Host = hostport
	if colon := strings.Index(hostport, ":"); colon >= 0 {
		loc.Host = hostport[:colon]
		port, err := strconv.Atoi(hostport[colon+1:])
		if err != nil {
			return nil, ErrMalformedURI
		}
		loc.Port = port
	}

	// pathPart starts with "/". A second leading slash means absolute.
	switch {
	case strings.HasPrefix(pathPart, "//"):
		loc.Path = pathPart[1:] // keep the single leading "/" for absolute
	case strings.HasPrefix(pathPart, "/"):
		loc.Path = strings.TrimPrefix(pathPart, "/") // relative to home
	}

	return loc, nil
}
