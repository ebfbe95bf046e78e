// Package weburl builds validated http(s) URLs from their parts.
package weburl

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"

	DefaultPort = 80

	minPort = 0
	maxPort = 1<<16 - 1
)

var (
	ErrUnsupportedScheme = errors.New("weburl: unsupported scheme")
	ErrInvalidPort       = errors.New("weburl: invalid port")
	ErrMissingHost       = errors.New("weburl: missing host")
	ErrEmptyPathElement  = errors.New("weburl: empty path element")
	ErrEmptyQuery        = errors.New("weburl: empty query parameter name or value")
)

// QueryParameter is a single name=value pair. Parameters keep the order
// in which they were added.
type QueryParameter struct {
	Name  string
	Value string
}

// URL is an immutable, validated URL.
type URL struct {
	scheme          string
	host            string
	port            int
	pathElements    []string
	queryParameters []QueryParameter
	full            string
}

func (u *URL) Scheme() string { return u.scheme }
func (u *URL) Host() string   { return u.host }
func (u *URL) Port() int      { return u.port }

func (u *URL) PathElements() []string {
	return append([]string(nil), u.pathElements...)
}

func (u *URL) QueryParameters() []QueryParameter {
	return append([]QueryParameter(nil), u.queryParameters...)
}

// QueryParameter returns the value of the first parameter called name.
func (u *URL) QueryParameter(name string) (string, bool) {
	for _, p := range u.queryParameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

func (u *URL) String() string {
	return u.full
}

// Builder collects URL parts. The zero value is not usable; call NewBuilder.
type Builder struct {
	scheme          string
	host            string
	port            int
	portSet         bool
	pathElements    []string
	queryParameters []QueryParameter
}

// NewBuilder returns a builder defaulting to http on port 80.
func NewBuilder() *Builder {
	return &Builder{scheme: SchemeHTTP, port: DefaultPort}
}

func (b *Builder) Scheme(scheme string) *Builder {
	b.scheme = scheme
	if !b.portSet && scheme == SchemeHTTPS {
		b.port = 443
	}
	return b
}

func (b *Builder) Host(host string) *Builder {
	b.host = host
	return b
}

func (b *Builder) Port(port int) *Builder {
	b.port = port
	b.portSet = true
	return b
}

// PathElement appends one path segment. Segments are escaped when rendered.
func (b *Builder) PathElement(elem string) *Builder {
	b.pathElements = append(b.pathElements, elem)
	return b
}

func (b *Builder) QueryParameter(name, value string) *Builder {
	b.queryParameters = append(b.queryParameters, QueryParameter{Name: name, Value: value})
	return b
}

// Build validates the parts and renders the URL.
func (b *Builder) Build() (*URL, error) {
	if b.scheme != SchemeHTTP && b.scheme != SchemeHTTPS {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, b.scheme)
	}
	if b.port < minPort || b.port > maxPort {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, b.port)
	}
	if strings.TrimSpace(b.host) == "" {
		return nil, ErrMissingHost
	}

	var sb strings.Builder
	sb.WriteString(b.scheme)
	sb.WriteString("://")
	sb.WriteString(b.host)
	if b.port != defaultPortFor(b.scheme) {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(b.port))
	}
	for _, elem := range b.pathElements {
		if elem == "" {
			return nil, ErrEmptyPathElement
		}
		sb.WriteString("/")
		sb.WriteString(url.PathEscape(elem))
	}
	delim := "?"
	for _, p := range b.queryParameters {
		if p.Name == "" || p.Value == "" {
			return nil, ErrEmptyQuery
		}
		sb.WriteString(delim)
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(p.Value))
		delim = "&"
	}

	return &URL{
		scheme:          b.scheme,
		host:            b.host,
		port:            b.port,
		pathElements:    append([]string(nil), b.pathElements...),
		queryParameters: append([]QueryParameter(nil), b.queryParameters...),
		full:            sb.String(),
	}, nil
}

func defaultPortFor(scheme string) int {
	if scheme == SchemeHTTPS {
		return 443
	}
	return DefaultPort
}
