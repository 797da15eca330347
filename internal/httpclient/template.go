package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultContentType is sent when no content type is configured.
const DefaultContentType = "text/html"

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// SupportedMethod reports whether method can be sent by a Template.
func SupportedMethod(method string) bool {
	return supportedMethods[strings.ToUpper(strings.TrimSpace(method))]
}

// TemplateConfig carries the raw request settings a Template is built from.
type TemplateConfig struct {
	Method      string
	URL         string
	Headers     http.Header // repeated names keep every value in order
	Body        string
	BodyFile    string
	ContentType string
	Accept      string
	Host        string
	Username    string
	Password    string
}

// Template is the immutable description of the request every execution sends.
type Template struct {
	proto     *http.Request
	body      BodySource
	basicAuth bool
	username  string
	password  string
}

// NewTemplate validates cfg and builds a Template. The URL is parsed once here.
func NewTemplate(cfg TemplateConfig) (*Template, error) {
	target := strings.TrimSpace(cfg.URL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("target URL %q has no host", target)
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}
	if !supportedMethods[method] {
		return nil, fmt.Errorf("unsupported method %q", cfg.Method)
	}

	body, err := NewBodySource(cfg.Body, cfg.BodyFile)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	contentType := cfg.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	headers.Set("Content-Type", contentType)
	overridden := map[string]bool{}
	for key, values := range cfg.Headers {
		canonicalKey, err := validHeaderKey(key)
		if err != nil {
			return nil, err
		}
		for _, value := range values {
			if strings.ContainsAny(value, "\r\n") {
				return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
			}
			// Configured headers replace defaults, then append.
			if !overridden[canonicalKey] {
				headers.Del(canonicalKey)
				overridden[canonicalKey] = true
			}
			headers.Add(canonicalKey, value)
		}
	}
	if cfg.Accept != "" {
		headers.Set("Accept", cfg.Accept)
	}

	proto := &http.Request{
		Method:     method,
		URL:        u,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     headers,
		Host:       u.Host,
	}
	if host := strings.TrimSpace(cfg.Host); host != "" {
		proto.Host = host
	}

	return &Template{
		proto:     proto,
		body:      body,
		basicAuth: cfg.Username != "",
		username:  cfg.Username,
		password:  cfg.Password,
	}, nil
}

func validHeaderKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.ContainsAny(trimmed, "\r\n: ") {
		return "", fmt.Errorf("invalid header key %q", key)
	}
	return http.CanonicalHeaderKey(trimmed), nil
}

// Method returns the request method.
func (t *Template) Method() string {
	return t.proto.Method
}

// URL returns a copy of the parsed target URL.
func (t *Template) URL() *url.URL {
	u := *t.proto.URL
	return &u
}

// Host returns the value sent in the Host header.
func (t *Template) Host() string {
	return t.proto.Host
}

// ContentLength is the byte length of the request body.
func (t *Template) ContentLength() int64 {
	return t.body.ContentLength()
}

// NewRequest builds a fresh request bound to ctx. The template itself is never mutated.
func (t *Template) NewRequest(ctx context.Context) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reader, err := t.body.NewReader()
	if err != nil {
		return nil, fmt.Errorf("request body: %w", err)
	}

	req := t.proto.Clone(ctx)
	req.Body = reader
	req.ContentLength = t.body.ContentLength()
	req.GetBody = t.body.NewReader
	if t.basicAuth {
		req.SetBasicAuth(t.username, t.password)
	}
	return req, nil
}
