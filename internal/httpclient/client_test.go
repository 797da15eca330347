package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientTransportDefaults(t *testing.T) {
	client, err := NewClient(TransportOptions{MaxIdleConnsPerHost: 50})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.CloseIdleConnections()

	if client.Timeout != 0 {
		t.Fatalf("expected no client timeout, got %s", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport.MaxIdleConnsPerHost != 50 {
		t.Fatalf("MaxIdleConnsPerHost = %d, want 50", transport.MaxIdleConnsPerHost)
	}
	if transport.IdleConnTimeout == 0 {
		t.Fatal("expected transport to set idle connection timeout")
	}
	if transport.DisableKeepAlives || transport.DisableCompression {
		t.Fatal("keep-alive and compression should be enabled by default")
	}
	if transport.TLSNextProto == nil || len(transport.TLSNextProto) != 0 {
		t.Fatal("expected HTTP/2 to be disabled by default")
	}
}

func TestNewClientToggles(t *testing.T) {
	client, err := NewClient(TransportOptions{
		DisableKeepAlives:  true,
		DisableCompression: true,
		HTTP2:              true,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	transport := client.Transport.(*http.Transport)
	if !transport.DisableKeepAlives || !transport.DisableCompression {
		t.Fatal("expected keep-alive and compression to be disabled")
	}
	if _, ok := transport.TLSNextProto["h2"]; !ok {
		t.Fatal("expected h2 to be registered on the transport")
	}
}

func TestNewClientProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Proxied-Host", r.URL.Host)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer proxy.Close()

	// host:port without a scheme, as given on the command line.
	client, err := NewClient(TransportOptions{Proxy: proxy.Listener.Addr().String()})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	resp, err := client.Get("http://target.invalid/")
	if err != nil {
		t.Fatalf("Get() through proxy error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("X-Proxied-Host") != "target.invalid" {
		t.Fatalf("request did not go through proxy: status=%d host=%q", resp.StatusCode, resp.Header.Get("X-Proxied-Host"))
	}
}

func TestNewClientInvalidProxy(t *testing.T) {
	if _, err := NewClient(TransportOptions{Proxy: "http://"}); err == nil {
		t.Fatal("NewClient() with empty proxy host error = nil, want error")
	}
}
