package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Webshare rotating residential proxy endpoint
const (
	webshareDomain = "p.webshare.io"
	websharePort   = 80
)

// WebshareProxy routes provider requests through Webshare's rotating residential pool
type WebshareProxy struct {
	Username           string
	Password           string
	Locations          []string // Country codes the exit IP must be in
	RetriesWhenBlocked int
}

// URL builds the proxy URL. Location filters are appended to the username
// and the "-rotate" suffix asks for a new exit IP per connection.
func (p *WebshareProxy) URL() *url.URL {
	var user strings.Builder
	user.WriteString(p.Username)
	for _, loc := range p.Locations {
		user.WriteString("-")
		user.WriteString(strings.ToUpper(loc))
	}
	user.WriteString("-rotate")

	return &url.URL{
		Scheme: "http",
		User:   url.UserPassword(user.String(), p.Password),
		Host:   fmt.Sprintf("%s:%d", webshareDomain, websharePort),
		Path:   "/",
	}
}

// newProviderHTTPClient returns the HTTP client used to talk to the transcript
// provider. A nil proxy means direct connections.
func newProviderHTTPClient(proxy *WebshareProxy, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy.URL())
		// A kept-alive connection would pin the same exit IP
		transport.DisableKeepAlives = true
	}

	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		Jar:       jar,
	}
}
