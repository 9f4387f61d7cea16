package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"syscall"
	"time"
)

const maxFetchBytes = 20 << 20

// ErrBlockedAddress is returned for URLs resolving to loopback, private or
// link-local addresses.
var ErrBlockedAddress = errors.New("address not allowed")

var defaultHTTPClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
			Control: publicOnly,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// publicOnly runs on the resolved address, so redirects and DNS names
// pointing inside the network are refused too.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || blocked(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

func blocked(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast()
}

// FetchURL downloads a page so it can be indexed like an upload. The file
// name is derived from the URL path and the response Content-Type. Only
// public addresses are reachable.
func FetchURL(ctx context.Context, rawURL string) (File, error) {
	return fetch(ctx, defaultHTTPClient, rawURL)
}

func fetch(ctx context.Context, client *http.Client, rawURL string) (File, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return File{}, fmt.Errorf("invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return File{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return File{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return File{}, err
	}

	return File{Name: fileName(u, resp.Header.Get("Content-Type")), Data: b}, nil
}

func fileName(u *url.URL, contentType string) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = u.Host
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		if KindOf(base) != KindPDF {
			base += ".pdf"
		}
	case "text/html", "application/xhtml+xml":
		if KindOf(base) != KindHTML {
			base += ".html"
		}
	case "text/plain":
		if KindOf(base) != KindText {
			base += ".txt"
		}
	case "text/markdown":
		if KindOf(base) != KindMD {
			base += ".md"
		}
	}
	return base
}
