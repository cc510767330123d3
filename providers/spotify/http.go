package spotify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRequestTimeout   = 30 * time.Second
	maxResponseBodyBytes    = 1 << 20
	dashboardOrigin         = "https://developer.spotify.com"
	defaultBrowserUserAgent = "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Mobile Safari/537.36"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (r response) ok() bool {
	return r.status >= http.StatusOK && r.status < http.StatusMultipleChoices
}

func (r response) summary() string {
	body := strings.TrimSpace(string(r.body))
	if body == "" {
		return fmt.Sprintf("status %d", r.status)
	}
	return fmt.Sprintf("status %d: %s", r.status, body)
}

func send(
	ctx context.Context,
	client HTTPDoer,
	timeout time.Duration,
	method string,
	endpoint string,
	body []byte,
	header http.Header,
) (response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return response{}, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	res, err := client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes+1))
	if err != nil {
		return response{}, fmt.Errorf("spotify: read response: %w", err)
	}
	if len(payload) > maxResponseBodyBytes {
		return response{}, fmt.Errorf("spotify: response exceeds %d bytes", maxResponseBodyBytes)
	}
	return response{status: res.StatusCode, body: payload, header: res.Header}, nil
}
