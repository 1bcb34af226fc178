package feed

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultURL is the public listings feed.
const DefaultURL = "https://api.frw.co.uk/feeds/all_listings.csv"

// Client opens the feed stream. Retries cover establishing the response
// only; once the body is being read a failure ends the stream.
type Client struct {
	http          *retryablehttp.Client
	logger        *zap.Logger
	retryMax      int
	headerTimeout time.Duration
}

type ClientOption func(*Client)

func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		c.retryMax = n
	}
}

// WithHeaderTimeout bounds the wait for response headers. The body itself has
// no deadline.
func WithHeaderTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.headerTimeout = d
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		logger:        zap.NewNop(),
		retryMax:      3,
		headerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = c.retryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = leveledLogger{c.logger.Sugar()}
	rc.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: c.headerTimeout,
		},
	}
	c.http = rc
	return c
}

// Open issues the GET and returns the response body. The caller closes it.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceError{URL: url, Err: errors.Wrap(err, "building request")}
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &SourceError{URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &SourceError{URL: url, Err: errors.Errorf("unexpected status %s", resp.Status)}
	}

	c.logger.Debug("feed opened", zap.String("url", url), zap.Int64("contentLength", resp.ContentLength))
	return resp.Body, nil
}

// leveledLogger routes retryablehttp's logging through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
