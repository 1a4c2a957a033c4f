package whttp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	USER_AGENT = "uwcatalog/2 (+https://unfoldingword.org)"
)

// ErrEmptyBody is returned when a source answers 2xx with nothing in it.
var ErrEmptyBody = errors.New("empty response body")

// Fetcher resolves a URL to its raw text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode int
	HTTPTitle  string
	BodyString string
}

// StatusError describes a non-2xx answer from a source.
type StatusError struct {
	URL        string
	StatusCode int
	Title      string
}

func (e *StatusError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("GET %s: HTTP %d (%s)", e.URL, e.StatusCode, e.Title)
	}
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	UserAgent string
	Retries   int
	Timeout   time.Duration
	// RPS caps outgoing requests per second. Zero disables pacing.
	RPS   float64
	Proxy string
}

// Client fetches source feeds one request at a time.
type Client struct {
	http      *retryablehttp.Client
	limiter   *rate.Limiter
	userAgent string
}

func NewClient(opts Options) (*Client, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = opts.Retries
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	// Hand the last response back instead of a generic "giving up" error.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		retryClient.HTTPClient.Timeout = opts.Timeout
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}
		retryClient.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyURL(proxyURL),
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	c := &Client{http: retryClient, userAgent: opts.UserAgent}
	if c.userAgent == "" {
		c.userAgent = USER_AGENT
	}
	if opts.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return c, nil
}

// Fetch GETs url and returns its body. Non-2xx answers and empty bodies are errors.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	res, err := c.SendHTTPRequest(ctx, &WHTTPReq{
		Method: http.MethodGet,
		URL:    url,
		Headers: []WHTTPHeader{
			{Name: "Accept", Value: "application/json, text/plain, */*"},
		},
	})
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &StatusError{URL: url, StatusCode: res.StatusCode, Title: res.HTTPTitle}
	}
	if strings.TrimSpace(res.BodyString) == "" {
		return "", fmt.Errorf("GET %s: %w", url, ErrEmptyBody)
	}
	return res.BodyString, nil
}

func (c *Client) SendHTTPRequest(ctx context.Context, wReq *WHTTPReq) (*WHTTPRes, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	wRes := &WHTTPRes{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		wRes.HTTPTitle = getHTMLTitle(wRes.BodyString)
	}
	return wRes, nil
}

// getHTMLTitle pulls the <title> out of an HTML error page so that failures
// against a misbehaving mirror are readable in the logs.
func getHTMLTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	title := doc.Find("title").First().Text()
	title = strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")
	return strings.ToValidUTF8(strings.TrimSpace(title), "")
}
