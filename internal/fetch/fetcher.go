// Package fetch downloads heritage-register detail pages.
package fetch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Fetcher.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	RatePerSec float64 // 0 disables throttling
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s returned status %d", e.URL, e.StatusCode)
}

// Fetcher issues single GET requests for detail pages. It is built once per
// run and shared by all workers; every call works on its own clone of the
// base collector.
type Fetcher struct {
	collector *colly.Collector
	limiter   *rate.Limiter
}

func New(opts Options) *Fetcher {
	options := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if opts.UserAgent != "" {
		options = append(options, colly.UserAgent(opts.UserAgent))
	}
	c := colly.NewCollector(options...)
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	f := &Fetcher{collector: c}
	if opts.RatePerSec > 0 {
		burst := int(math.Ceil(opts.RatePerSec))
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return f
}

// Fetch requests pageURL exactly once, without retries, and returns the body
// of a successful response.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch: wait for rate limiter")
		}
	}

	c := f.collector.Clone()
	c.Context = ctx

	var (
		body   []byte
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		zap.L().Debug("fetching detail page", zap.String("url", r.URL.String()))
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", pageURL)
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{URL: pageURL, StatusCode: status}
	}
	return body, nil
}
