package collab

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riboseinc/gemstrap/internal/apperr"
	"github.com/riboseinc/gemstrap/internal/branding"
)

// maxTemplateSize caps a fetched template body.
const maxTemplateSize = 1 << 20

// HTTPFetcher fetches templates with a single GET per URL. There is no
// retry: any transport error or non-200 status is a KindCollaborator error.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher returns a fetcher whose transport is traced with otelhttp.
func NewHTTPFetcher(timeout time.Duration, version string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: branding.CLIName() + "/" + version,
	}
}

// NewHTTPFetcherWithClient uses client as is.
func NewHTTPFetcherWithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client, userAgent: branding.CLIName()}
}

// Fetch returns the body of url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCollaborator, "creating request for "+url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.KindTimeout, "fetching "+url, err)
		}
		return nil, apperr.Wrap(apperr.KindCollaborator, "fetching "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindCollaborator, "GET %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTemplateSize+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCollaborator, "reading "+url, err)
	}
	if len(body) > maxTemplateSize {
		return nil, apperr.Newf(apperr.KindCollaborator, "GET %s: body exceeds %d bytes", url, maxTemplateSize)
	}
	return body, nil
}

var _ Fetcher = (*HTTPFetcher)(nil)
