// Package listing_client talks to the auction site: it posts the listing
// form and fetches auction pages.
package listing_client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gavel/go/clients"
	"github.com/mcdev12/gavel/go/internal/models"
)

var (
	// ErrRejected means the site redirected back to the form or to login
	ErrRejected = errors.New("listing rejected by server")
	// ErrNoRedirect means the site answered without sending us anywhere
	ErrNoRedirect = errors.New("no redirect after listing submission")
)

type ListingClient struct {
	*clients.BaseClient
}

// NewListingClient creates a client for siteURL. session, if set, is sent as
// the session cookie on every request.
func NewListingClient(siteURL, session string) *ListingClient {
	client := &ListingClient{
		BaseClient: clients.NewBaseClient(siteURL),
	}

	// the create endpoint answers with a redirect we need to see
	client.SetHTTPClient(&http.Client{
		Timeout: clients.DefaultTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})

	if session != "" {
		client.SetHeader("Cookie", SessionCookie(session).String())
	}
	return client
}

// SessionCookie is the auth cookie the site expects
func SessionCookie(value string) *http.Cookie {
	return &http.Cookie{Name: SessionCookieName, Value: value}
}

// SubmitListing posts the listing form. Images, when present, go in a
// multipart body under the images field.
func (c *ListingClient) SubmitListing(ctx context.Context, sub models.ListingSubmission) (models.SubmitResult, error) {
	var (
		resp *clients.Response
		err  error
	)

	if len(sub.Images) == 0 {
		body, contentType := clients.EncodeForm(sub.Fields)
		resp, err = c.Do(ctx, http.MethodPost, CreateAuctionEndpoint, body, contentType)
	} else {
		resp, err = c.postMultipart(ctx, sub)
	}
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("submit listing: %w", err)
	}

	result := models.SubmitResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		if resp.StatusCode >= 400 {
			return result, &clients.StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		}
		return result, ErrNoRedirect
	}

	target := redirectPath(result.Location)
	if target == CreateAuctionEndpoint || strings.HasPrefix(target, LoginEndpoint) {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("location", result.Location).
			Msg("listing submission bounced")
		return result, fmt.Errorf("%w: redirected to %s", ErrRejected, target)
	}

	log.Info().
		Str("location", result.Location).
		Int("image_urls", len(sub.Fields[models.FieldImageURLs])).
		Int("images", len(sub.Images)).
		Msg("listing created")
	return result, nil
}

func (c *ListingClient) postMultipart(ctx context.Context, sub models.ListingSubmission) (*clients.Response, error) {
	var parts []clients.FilePart
	for _, img := range sub.Images {
		rc, err := img.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", img.Name(), err)
		}
		defer rc.Close()
		parts = append(parts, clients.FilePart{
			Field:       models.FieldImages,
			FileName:    img.Name(),
			ContentType: img.MIMEType(),
			Content:     rc,
		})
	}

	order := make([]string, 0, len(sub.Fields))
	for k := range sub.Fields {
		order = append(order, k)
	}
	sort.Strings(order)

	body, contentType, err := clients.EncodeMultipart(sub.Fields, order, parts)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	return c.Do(ctx, http.MethodPost, CreateAuctionEndpoint, body, contentType)
}

// FetchAuctionPage returns the markup of an auction detail page.
func (c *ListingClient) FetchAuctionPage(ctx context.Context, auctionID string) ([]byte, error) {
	return c.fetchPage(ctx, fmt.Sprintf(AuctionDetailEndpoint, url.PathEscape(auctionID)))
}

// FetchCreatePage returns the markup of the listing form page.
func (c *ListingClient) FetchCreatePage(ctx context.Context) ([]byte, error) {
	return c.fetchPage(ctx, CreateAuctionEndpoint)
}

func (c *ListingClient) fetchPage(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, fmt.Errorf("%s: %w: redirected to %s", endpoint, ErrRejected, resp.Header.Get("Location"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &clients.StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return resp.Body, nil
}

// AuctionIDFromLocation extracts the id from a /auction/<id> redirect.
func AuctionIDFromLocation(location string) (string, bool) {
	p := redirectPath(location)
	dir, id := path.Split(strings.TrimRight(p, "/"))
	if dir != "/auction/" || id == "" || id == "create" {
		return "", false
	}
	return id, true
}

func redirectPath(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}
	return u.Path
}
