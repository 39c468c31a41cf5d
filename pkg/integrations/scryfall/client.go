package scryfall

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/proxysheet/pkg/buildinfo"
	"github.com/matzehuels/proxysheet/pkg/cache"
	perrors "github.com/matzehuels/proxysheet/pkg/errors"
	"github.com/matzehuels/proxysheet/pkg/integrations"
)

// DefaultBaseURL is the public Scryfall API endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

// MinInterval is the spacing Scryfall asks clients to keep between requests.
const MinInterval = 100 * time.Millisecond

// Lookup identifies a card in the catalog. Set and Number select an exact
// printing; when either is empty the card is looked up by fuzzy Name.
type Lookup struct {
	Name   string
	Set    string
	Number string
}

// Exact reports whether the lookup selects a specific printing.
func (l Lookup) Exact() bool {
	return l.Set != "" && l.Number != ""
}

func (l Lookup) String() string {
	if l.Exact() {
		return fmt.Sprintf("%s (%s) %s", l.Name, strings.ToUpper(l.Set), l.Number)
	}
	return l.Name
}

// Client provides access to the Scryfall API.
// It handles HTTP requests with caching, pacing, and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Scryfall client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for card and image caching (nil disables caching)
//   - cacheTTL: How long cards and images are cached (typical: 24 hours)
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": buildinfo.UserAgent(),
		"Accept":     "application/json;q=0.9,*/*;q=0.8",
	}
	c := &Client{
		Client:  integrations.NewClient(backend, "scryfall", cacheTTL, headers),
		baseURL: DefaultBaseURL,
	}
	c.SetMinInterval(MinInterval)
	return c
}

// SetBaseURL points the client at another API root (mirrors and tests).
func (c *Client) SetBaseURL(u string) {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchCard retrieves card metadata.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - Card populated with metadata on success
//   - CARD_NOT_FOUND if no card matches the lookup
//   - RATE_LIMITED or NETWORK_ERROR for HTTP failures
func (c *Client) FetchCard(ctx context.Context, l Lookup, refresh bool) (*Card, error) {
	l.Name = strings.TrimSpace(l.Name)
	l.Set = strings.TrimSpace(l.Set)
	l.Number = strings.TrimSpace(l.Number)
	if !l.Exact() && l.Name == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "card lookup needs a name or a set and collector number")
	}

	key := c.Keyer().CardKey(l.Set, l.Number, l.Name)
	var card Card
	err := c.Cached(ctx, key, refresh, &card, func() error {
		return c.Get(ctx, c.cardURL(l), &card)
	})
	if err != nil {
		return nil, classify(err, "card %s", l)
	}
	return &card, nil
}

func (c *Client) cardURL(l Lookup) string {
	if l.Exact() {
		return fmt.Sprintf("%s/cards/%s/%s", c.baseURL,
			integrations.PathEscape(strings.ToLower(l.Set)), integrations.PathEscape(l.Number))
	}
	return c.baseURL + "/cards/named?fuzzy=" + integrations.URLEncode(l.Name)
}

// maxSearchPages bounds how many result pages SearchPrintings follows.
const maxSearchPages = 5

// list is a paginated Scryfall list response.
type list struct {
	Data     []Card `json:"data"`
	HasMore  bool   `json:"has_more"`
	NextPage string `json:"next_page"`
}

// SearchPrintings returns every printing of the card with exactly this
// name, newest first as Scryfall orders them.
func (c *Client) SearchPrintings(ctx context.Context, name string, refresh bool) ([]Card, error) {
	name = strings.TrimSpace(name)
	if err := perrors.ValidateCardName(name); err != nil {
		return nil, err
	}
	url := c.baseURL + "/cards/search?unique=prints&q=" + integrations.URLEncode(`!"`+name+`"`)

	var cards []Card
	key := c.HTTPKey("prints:" + strings.ToLower(name))
	err := c.Cached(ctx, key, refresh, &cards, func() error {
		cards = cards[:0]
		next := url
		for page := 0; next != "" && page < maxSearchPages; page++ {
			var l list
			if err := c.Get(ctx, next, &l); err != nil {
				return err
			}
			cards = append(cards, l.Data...)
			next = ""
			if l.HasMore {
				next = l.NextPage
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "printings of %q", name)
	}
	return cards, nil
}

// FetchImage downloads image bytes, caching them by URL.
func (c *Client) FetchImage(ctx context.Context, url string, refresh bool) ([]byte, error) {
	if err := perrors.ValidateURL(url); err != nil {
		return nil, err
	}
	data, err := c.CachedBytes(ctx, c.Keyer().ImageKey(url), refresh, func() ([]byte, error) {
		return c.GetBytes(ctx, url)
	})
	if err != nil {
		return nil, classify(err, "image %s", url)
	}
	return data, nil
}

// classify maps transport errors onto coded errors. Context errors pass
// through unchanged so callers can tell cancellation apart.
func classify(err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if _, ok := err.(*perrors.Error); ok {
		return err
	}
	var rl *perrors.RateLimitedError
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return perrors.Wrap(perrors.ErrCodeCardNotFound, err, format, args...)
	case errors.As(err, &rl):
		return perrors.Wrap(perrors.ErrCodeRateLimited, err, format, args...)
	default:
		return perrors.Wrap(perrors.ErrCodeNetwork, err, format, args...)
	}
}
