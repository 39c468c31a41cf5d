// Package integrations provides HTTP clients for remote card catalogs.
//
// # Overview
//
// Each catalog has its own subpackage:
//
//   - [scryfall]: the Scryfall card database and image CDN
//
// # Client Pattern
//
// Catalog clients embed [Client], which provides:
//   - HTTP requests with retry and a minimum interval between requests
//   - Response caching through any [cache.Cache] backend
//   - Mapping of HTTP statuses to [ErrNotFound], [ErrNetwork] and rate limits
//
//	c := scryfall.NewClient(backend, 24*time.Hour)
//	card, err := c.FetchCard(ctx, scryfall.Lookup{Name: "Lightning Bolt"}, false)
//
// # Adding a New Catalog
//
//  1. Create a subpackage: pkg/integrations/<catalog>/
//  2. Define response structs matching the API schema
//  3. Embed [Client] and fetch through [Client.Cached]
//  4. Wrap it in a source.Resolver so the pipeline can use it
//
// [scryfall]: github.com/matzehuels/proxysheet/pkg/integrations/scryfall
// [cache.Cache]: github.com/matzehuels/proxysheet/pkg/cache.Cache
package integrations
