// Package pkg provides the core libraries for proxysheet.
//
// # Overview
//
// Proxysheet lays out trading-card images on duplex sheets. Each
// page is printed twice: a front side with the card faces and a back side
// whose cells are mirrored so that, after a long-edge flip, every back lands
// behind its front. The pkg directory is organized into four areas:
//
//  1. [sheet] - Composition (grid template, pagination, cell rendering, JPEG encoding)
//  2. [source] - Card resolution (catalog lookups and custom uploads)
//  3. [integrations] - External API clients (Scryfall)
//  4. [pipeline] - Orchestration (resolve → compose → encode)
//
// # Architecture
//
// The typical data flow:
//
//	Decklist / deck file
//	         ↓
//	    [deck] package (parse entries, expand quantities)
//	         ↓
//	    [source] package (resolve front and back image bytes)
//	         ↓
//	    [sheet] package (paginate, draw, mirror backs)
//	         ↓
//	    [sheet/encode] package (size-bounded JPEG)
//	         ↓
//	    Sheet1_Front.jpg, Sheet1_Back.jpg, ...
//
// # Quick Start
//
// Render a decklist into sheets:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/proxysheet/pkg/deck"
//	    "github.com/matzehuels/proxysheet/pkg/pipeline"
//	)
//
//	// 1. Parse the deck
//	entries, _ := deck.ParseDecklist("4 Lightning Bolt\n1 Delver of Secrets (ISD) 51")
//
//	// 2. Resolve and compose
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), deck.Expand(entries), pipeline.Options{})
//
//	// 3. Write the sheets
//	pipeline.WriteOutputs("sheets", result.Outputs)
//
// # Main Packages
//
// ## Composition
//
// [sheet] - Paginates slots into groups of up to 18 and builds the front and
// mirrored back side of each page. [sheet.Exporter] yields one output per
// page side lazily.
//
//   - [sheet/grid]: The 3600x5400 reference template of 18 card cells
//   - [sheet/raster]: Cell drawing (stretch, black border, rounded corners)
//   - [sheet/encode]: JPEG encoding under a byte budget
//
// ## Card Sources
//
// [source] - The closed set of card kinds (remote and custom) and the
// dispatcher that routes each to its resolver.
//
// [deck] - Decklist text, TOML and JSON deck files.
//
// ## Infrastructure
//
// [cache] - File, SQLite, Redis and no-op backends behind one interface.
//
// [config] - The TOML configuration file.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [observability] - Hooks for export, cache and HTTP events.
//
// [sheet]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/sheet
// [sheet.Exporter]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/sheet#Exporter
// [sheet/grid]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/sheet/grid
// [sheet/raster]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/sheet/raster
// [sheet/encode]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/sheet/encode
// [source]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/source
// [deck]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/deck
// [integrations]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/integrations
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/proxysheet/pkg/observability
package pkg
