// Package scryfall provides an HTTP client for the Scryfall card catalog API.
//
// # Overview
//
// This package fetches card metadata and card images from Scryfall
// (https://scryfall.com). Cards are looked up by set code and collector
// number when both are known, and by fuzzy name otherwise:
//
//	GET /cards/{set}/{number}
//	GET /cards/named?fuzzy={name}
//
// # Usage
//
//	client := scryfall.NewClient(backend, 24*time.Hour)
//
//	card, err := client.FetchCard(ctx, scryfall.Lookup{Name: "Delver of Secrets", Set: "ISD", Number: "51"}, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	front, _ := card.ImageURL(0, scryfall.SizeLarge)
//	data, err := client.FetchImage(ctx, front, false)
//
// # Double-Faced Cards
//
// Cards whose layout is one of transform, modal_dfc, double_faced_token or
// reversible_card carry their images per face in card_faces. [Card.DoubleFaced]
// reports this and [Card.ImageURL] picks the face.
//
// # Caching
//
// Card metadata is cached as JSON under [cache.Keyer.CardKey] and image
// bytes under [cache.Keyer.ImageKey]. Pass refresh=true to bypass the cache.
//
// # Errors
//
// Failures are returned as coded errors from pkg/errors: CARD_NOT_FOUND for
// unknown cards, RATE_LIMITED when Scryfall keeps answering 429 after the
// retries are spent, and NETWORK_ERROR for everything else on the wire.
package scryfall
