package scryfall

import "strings"

// Size names one of the image renditions Scryfall serves.
type Size string

const (
	SizeSmall  Size = "small"
	SizeNormal Size = "normal"
	SizeLarge  Size = "large"
	SizePNG    Size = "png"
)

// ParseSize converts a config or flag value into a Size. Empty means large.
func ParseSize(s string) (Size, bool) {
	switch Size(strings.ToLower(strings.TrimSpace(s))) {
	case "", SizeLarge:
		return SizeLarge, true
	case SizeNormal:
		return SizeNormal, true
	case SizeSmall:
		return SizeSmall, true
	case SizePNG:
		return SizePNG, true
	}
	return "", false
}

// fallback lists the renditions tried after the preferred one.
var fallback = []Size{SizeLarge, SizeNormal, SizeSmall}

// doubleFacedLayouts are the layouts printed with a distinct back face.
var doubleFacedLayouts = map[string]bool{
	"transform":          true,
	"modal_dfc":          true,
	"double_faced_token": true,
	"reversible_card":    true,
}

// ImageURIs holds the image renditions of a card or card face.
type ImageURIs struct {
	Small      string `json:"small,omitempty"`
	Normal     string `json:"normal,omitempty"`
	Large      string `json:"large,omitempty"`
	PNG        string `json:"png,omitempty"`
	ArtCrop    string `json:"art_crop,omitempty"`
	BorderCrop string `json:"border_crop,omitempty"`
}

func (u *ImageURIs) get(s Size) string {
	if u == nil {
		return ""
	}
	switch s {
	case SizeSmall:
		return u.Small
	case SizeNormal:
		return u.Normal
	case SizeLarge:
		return u.Large
	case SizePNG:
		return u.PNG
	}
	return ""
}

// pick returns the preferred rendition, falling back large → normal → small.
func (u *ImageURIs) pick(pref Size) string {
	if url := u.get(pref); url != "" {
		return url
	}
	for _, s := range fallback {
		if url := u.get(s); url != "" {
			return url
		}
	}
	return ""
}

// Face is one face of a multi-faced card.
type Face struct {
	Name      string     `json:"name"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
}

// Card is the subset of a Scryfall card object needed to print it.
//
// Zero values: Faces is nil for single-faced cards; ImageURIs is nil for
// cards that only carry images per face.
type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Layout    string     `json:"layout"`
	Set       string     `json:"set,omitempty"`
	SetName   string     `json:"set_name,omitempty"`
	Number    string     `json:"collector_number,omitempty"`
	Released  string     `json:"released_at,omitempty"`
	ImageURIs *ImageURIs `json:"image_uris,omitempty"`
	Faces     []Face     `json:"card_faces,omitempty"`
}

// DoubleFaced reports whether the card has a printed back face.
func (c *Card) DoubleFaced() bool {
	return doubleFacedLayouts[c.Layout]
}

// ImageURL returns the image URL of the given face (0 = front, 1 = back).
// Face images take precedence over the card-level images; face 1 has no
// card-level fallback since the card-level image is always the front.
func (c *Card) ImageURL(face int, pref Size) (string, bool) {
	if face < len(c.Faces) {
		if url := c.Faces[face].ImageURIs.pick(pref); url != "" {
			return url, true
		}
	}
	if face == 0 {
		if url := c.ImageURIs.pick(pref); url != "" {
			return url, true
		}
	}
	return "", false
}
