package fingerprint

import (
	"fmt"
	"math/rand"
	"os"

	json "github.com/json-iterator/go"
)

// Kind classifies an archetype by form factor.
type Kind string

const (
	KindDesktop Kind = "desktop"
	KindMobile  Kind = "mobile"
	KindTablet  Kind = "tablet"
)

// Viewport is the emulated screen size in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DeviceArchetype describes one hardware and browser combination a session
// can present. Everything derived from it (WebGL strings, font lists, canvas
// and audio seeds) is a pure function of these fields, so any two identities
// drawn from the same archetype tell the same hardware story.
type DeviceArchetype struct {
	Kind                Kind     `json:"kind,omitempty"`
	UserAgent           string   `json:"user_agent"`
	Viewport            Viewport `json:"viewport"`
	DeviceScaleFactor   float64  `json:"device_scale_factor"`
	Mobile              bool     `json:"mobile"`
	Touch               bool     `json:"touch"`
	Platform            string   `json:"platform"`
	DeviceMemoryGB      int      `json:"device_memory_gb"`
	HardwareConcurrency int      `json:"hardware_concurrency"`
	MaxTouchPoints      int      `json:"max_touch_points"`
}

// CatalogWeights controls how often each form factor is drawn.
type CatalogWeights struct {
	Desktop int `json:"desktop"`
	Mobile  int `json:"mobile"`
	Tablet  int `json:"tablet"`
}

// defaultWeights favors desktop draws, roughly matching real traffic mixes.
var defaultWeights = CatalogWeights{Desktop: 70, Mobile: 25, Tablet: 5}

// Catalog is the archetype pool, grouped by form factor. The zero value is
// not usable; construct one with DefaultCatalog or LoadCatalog.
type Catalog struct {
	Desktop []DeviceArchetype `json:"desktop"`
	Mobile  []DeviceArchetype `json:"mobile"`
	Tablet  []DeviceArchetype `json:"tablet"`
	Weights CatalogWeights    `json:"weights"`
}

// DefaultCatalog returns the built-in archetype pool.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		Desktop: append([]DeviceArchetype(nil), desktopArchetypes...),
		Mobile:  append([]DeviceArchetype(nil), mobileArchetypes...),
		Tablet:  append([]DeviceArchetype(nil), tabletArchetypes...),
		Weights: defaultWeights,
	}
	if err := c.normalize(); err != nil {
		// The built-in table is validated by tests; reaching this means the
		// table itself was edited into an invalid state.
		panic(err)
	}
	return c
}

// LoadCatalog reads an archetype catalog from a JSON file. Missing weights
// fall back to the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetype catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse archetype catalog %s: %w", path, err)
	}
	if err := c.normalize(); err != nil {
		return nil, fmt.Errorf("archetype catalog %s: %w", path, err)
	}
	return &c, nil
}

// normalize fills default weights, stamps each entry's Kind from its group,
// and validates that the catalog can actually serve a draw.
func (c *Catalog) normalize() error {
	if c.Weights == (CatalogWeights{}) {
		c.Weights = defaultWeights
	}
	if c.Weights.Desktop < 0 || c.Weights.Mobile < 0 || c.Weights.Tablet < 0 {
		return fmt.Errorf("negative kind weight %+v", c.Weights)
	}

	groups := []struct {
		kind Kind
		pool []DeviceArchetype
	}{
		{KindDesktop, c.Desktop},
		{KindMobile, c.Mobile},
		{KindTablet, c.Tablet},
	}
	total := 0
	for _, g := range groups {
		for i := range g.pool {
			a := &g.pool[i]
			a.Kind = g.kind
			if err := a.validate(); err != nil {
				return fmt.Errorf("%s archetype %d: %w", g.kind, i, err)
			}
		}
		if len(g.pool) > 0 {
			total += c.weightFor(g.kind)
		}
	}
	if total <= 0 {
		return fmt.Errorf("no drawable archetypes (empty groups or zero weights)")
	}
	return nil
}

func (c *Catalog) weightFor(k Kind) int {
	switch k {
	case KindDesktop:
		return c.Weights.Desktop
	case KindMobile:
		return c.Weights.Mobile
	default:
		return c.Weights.Tablet
	}
}

func (a *DeviceArchetype) validate() error {
	switch {
	case a.UserAgent == "":
		return fmt.Errorf("empty user agent")
	case a.Platform == "":
		return fmt.Errorf("empty platform")
	case a.Viewport.Width <= 0 || a.Viewport.Height <= 0:
		return fmt.Errorf("invalid viewport %dx%d", a.Viewport.Width, a.Viewport.Height)
	case a.DeviceScaleFactor <= 0:
		return fmt.Errorf("invalid device scale factor %v", a.DeviceScaleFactor)
	case a.DeviceMemoryGB <= 0:
		return fmt.Errorf("invalid device memory %dGB", a.DeviceMemoryGB)
	case a.HardwareConcurrency <= 0:
		return fmt.Errorf("invalid hardware concurrency %d", a.HardwareConcurrency)
	}
	return nil
}

// Pick draws one archetype: a weighted roll over the populated form factors,
// then a uniform choice within the winning group.
func (c *Catalog) Pick(rng *rand.Rand) DeviceArchetype {
	type bucket struct {
		pool   []DeviceArchetype
		weight int
	}
	var buckets []bucket
	total := 0
	for _, b := range []bucket{
		{c.Desktop, c.Weights.Desktop},
		{c.Mobile, c.Weights.Mobile},
		{c.Tablet, c.Weights.Tablet},
	} {
		if len(b.pool) == 0 || b.weight <= 0 {
			continue
		}
		buckets = append(buckets, b)
		total += b.weight
	}

	roll := rng.Intn(total)
	chosen := buckets[len(buckets)-1]
	for _, b := range buckets {
		if roll < b.weight {
			chosen = b
			break
		}
		roll -= b.weight
	}
	return chosen.pool[rng.Intn(len(chosen.pool))]
}

// All returns every archetype in the catalog as a single flat copy,
// desktop first. Used by the catalog listing command.
func (c *Catalog) All() []DeviceArchetype {
	out := make([]DeviceArchetype, 0, len(c.Desktop)+len(c.Mobile)+len(c.Tablet))
	out = append(out, c.Desktop...)
	out = append(out, c.Mobile...)
	out = append(out, c.Tablet...)
	return out
}
