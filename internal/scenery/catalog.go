package scenery

import (
	"log"
	"path"
	"slices"
	"strings"

	"roadside/internal/assets"
	"roadside/internal/scene"
)

// Bucket is where the catalog files a part.
type Bucket uint8

const (
	BucketNone Bucket = iota
	BucketGroundOnly
	BucketGroundOrMiddle
	BucketMiddleOnly
	BucketRoof
	BucketHouse
	BucketTower
	BucketFence
	BucketGate
	BucketLightpost
	BucketBench
	BucketTree
)

var bucketNames = [...]string{
	BucketNone:           "none",
	BucketGroundOnly:     "ground-floor",
	BucketGroundOrMiddle: "ground-or-middle",
	BucketMiddleOnly:     "middle-floor",
	BucketRoof:           "roof",
	BucketHouse:          "house",
	BucketTower:          "tower",
	BucketFence:          "fence",
	BucketGate:           "gate",
	BucketLightpost:      "lightpost",
	BucketBench:          "bench",
	BucketTree:           "tree",
}

func (b Bucket) String() string {
	if int(b) < len(bucketNames) {
		return bucketNames[b]
	}
	return "unknown"
}

// Modular building kit pieces, keyed by base name without extension.
var modularParts = map[string]Bucket{
	"ground-door":       BucketGroundOnly,
	"ground-shop":       BucketGroundOnly,
	"ground-garage":     BucketGroundOnly,
	"wall-window":       BucketGroundOrMiddle,
	"wall-plain":        BucketGroundOrMiddle,
	"wall-balcony":      BucketGroundOrMiddle,
	"floor-columns":     BucketMiddleOnly,
	"floor-window-wide": BucketMiddleOnly,
	"roof-flat":         BucketRoof,
	"roof-gable":        BucketRoof,
	"roof-antenna":      BucketRoof,
}

var decorParts = map[string]Bucket{
	"fence":      BucketFence,
	"fence-gate": BucketGate,
	"gate":       BucketGate,
	"lightpost":  BucketLightpost,
	"streetlamp": BucketLightpost,
	"bench":      BucketBench,
}

// Classify maps an asset path to its bucket.
func Classify(name string) Bucket {
	base := strings.ToLower(path.Base(name))
	base = strings.TrimSuffix(base, path.Ext(base))
	if b, ok := modularParts[base]; ok {
		return b
	}
	if b, ok := decorParts[base]; ok {
		return b
	}
	switch {
	case strings.HasPrefix(base, "house"):
		return BucketHouse
	case strings.HasPrefix(base, "tower"), strings.HasPrefix(base, "skyscraper"):
		return BucketTower
	case strings.HasPrefix(base, "tree"):
		return BucketTree
	}
	return BucketNone
}

// Catalog holds loaded parts sorted into buckets. Parts are shared
// templates; placed copies are clones.
type Catalog struct {
	parts map[Bucket][]assets.Part
}

func NewCatalog(parts []assets.Part, logger *log.Logger) *Catalog {
	c := &Catalog{parts: make(map[Bucket][]assets.Part)}
	var unknown []string
	for _, p := range parts {
		if p.Node == nil {
			continue
		}
		b := Classify(p.Name)
		if b == BucketNone {
			unknown = append(unknown, p.Name)
			continue
		}
		c.parts[b] = append(c.parts[b], p)
	}
	if len(unknown) > 0 {
		logger.Printf("catalog: ignoring %d unrecognised parts (first %s)", len(unknown), unknown[0])
	}
	for _, b := range []Bucket{BucketGroundOnly, BucketGroundOrMiddle, BucketMiddleOnly, BucketRoof} {
		if len(c.parts[b]) == 0 {
			logger.Printf("warn: catalog: no %s parts loaded", b)
		}
	}
	return c
}

func (c *Catalog) Parts(b Bucket) []assets.Part {
	return c.parts[b]
}

func (c *Catalog) Len(b Bucket) int {
	return len(c.parts[b])
}

// Samples returns the complete building models of both eras.
func (c *Catalog) Samples() []assets.Part {
	return slices.Concat(c.parts[BucketHouse], c.parts[BucketTower])
}

// Names lists the part names in a bucket.
func (c *Catalog) Names(b Bucket) []string {
	out := make([]string, 0, len(c.parts[b]))
	for _, p := range c.parts[b] {
		out = append(out, p.Name)
	}
	return out
}

// Pick returns a random part from b, or nil if the bucket is empty.
func (c *Catalog) Pick(r *Rand, b Bucket) *scene.Node {
	ps := c.parts[b]
	if len(ps) == 0 {
		return nil
	}
	return ps[r.Intn(len(ps))].Node
}

// Reset drops every cached part and name list.
func (c *Catalog) Reset() {
	clear(c.parts)
}
