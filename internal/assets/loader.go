// Package assets loads the model and texture files the scenery is built
// from. Every load is independent: a missing or broken file is logged and
// leaves a hole in the results, it never fails the batch.
package assets

import (
	"context"
	"io"
	"log"
	"sync"

	"roadside/internal/scene"
)

// Source resolves asset identifiers to scene data.
type Source interface {
	LoadModel(ctx context.Context, name string) (*scene.Node, error)
	LoadTexture(ctx context.Context, name string) (*scene.Texture, error)
}

// Part is one loaded model. Node is nil when the load failed.
type Part struct {
	Name string
	Node *scene.Node
	Err  error
}

type Loader struct {
	src Source
	log *log.Logger
}

func NewLoader(src Source, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{src: src, log: logger}
}

// LoadAll loads every name concurrently and returns once the whole batch
// has settled. The result has one entry per name, in order.
func (l *Loader) LoadAll(ctx context.Context, names []string) []Part {
	parts := make([]Part, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		parts[i].Name = name
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			node, err := l.src.LoadModel(ctx, name)
			if err == nil && node == nil {
				err = errEmptyModel
			}
			parts[i].Node = node
			parts[i].Err = err
		}(i, name)
	}
	wg.Wait()

	for _, p := range parts {
		if p.Err != nil {
			l.log.Printf("warn: load model %s: %v", p.Name, p.Err)
			continue
		}
		if p.Node.Name == "" {
			p.Node.Name = p.Name
		}
	}
	return parts
}

// LoadPalette loads the shared texture. A failure is logged and returns
// nil; the scenery then stays untextured.
func (l *Loader) LoadPalette(ctx context.Context, name string) *scene.Texture {
	if name == "" {
		return nil
	}
	tex, err := l.src.LoadTexture(ctx, name)
	if err != nil {
		l.log.Printf("warn: load palette %s: %v (continuing untextured)", name, err)
		return nil
	}
	return tex
}

// ApplyFallback assigns tex to every material under node that has no map
// of its own. It returns the number of slots filled.
func ApplyFallback(node *scene.Node, tex *scene.Texture) int {
	if tex == nil {
		return 0
	}
	n := 0
	scene.WalkMeshes(node, func(m *scene.Node) {
		if m.Material != nil && m.Material.Unmapped() {
			m.Material.Map = tex
			n++
		}
	})
	return n
}

// Loaded filters out failed parts and applies the shared texture to the rest.
func Loaded(parts []Part, palette *scene.Texture) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.Node == nil {
			continue
		}
		ApplyFallback(p.Node, palette)
		out = append(out, p)
	}
	return out
}
