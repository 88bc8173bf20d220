package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"roadside/internal/scene"
)

// DirSource reads assets from a directory tree. Names are slash-separated
// paths relative to Root, e.g. "models/house-a.glb".
type DirSource struct {
	Root string
}

func (s DirSource) path(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

func (s DirSource) LoadModel(ctx context.Context, name string) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".glb", ".gltf":
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	doc, err := gltf.Open(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return FromDocument(name, doc)
}

func (s DirSource) LoadTexture(ctx context.Context, name string) (*scene.Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return scene.NewTexture(name, img), nil
}
