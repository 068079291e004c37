package combatsim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/udisondev/wasteland/internal/data"
	"github.com/udisondev/wasteland/internal/model"
	"github.com/udisondev/wasteland/internal/perf/cache"
	"github.com/udisondev/wasteland/internal/perf/loader"
)

// Resource id prefixes.
const (
	templatePrefix = "template:"
	spritePrefix   = "sprite:"
)

// Estimated resource sizes in bytes.
const (
	templateSize = 4 << 10
	spriteSize   = 64 << 10
)

// ErrUnknownAsset is returned by the fetcher for ids it cannot resolve.
var ErrUnknownAsset = errors.New("unknown asset")

// Sprite is a headless stand-in for a decoded enemy image.
type Sprite struct {
	ID     string
	Path   string
	Pixels []byte
}

// Size reports the pixel buffer for cache accounting.
func (s *Sprite) Size() int64 { return int64(len(s.Pixels)) }

var _ cache.Sizer = (*Sprite)(nil)

func templateResourceID(name string) string { return templatePrefix + name }
func spriteResourceID(variant string) string { return spritePrefix + variant }

// fetchAsset resolves resources without touching the filesystem: templates
// come from the static tables and sprites are blank buffers of the declared size.
func fetchAsset(ctx context.Context, r loader.Resource) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch r.Type {
	case loader.TypeData:
		name := strings.TrimPrefix(r.ID, templatePrefix)
		t, ok := data.TemplateByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, r.ID)
		}
		return t, nil
	case loader.TypeImage:
		return &Sprite{ID: r.ID, Path: r.Path, Pixels: make([]byte, r.Size)}, nil
	default:
		return nil, fmt.Errorf("%w: %s has type %s", ErrUnknownAsset, r.ID, r.Type)
	}
}

// registerAssets declares a data resource per template, depending on its sprites.
// Returns the template resource ids.
func registerAssets(ld *loader.Loader, templates []*model.EnemyTemplate) ([]string, error) {
	ids := make([]string, 0, len(templates))
	seen := make(map[string]bool)
	for _, t := range templates {
		deps := make([]string, 0, len(t.Sprites))
		for _, v := range t.Sprites {
			id := spriteResourceID(v)
			deps = append(deps, id)
			if seen[id] {
				continue
			}
			seen[id] = true
			err := ld.Register(loader.Resource{
				ID:       id,
				Type:     loader.TypeImage,
				Path:     "sprites/" + v + ".png",
				Priority: loader.PriorityNormal,
				Size:     spriteSize,
			})
			if err != nil {
				return nil, fmt.Errorf("registering sprite %s: %w", v, err)
			}
		}

		id := templateResourceID(t.Name)
		err := ld.Register(loader.Resource{
			ID:       id,
			Type:     loader.TypeData,
			Path:     "data/enemies/" + t.Name,
			Priority: loader.PriorityNormal,
			Size:     templateSize,
			Deps:     deps,
		})
		if err != nil {
			return nil, fmt.Errorf("registering template %s: %w", t.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// spriteFor returns the sprite of enemy number i of a group. Cached sprites
// are served from the asset cache; misses go through the loader at high priority.
func spriteFor(ctx context.Context, assets *cache.MultiLevel, ld *loader.Loader, t *model.EnemyTemplate, i int) (*Sprite, error) {
	if t == nil || len(t.Sprites) == 0 {
		return nil, nil
	}
	id := spriteResourceID(t.Sprites[i%len(t.Sprites)])
	if v, ok := assets.Get(id); ok {
		return v.(*Sprite), nil
	}
	if err := ld.Request(ctx, id, loader.PriorityHigh); err != nil {
		return nil, err
	}
	v, ok := ld.Value(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s evicted before use", ErrUnknownAsset, id)
	}
	s := v.(*Sprite)
	assets.Set(id, s, 0)
	return s, nil
}
