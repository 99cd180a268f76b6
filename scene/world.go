package scene

import (
	"context"
	"log/slog"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type loadedChunk struct {
	blocks []ID
	border ID
}

// World streams chunks around the camera. Chunks within Radius of the
// camera's chunk are loaded; chunks farther than Radius+1 are unloaded, so a
// camera moving back and forth across one boundary does not thrash.
type World struct {
	Radius int
	// ShowBorders is the initial IsActive state of newly loaded borders.
	ShowBorders bool

	alloc   BufferAllocator
	objects *Objects
	level   Level
	cube    *Model
	chunks  map[ChunkCoord]*loadedChunk
	log     *slog.Logger
}

// NewWorld creates the cube model shared by every block.
func NewWorld(alloc BufferAllocator, objects *Objects, level Level, radius int, log *slog.Logger) (*World, error) {
	if radius < 0 {
		return nil, errors.Errorf("scene: chunk radius must not be negative, got %d", radius)
	}
	cube, err := NewModel(alloc, CubeBuilder(mgl32.Vec3{1, 1, 1}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create block model")
	}
	return &World{
		Radius:  radius,
		alloc:   alloc,
		objects: objects,
		level:   level,
		cube:    cube,
		chunks:  make(map[ChunkCoord]*loadedChunk),
		log:     log,
	}, nil
}

// Update loads and unloads chunks around cameraPos. It does nothing while
// loading is disabled.
func (w *World) Update(ctx context.Context, cameraPos mgl32.Vec3, disabled bool) error {
	if disabled {
		return nil
	}
	center := ChunkAt(cameraPos)

	for coord := range w.chunks {
		if coord.Distance(center) > w.Radius+1 {
			w.unload(coord)
		}
	}

	var missing []ChunkCoord
	for z := center.Z - w.Radius; z <= center.Z+w.Radius; z++ {
		for x := center.X - w.Radius; x <= center.X+w.Radius; x++ {
			coord := ChunkCoord{X: x, Z: z}
			if _, ok := w.chunks[coord]; !ok {
				missing = append(missing, coord)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	layouts := make([]ChunkLayout, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	for i, coord := range missing {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			layouts[i] = GenerateChunk(coord, w.level)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "failed to generate chunks")
	}

	for _, layout := range layouts {
		if err := w.load(layout); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) load(layout ChunkLayout) error {
	borderModel, err := NewModel(w.alloc, layout.Border)
	if err != nil {
		return errors.Wrapf(err, "failed to create border of chunk %s", layout.Coord)
	}

	chunk := &loadedChunk{blocks: make([]ID, 0, len(layout.Blocks))}
	for _, b := range layout.Blocks {
		obj := w.objects.Create()
		obj.Transform.Translation = b.Translation
		obj.Transform.Scale = b.Scale
		obj.Color = b.Color
		obj.SetModel(w.cube, false)
		chunk.blocks = append(chunk.blocks, obj.ID)
	}

	border := w.objects.Create()
	border.SetModel(borderModel, true)
	border.Color = BorderColor
	border.IsWireFrame = true
	border.RenderMode = RenderWireframe
	border.IsActive = w.ShowBorders
	chunk.border = border.ID

	w.chunks[layout.Coord] = chunk
	w.log.Debug("chunk loaded", "chunk", layout.Coord, "blocks", len(chunk.blocks))
	return nil
}

func (w *World) unload(coord ChunkCoord) {
	chunk, ok := w.chunks[coord]
	if !ok {
		return
	}
	for _, id := range chunk.blocks {
		w.objects.Remove(id)
	}
	w.objects.Remove(chunk.border)
	delete(w.chunks, coord)
	w.log.Debug("chunk unloaded", "chunk", coord)
}

// ChunkBorderIDs returns the border object ids of all loaded chunks in
// ascending order.
func (w *World) ChunkBorderIDs() []ID {
	ids := make([]ID, 0, len(w.chunks))
	for _, c := range w.chunks {
		ids = append(ids, c.border)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Loaded returns the loaded chunk coordinates sorted by row, then column.
func (w *World) Loaded() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Z != out[j].Z {
			return out[i].Z < out[j].Z
		}
		return out[i].X < out[j].X
	})
	return out
}

// Destroy unloads every chunk and releases the shared block model.
func (w *World) Destroy() {
	for coord := range w.chunks {
		w.unload(coord)
	}
	if w.cube != nil {
		w.cube.Destroy()
		w.cube = nil
	}
}
