// Package debug provides the runtime debug overlay and frame timers.
package debug

import "voxel-engine/scene"

// fpsSmoothing is the weight of the newest sample in the FPS moving average.
const fpsSmoothing = 0.08

// Overlay is the state behind the debug window's buttons and counters. It
// touches no GPU state.
type Overlay struct {
	BordersVisible bool
	Wireframes     bool

	fps float32
}

// UpdateFPS folds one frame time in seconds into the moving average FPS.
func (o *Overlay) UpdateFPS(frameTime float32) float32 {
	if frameTime > 0 {
		o.fps = fpsSmoothing*(1/frameTime) + (1-fpsSmoothing)*o.fps
	}
	return o.fps
}

func (o *Overlay) FPS() float32 {
	return o.fps
}

// ToggleChunkBorders flips border visibility and applies it to every id in
// borderIDs that is still in objects.
func (o *Overlay) ToggleChunkBorders(objects *scene.Objects, borderIDs []scene.ID) bool {
	o.BordersVisible = !o.BordersVisible
	for _, id := range borderIDs {
		if obj, ok := objects.Get(id); ok {
			obj.IsActive = o.BordersVisible
		}
	}
	return o.BordersVisible
}

// ToggleWireframes switches active objects between BOTH and FILLED. Objects
// that are wireframe only are left alone.
func (o *Overlay) ToggleWireframes(objects *scene.Objects) bool {
	o.Wireframes = !o.Wireframes
	mode := scene.RenderFilled
	if o.Wireframes {
		mode = scene.RenderBoth
	}
	objects.Each(func(obj *scene.GameObject) {
		if !obj.IsActive || obj.RenderMode == scene.RenderWireframe {
			return
		}
		obj.RenderMode = mode
	})
	return o.Wireframes
}

// ToggleChunkLoading flips the loop's chunk streaming switch.
func (o *Overlay) ToggleChunkLoading(frame *scene.FrameInfo) {
	if frame.ChunkLoadingDisabled != nil {
		*frame.ChunkLoadingDisabled = !*frame.ChunkLoadingDisabled
	}
}

// VertexCount sums the vertices of active objects with a model.
func VertexCount(objects *scene.Objects) uint32 {
	var n uint32
	objects.Each(func(obj *scene.GameObject) {
		if obj.IsActive && obj.Model != nil {
			n += obj.Model.VertexCount()
		}
	})
	return n
}
