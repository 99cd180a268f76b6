// Package scene holds the CPU-side world state the render systems draw:
// game objects, models, the camera, lights and chunk streaming.
package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// ID identifies a game object. IDs are assigned in increasing order and
// never reused by the Objects map that issued them.
type ID uint32

// RenderMode selects how SimpleRenderSystem draws an object.
type RenderMode int

const (
	RenderFilled RenderMode = iota
	RenderWireframe
	RenderBoth
)

func (m RenderMode) String() string {
	switch m {
	case RenderFilled:
		return "filled"
	case RenderWireframe:
		return "wireframe"
	case RenderBoth:
		return "both"
	default:
		return "unknown"
	}
}

type PointLightComponent struct {
	Intensity float32
}

type GameObject struct {
	ID          ID
	Transform   TransformComponent
	Model       *Model
	Color       mgl32.Vec3
	IsActive    bool
	IsWireFrame bool
	RenderMode  RenderMode
	PointLight  *PointLightComponent

	ownsModel bool
}

// SetModel attaches m to the object. An owned model is destroyed when the
// object is removed; a shared one is left to its owner.
func (g *GameObject) SetModel(m *Model, owned bool) {
	g.Model = m
	g.ownsModel = owned
}

func (g *GameObject) IsPointLight() bool {
	return g.PointLight != nil
}

// Drawable reports whether a geometry pass should draw the object.
func (g *GameObject) Drawable() bool {
	return g.IsActive && g.Model != nil && g.PointLight == nil
}

// Objects is the scene's id -> object map and the only owner of its
// objects.
type Objects struct {
	items  map[ID]*GameObject
	nextID ID
}

func NewObjects() *Objects {
	return &Objects{items: make(map[ID]*GameObject)}
}

// Create adds an active, filled, unit-scale object with the next id.
func (o *Objects) Create() *GameObject {
	obj := &GameObject{
		ID:        o.nextID,
		Transform: NewTransform(),
		Color:     mgl32.Vec3{1, 1, 1},
		IsActive:  true,
	}
	o.nextID++
	o.items[obj.ID] = obj
	return obj
}

// CreatePointLight adds a light object. radius is stored in the x scale.
func (o *Objects) CreatePointLight(intensity, radius float32, color mgl32.Vec3) *GameObject {
	obj := o.Create()
	obj.Color = color
	obj.Transform.Scale[0] = radius
	obj.PointLight = &PointLightComponent{Intensity: intensity}
	return obj
}

func (o *Objects) Get(id ID) (*GameObject, bool) {
	obj, ok := o.items[id]
	return obj, ok
}

// Remove deletes the object and releases its model if it owns one.
func (o *Objects) Remove(id ID) bool {
	obj, ok := o.items[id]
	if !ok {
		return false
	}
	delete(o.items, id)
	if obj.ownsModel && obj.Model != nil {
		obj.Model.Destroy()
	}
	obj.Model = nil
	return true
}

func (o *Objects) Len() int {
	return len(o.items)
}

// Sorted returns the objects in ascending id order.
func (o *Objects) Sorted() []*GameObject {
	out := make([]*GameObject, 0, len(o.items))
	for _, obj := range o.items {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Each calls fn for every object in ascending id order.
func (o *Objects) Each(fn func(*GameObject)) {
	for _, obj := range o.Sorted() {
		fn(obj)
	}
}

// Clear removes every object, releasing owned models. The id counter keeps
// counting.
func (o *Objects) Clear() {
	for id := range o.items {
		o.Remove(id)
	}
}
