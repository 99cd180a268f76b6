package scene

import "github.com/go-gl/mathgl/mgl32"

// MaxLights is the capacity of the point light array in GlobalUbo. It must
// match the shaders.
const MaxLights = 10

// PointLight is one entry of the uniform light array. Position.w carries the
// billboard radius and Color.w the intensity.
type PointLight struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GlobalUbo mirrors the std140 uniform block shared by every shader.
type GlobalUbo struct {
	Projection        mgl32.Mat4
	View              mgl32.Mat4
	InverseView       mgl32.Mat4
	AmbientLightColor mgl32.Vec4
	PointLights       [MaxLights]PointLight
	NumLights         int32
	_                 [12]byte
}

// DefaultAmbientLight is a dim magenta; w is the intensity.
var DefaultAmbientLight = mgl32.Vec4{0.609, 0.18, 0.207, 0.08}

func NewGlobalUbo() GlobalUbo {
	return GlobalUbo{
		Projection:        mgl32.Ident4(),
		View:              mgl32.Ident4(),
		InverseView:       mgl32.Ident4(),
		AmbientLightColor: DefaultAmbientLight,
	}
}

// SetCamera copies the camera matrices into the block.
func (u *GlobalUbo) SetCamera(c *Camera) {
	u.Projection = c.Projection()
	u.View = c.View()
	u.InverseView = c.InverseView()
}

// PackLights rewrites the light array from the active point lights in
// ascending id order. Lights past MaxLights are counted in dropped and left
// out.
func PackLights(ubo *GlobalUbo, objects *Objects) (packed, dropped int) {
	ubo.PointLights = [MaxLights]PointLight{}
	for _, obj := range objects.Sorted() {
		if !obj.IsActive || obj.PointLight == nil {
			continue
		}
		if packed == MaxLights {
			dropped++
			continue
		}
		t := obj.Transform
		ubo.PointLights[packed] = PointLight{
			Position: t.Translation.Vec4(t.Scale[0]),
			Color:    obj.Color.Vec4(obj.PointLight.Intensity),
		}
		packed++
	}
	ubo.NumLights = int32(packed)
	return packed, dropped
}
