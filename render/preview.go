package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/soypat/axial/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures a preview camera. The mesh is scaled into the bi-unit cube
// centered at the origin before rendering.
type View struct {
	Width, Height int
	// Scale is the supersampling factor.
	Scale int
	// Fovy is the vertical field of view in degrees.
	Fovy      float64
	Eye       r3.Vec
	LookAt    r3.Vec
	Up        r3.Vec
	Near, Far float64
	Color     string
	// Background is a hex color.
	Background string
}

// DefaultView looks at the rotor from the front quadrant, Z up.
func DefaultView() View {
	return View{
		Width:      960,
		Height:     540,
		Scale:      2,
		Fovy:       30,
		Eye:        r3.Vec{X: -3, Y: 2.5, Z: 2},
		Up:         r3.Vec{Z: 1},
		Near:       1,
		Far:        10,
		Color:      "#468966",
		Background: "#FFF8E3",
	}
}

// Preview renders m with a phong shader.
func Preview(m *kernel.Mesh, view View) (image.Image, error) {
	if m == nil || m.Triangles() == 0 {
		return nil, errors.New("preview: empty mesh")
	}
	if view.Width <= 0 || view.Height <= 0 {
		return nil, errors.New("preview: bad image size")
	}
	if view.Scale < 1 {
		view.Scale = 1
	}
	model, err := RenderAll(NewMeshRenderer(m))
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	tris := make([]*fauxgl.Triangle, 0, len(model))
	for _, t := range model {
		if t.Degenerate(0) {
			continue
		}
		tris = append(tris, fauxgl.NewTriangleForPoints(fv(t.V[0]), fv(t.V[1]), fv(t.V[2])))
	}
	mesh := fauxgl.NewTriangleMesh(tris)
	mesh.BiUnitCube()

	var (
		eye    = fv(view.Eye)
		center = fv(view.LookAt)
		up     = fv(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	context := fauxgl.NewContext(view.Width*view.Scale, view.Height*view.Scale)
	context.ClearColorBufferWith(fauxgl.HexColor(view.Background))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.Fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(view.Color)
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	img := context.Image()
	return resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear), nil
}

// SavePreview renders m to a PNG file at path.
func SavePreview(path string, m *kernel.Mesh, view View) error {
	img, err := Preview(m, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func fv(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
