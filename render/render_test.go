package render_test

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/soypat/axial"
	"github.com/soypat/axial/hub"
	"github.com/soypat/axial/kernel"
	"github.com/soypat/axial/kernel/facet"
	"github.com/soypat/axial/profile"
	"github.com/soypat/axial/render"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"
	"gonum.org/v1/plot/vg"
)

// tetrahedron returns a unit right tetrahedron with outward triangles.
func tetrahedron() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
		Indices:  []int{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3},
	}
}

func hubMesh(t testing.TB) *kernel.Mesh {
	k := facet.New()
	s, err := hub.Solid(k, hub.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	m, err := k.Mesh(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSTLCreateWriteRead(t *testing.T) {
	m := hubMesh(t)
	path := filepath.Join(t.TempDir(), "hub.stl")
	if err := render.SaveMesh(path, m); err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(render.NewMeshRenderer(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(model) != m.Triangles() {
		t.Fatalf("rendered %d triangles of %d", len(model), m.Triangles())
	}
	var b bytes.Buffer
	if err = render.WriteSTL(&b, model); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.Bytes(), bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
	if len(bfile) != 84+50*len(model) {
		t.Errorf("file size %d for %d triangles", len(bfile), len(model))
	}

	output, err := render.ReadSTL(bytes.NewReader(bfile))
	if err != nil && !errors.Is(err, render.ErrNormalMismatch) {
		t.Fatal(err)
	}
	if len(output) != len(model) {
		t.Fatalf("read %d triangles, wrote %d", len(output), len(model))
	}
	const tol = 1e-6 // float32 precision at unit scale
	for i, want := range model {
		for j := range want.V {
			if r3.Norm(r3.Sub(output[i].V[j], want.V[j])) > tol*(1+r3.Norm(want.V[j])) {
				t.Fatalf("triangle %d vertex %d: got %v, want %v", i, j, output[i].V[j], want.V[j])
			}
		}
	}
}

func TestSTLVolume(t *testing.T) {
	var b bytes.Buffer
	model, _ := render.RenderAll(render.NewMeshRenderer(tetrahedron()))
	if err := render.WriteSTL(&b, model); err != nil {
		t.Fatal(err)
	}
	tris, err := render.ReadSTL(&b)
	if err != nil {
		t.Fatal(err)
	}
	var v float64
	for _, tr := range tris {
		v += r3.Dot(tr.V[0], r3.Cross(tr.V[1], tr.V[2])) / 6
	}
	if math.Abs(v-1.0/6) > 1e-7 {
		t.Errorf("volume %g, want 1/6", v)
	}
}

func TestSTLErrors(t *testing.T) {
	if err := render.WriteSTL(io.Discard, nil); err == nil {
		t.Error("empty model written")
	}
	path := filepath.Join(t.TempDir(), "empty.stl")
	if err := render.SaveMesh(path, &kernel.Mesh{}); err == nil {
		t.Error("empty mesh saved")
	}
	if _, err := render.ReadSTL(bytes.NewReader(make([]byte, 10))); err == nil {
		t.Error("short header accepted")
	}
	var b bytes.Buffer
	model, _ := render.RenderAll(render.NewMeshRenderer(tetrahedron()))
	render.WriteSTL(&b, model)
	if _, err := render.ReadSTL(bytes.NewReader(b.Bytes()[:b.Len()-10])); err == nil {
		t.Error("truncated file accepted")
	}
	// Corrupt the first normal.
	data := b.Bytes()
	copy(data[84:96], make([]byte, 12))
	data[84+3] = 0x3f // 0.5 in the normal's x component
	tris, err := render.ReadSTL(bytes.NewReader(data))
	if !errors.Is(err, render.ErrNormalMismatch) || len(tris) != 4 {
		t.Errorf("got %d triangles, %v", len(tris), err)
	}
}

func TestPreview(t *testing.T) {
	m := hubMesh(t)
	view := render.DefaultView()
	view.Width, view.Height, view.Scale = 160, 90, 2
	dir := t.TempDir()
	var files [2]string
	for i := range files {
		files[i] = filepath.Join(dir, "hub"+string(rune('a'+i))+".png")
		if err := render.SavePreview(files[i], m, view); err != nil {
			t.Fatal(err)
		}
	}
	b1, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(files[1])
	if err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.EqualApprox("png", b1, b2, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("previews of the same mesh differ")
	}
	img, err := png.Decode(bytes.NewReader(b1))
	if err != nil {
		t.Fatal(err)
	}
	if sz := img.Bounds().Size(); sz.X != 160 || sz.Y != 90 {
		t.Errorf("image size %v", sz)
	}
	if _, err := render.Preview(&kernel.Mesh{}, view); err == nil {
		t.Error("empty mesh previewed")
	}
}

func TestPlotSections(t *testing.T) {
	var sections []render.Section
	for _, kind := range []axial.ProfileKind{axial.Flat, axial.NACA} {
		p := profile.DefaultParameters()
		p.Kind = kind
		pl, err := profile.New(p)
		if err != nil {
			t.Fatal(err)
		}
		sections = append(sections, render.Section{Name: kind.String(), Pipeline: pl})
	}
	p, err := render.PlotSections("sections", 50, sections...)
	if err != nil {
		t.Fatal(err)
	}
	var a, b bytes.Buffer
	if err := render.WritePlot(&a, p, 6*vg.Inch, 3*vg.Inch, "png"); err != nil {
		t.Fatal(err)
	}
	if err := render.WritePlot(&b, p, 6*vg.Inch, 3*vg.Inch, "png"); err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.Equal("png", a.Bytes(), b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("plot output not deterministic")
	}
	if err := render.SavePlot(filepath.Join(t.TempDir(), "s.svg"), p, 6*vg.Inch, 3*vg.Inch); err != nil {
		t.Error(err)
	}
	if _, err := render.PlotSections("none", 50); err == nil {
		t.Error("empty plot accepted")
	}
	if _, err := render.PlotSections("few", 1, sections...); !errors.Is(err, axial.ErrInvalidInput) {
		t.Errorf("1 sample: got %v", err)
	}
}

func TestWriteSectionCSV(t *testing.T) {
	pl, err := profile.New(profile.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := render.WriteSectionCSV(&b, pl, 11); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 1+2*11 {
		t.Fatalf("%d lines", len(lines))
	}
	if lines[0] != "x,y,z,side" || !strings.HasSuffix(lines[1], ",top") || !strings.HasSuffix(lines[len(lines)-1], ",bottom") {
		t.Errorf("unexpected layout:\n%s", b.String())
	}
}
