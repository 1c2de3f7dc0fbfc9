package batch

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-unroll/internal/bmd"
	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/preview"
	"mu-bmd-unroll/internal/texture"
)

// gridMesh is a rows×cols quad grid with one texcoord per vertex laid out
// on a skewed lattice.
func gridMesh(rows, cols int) bmd.Mesh {
	m := bmd.Mesh{TexPath: "sword.png"}
	vid := func(r, c int) int16 { return int16(r*(cols+1) + c) }
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			m.Verts = append(m.Verts, [3]float32{float32(c), float32(r), 0})
			m.Nodes = append(m.Nodes, 0)
			m.UVs = append(m.UVs, [2]float32{0.1 + 0.2*float32(c) + 0.05*float32(r), 0.2 + 0.25*float32(r)})
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			idx := [4]int16{vid(r, c), vid(r, c+1), vid(r+1, c+1), vid(r+1, c)}
			m.Tris = append(m.Tris, bmd.Triangle{Polygon: 4, VI: idx, TI: idx})
		}
	}
	return m
}

// fanMesh is a quad welded to a triangle: one island that is not a quad grid.
func fanMesh() bmd.Mesh {
	return bmd.Mesh{
		TexPath: "sword.png",
		Verts:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {2, 0, 0}},
		Nodes:   make([]int16, 5),
		UVs:     [][2]float32{{0, 0}, {0.5, 0}, {0.5, 0.5}, {0, 0.5}, {1, 0}},
		Tris: []bmd.Triangle{
			{Polygon: 4, VI: [4]int16{0, 1, 2, 3}, TI: [4]int16{0, 1, 2, 3}},
			{Polygon: 3, VI: [4]int16{1, 4, 2}, TI: [4]int16{1, 4, 2}},
		},
	}
}

type fixture struct {
	dir, out, good, bad string
	cfg                 Config
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{dir: dir, out: filepath.Join(dir, "out")}

	model := &bmd.Model{Name: "sword", Version: 10, Meshes: []bmd.Mesh{gridMesh(2, 3), fanMesh()}}
	fx.good = filepath.Join(dir, "in", "Sword01.bmd")
	require.NoError(t, bmd.Codec{}.Save(fx.good, model, 12))
	fx.bad = filepath.Join(dir, "in", "broken.bmd")
	require.NoError(t, os.WriteFile(fx.bad, []byte("BMD\x0a garbage"), 0644))

	texDir := filepath.Join(dir, "tex")
	require.NoError(t, os.MkdirAll(texDir, 0755))
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(filepath.Join(texDir, "sword.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	fx.cfg = Config{
		OutputDir:   fx.out,
		Mapper:      gridmap.New(gridmap.DefaultOptions(), nil),
		TexResolver: texture.NewCache(texture.BuildIndex(texDir), nil),
		Preview:     preview.FormatPNG,
		PreviewSize: 64,
		Supersample: 1,
		Bake:        true,
		BakePadding: 1,
		Workers:     2,
		Progress:    time.Millisecond,
	}
	return fx
}

func distinct(vals []float32) int {
	set := map[int64]bool{}
	for _, v := range vals {
		set[int64(math.Round(float64(v)*1e4))] = true
	}
	return len(set)
}

func TestRun(t *testing.T) {
	fx := setup(t)
	results := Run(fx.cfg, []string{fx.good, fx.bad})
	require.Len(t, results, 2)

	good, bad := results[0], results[1]
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.Error)
	assert.Equal(t, fx.bad, bad.File)

	require.True(t, good.Success, good.Error)
	assert.Equal(t, 2, good.Meshes)
	assert.Zero(t, good.Texcoords)
	require.NotNil(t, good.Report)
	assert.Equal(t, 1, good.Report.Mapped)
	assert.Equal(t, 1, good.Report.Failed)
	require.Len(t, good.Report.Islands, 2)
	assert.Equal(t, "Sword01/mesh0", good.Report.Islands[0].Object)
	assert.Equal(t, 3, good.Report.Islands[0].Rows)
	assert.Equal(t, 2, good.Report.Islands[0].Cols)
	assert.Equal(t, "topology", good.Report.Islands[1].Kind())

	assert.Len(t, good.Previews, 2)
	assert.Len(t, good.Textures, 2)
	for _, p := range append(good.Previews, good.Textures...) {
		assert.FileExists(t, p)
	}

	assert.Equal(t, filepath.Join(fx.out, "Sword01.bmd"), good.Output)
	out, err := bmd.Codec{}.Parse(good.Output)
	require.NoError(t, err)
	assert.Equal(t, 12, out.Version)

	// every quad of the grid mesh is now an axis-aligned rectangle.
	grid := out.Meshes[0]
	require.Len(t, grid.UVs, 12)
	for i, tri := range grid.Tris {
		var us, vs []float32
		for _, tc := range tri.TI[:tri.Corners()] {
			us = append(us, grid.UVs[tc][0])
			vs = append(vs, grid.UVs[tc][1])
		}
		assert.Equal(t, 2, distinct(us), "face %d u", i)
		assert.Equal(t, 2, distinct(vs), "face %d v", i)
	}
	// the failed island is untouched.
	assert.Equal(t, fanMesh().UVs, out.Meshes[1].UVs)
}

func TestRun_MeshAndFaceSelection(t *testing.T) {
	fx := setup(t)
	fx.cfg.Meshes = []int{1, 7}
	fx.cfg.Faces = []int{40}
	fx.cfg.Preview = preview.FormatNone
	fx.cfg.TexResolver = nil

	results := Run(fx.cfg, []string{fx.good})
	require.Len(t, results, 1)
	r := results[0]
	require.True(t, r.Success, r.Error)
	assert.Equal(t, []string{"Sword01/mesh1"}, r.Report.Skipped)
	require.Len(t, r.Report.Errors, 1)
	assert.Contains(t, r.Report.Errors[0], "Sword01/mesh7")
	assert.Zero(t, r.Report.Mapped)
	assert.Empty(t, r.Previews)
	assert.Empty(t, r.Textures)
}

func TestRun_SkipOverlays(t *testing.T) {
	fx := setup(t)
	fx.cfg.SkipOverlays = true
	fx.cfg.Preview = preview.FormatNone

	r := Run(fx.cfg, []string{fx.good})[0]
	require.True(t, r.Success, r.Error)
	assert.Equal(t, []string{"Sword01/mesh1"}, r.Report.Skipped)
	assert.Equal(t, 1, r.Report.Mapped)
	assert.Zero(t, r.Report.Failed)
}

func TestWriteReport(t *testing.T) {
	fx := setup(t)
	results := Run(fx.cfg, []string{fx.good, fx.bad})
	path := filepath.Join(fx.out, "report.json")
	require.NoError(t, WriteReport(path, results))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Totals Totals `json:"totals"`
		Files  []struct {
			File    string `json:"file"`
			Success bool   `json:"success"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, Totals{Files: 2, FailedFiles: 1, MappedIslands: 1, FailedIslands: 1}, got.Totals)
	require.Len(t, got.Files, 2)
	assert.True(t, got.Files[0].Success)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.bmd", "sub/A.BMD", "notes.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}
	extra := filepath.Join(dir, "notes.txt")

	files, err := Collect([]string{dir, filepath.Join(dir, "b.bmd"), extra})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.bmd"),
		extra,
		filepath.Join(dir, "sub", "A.BMD"),
	}, files)

	_, err = Collect([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestCollect_NameClash(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a/Sword01.bmd", "b/sword01.BMD"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}

	_, err := Collect([]string{dir})
	assert.True(t, errors.Is(err, ErrNameClash), "got %v", err)

	files, err := Collect([]string{filepath.Join(dir, "a")})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestRun_NameClash(t *testing.T) {
	fx := setup(t)
	fx.cfg.Preview = preview.FormatNone
	twin := filepath.Join(fx.dir, "other", "Sword01.bmd")
	raw, err := os.ReadFile(fx.good)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(twin), 0755))
	require.NoError(t, os.WriteFile(twin, raw, 0644))

	results := Run(fx.cfg, []string{fx.good, twin})
	require.Len(t, results, 2)
	require.True(t, results[0].Success, results[0].Error)
	assert.Equal(t, filepath.Join(fx.out, "Sword01.bmd"), results[0].Output)

	assert.False(t, results[1].Success)
	assert.Empty(t, results[1].Output)
	assert.Contains(t, results[1].Error, fx.good)
	assert.Nil(t, results[1].Report)
}

func TestRun_ExtrasFailureWritesNoModel(t *testing.T) {
	fx := setup(t)
	// a file where the previews directory should be.
	require.NoError(t, os.MkdirAll(fx.out, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(fx.out, "previews"), nil, 0644))

	r := Run(fx.cfg, []string{fx.good})[0]
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)
	assert.Empty(t, r.Output)
	assert.NoFileExists(t, filepath.Join(fx.out, "Sword01.bmd"))
}

func TestInspect(t *testing.T) {
	fx := setup(t)
	before, err := os.ReadFile(fx.good)
	require.NoError(t, err)

	got, err := Inspect(bmd.Codec{}, fx.cfg.Mapper, fx.good)
	require.NoError(t, err)
	assert.Equal(t, "sword", got.Name)
	assert.Equal(t, 12, got.Version)
	require.Len(t, got.Meshes, 2)

	grid := got.Meshes[0]
	assert.Equal(t, "geometry", grid.Kind)
	assert.Equal(t, 6, grid.Faces)
	require.Len(t, grid.Islands, 1)
	is := grid.Islands[0]
	assert.Empty(t, is.Reason)
	assert.True(t, is.Quads)
	assert.Equal(t, [2]int{3, 2}, [2]int{is.Rows, is.Cols})
	assert.InDelta(t, 2.0, is.Width, 1e-6)
	assert.InDelta(t, 3.0, is.Height, 1e-6)

	fan := got.Meshes[1]
	assert.Equal(t, "effect", fan.Kind)
	require.Len(t, fan.Islands, 1)
	assert.False(t, fan.Islands[0].Quads)
	assert.Equal(t, -1, fan.Islands[0].Origin)
	assert.NotEmpty(t, fan.Islands[0].Reason)

	after, err := os.ReadFile(fx.good)
	require.NoError(t, err)
	assert.Equal(t, before, after, "inspect must not write")

	_, err = Inspect(bmd.Codec{}, fx.cfg.Mapper, fx.bad)
	assert.Error(t, err)
}
