package bmd

import (
	"bytes"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/island"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// scramble turns uvs a quarter turn and shifts them; exact in float32.
func scramble(x, y float64) [2]float32 {
	return [2]float32{float32(0.25 - y), float32(0.5 + x)}
}

// quadStrip is a 1×2 strip of quads with one texcoord per vertex:
//
//	3───4───5
//	│ 0 │ 1 │
//	0───1───2
func quadStrip() Mesh {
	m := Mesh{
		Texture: 2,
		Nodes:   make([]int16, 6),
		Normals: []Normal{{Node: 0, Dir: [3]float32{0, 0, 1}, Bind: 0}},
		Tris: []Triangle{
			{Polygon: 4, VI: [4]int16{0, 1, 4, 3}, TI: [4]int16{0, 1, 4, 3}},
			{Polygon: 4, VI: [4]int16{1, 2, 5, 4}, TI: [4]int16{1, 2, 5, 4}},
		},
		TexPath: "data/item/sword.jpg",
		texName: `data\item\sword.jpg`,
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			m.Verts = append(m.Verts, [3]float32{float32(x), float32(y), 0})
			m.UVs = append(m.UVs, scramble(float64(x), float64(y)))
		}
	}
	return m
}

func sampleModel() *Model {
	w := &writer{}
	// one action with one key, no locked positions
	w.i16(1)
	w.buf.WriteByte(0)
	// one bone
	w.buf.WriteByte(0)
	w.str("root", 32)
	w.i16(-1)
	for _, f := range []float32{1, 2, 3, 0, 0, 0.5} {
		w.f32(f)
	}
	return &Model{
		Name:    "sample",
		Version: 10,
		Meshes:  []Mesh{quadStrip()},
		Bones:   []Bone{{Name: "root", Parent: -1, BindPosition: [3]float64{1, 2, 3}, BindRotation: [3]float64{0, 0, 0.5}}},
		Actions: 1,
		tail:    w.buf.Bytes(),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := Codec{LEAKey: testKey}
	for _, version := range []int{10, 12, 15} {
		m := sampleModel()
		var first bytes.Buffer
		require.NoError(t, codec.Encode(&first, m, version), "v%d", version)
		assert.Equal(t, "BMD", first.String()[:3])
		assert.Equal(t, byte(version), first.Bytes()[3])

		got, err := codec.Decode(first.Bytes())
		require.NoError(t, err, "v%d", version)
		assert.Equal(t, version, got.Version)
		assert.Equal(t, "sample", got.Name)
		assert.Equal(t, m.Bones, got.Bones)
		if diff := cmp.Diff(m.Meshes, got.Meshes, cmpopts.IgnoreUnexported(Mesh{}, Triangle{})); diff != "" {
			t.Errorf("v%d meshes (-want +got):\n%s", version, diff)
		}

		var second bytes.Buffer
		require.NoError(t, codec.Encode(&second, got, 0))
		assert.Equal(t, first.Bytes(), second.Bytes(), "v%d re-encode", version)
	}
}

func TestCodec_EncodeErrors(t *testing.T) {
	var buf bytes.Buffer
	err := Codec{}.Encode(&buf, sampleModel(), 11)
	assert.True(t, errors.Is(err, ErrVersion), "got %v", err)

	err = Codec{}.Encode(&buf, sampleModel(), 15)
	assert.True(t, errors.Is(err, ErrNoKey), "got %v", err)
}

func TestCodec_DecodeErrors(t *testing.T) {
	var v10 bytes.Buffer
	require.NoError(t, Codec{}.Encode(&v10, sampleModel(), 10))
	var v15 bytes.Buffer
	require.NoError(t, Codec{LEAKey: testKey}.Encode(&v15, sampleModel(), 15))

	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"header", []byte("XYZ\x0a"), ErrHeader},
		{"short file", []byte("BM"), ErrHeader},
		{"v12 header", []byte("BMD\x0c\x01"), ErrTruncated},
		{"v12 size", []byte("BMD\x0c\x10\x00\x00\x00\x01\x02"), ErrTruncated},
		{"v10 body", v10.Bytes()[:v10.Len()/2], ErrTruncated},
		{"v15 without key", v15.Bytes(), ErrNoKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Codec{}.Decode(tt.raw)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMesh_Topology(t *testing.T) {
	m := quadStrip()
	v, bind, err := m.Topology(nil)
	require.NoError(t, err)
	require.NotNil(t, bind)

	assert.Equal(t, 2, v.NumFaces())
	assert.Equal(t, 8, v.NumCorners())
	// corner 1 (face 0, vertex 1) and corner 4 (face 1, vertex 1) share texcoord 1.
	assert.Equal(t, []int{4}, v.Coincident(1))
	p, ok := v.Position(2)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.X)
	assert.Equal(t, float64(m.UVs[5][0]), v.UV(6).X)
}

func TestMesh_TopologyErrors(t *testing.T) {
	m := quadStrip()
	m.Tris[1].TI[2] = 40
	_, _, err := m.Topology(nil)
	assert.True(t, errors.Is(err, ErrIndex), "got %v", err)

	m = quadStrip()
	m.Tris[0].VI[0] = -1
	_, _, err = m.Topology(nil)
	assert.True(t, errors.Is(err, ErrIndex), "got %v", err)

	m = quadStrip()
	m.Tris[0].Polygon = 5
	_, _, err = m.Topology(nil)
	assert.Error(t, err)

	m = quadStrip()
	_, _, err = m.Topology(make([]r3.Vector, 2))
	assert.Error(t, err)
}

func TestBinding_SplitsSharedTexcoords(t *testing.T) {
	m := Mesh{
		Verts: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Nodes: make([]int16, 4),
		UVs:   [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Tris: []Triangle{
			{Polygon: 3, VI: [4]int16{0, 1, 2}, TI: [4]int16{0, 1, 2}},
			{Polygon: 3, VI: [4]int16{0, 2, 3}, TI: [4]int16{0, 2, 3}},
		},
	}
	v, bind, err := m.Topology(nil)
	require.NoError(t, err)
	require.Equal(t, []int{3}, v.Coincident(0))

	// only the second triangle's corner at vertex 0 moves.
	bind.SetCornerUV(3, r2.Point{X: 9, Y: 9})
	added, err := bind.Finish()
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, [2]float32{0, 0}, m.UVs[0])
	assert.Equal(t, [2]float32{9, 9}, m.UVs[4])
	assert.Equal(t, int16(0), m.Tris[0].TI[0])
	assert.Equal(t, int16(4), m.Tris[1].TI[0])
	assert.Zero(t, bind.Pending())

	// both corners agree again: slot 0 takes the value, nothing is added.
	bind.SetCornerUV(0, r2.Point{X: 5, Y: 5})
	bind.SetCornerUV(3, r2.Point{X: 5, Y: 5})
	added, err = bind.Finish()
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, [2]float32{5, 5}, m.UVs[0])
	assert.Equal(t, [2]float32{5, 5}, m.UVs[4])
}

func TestMesh_UnrollThroughBinding(t *testing.T) {
	model := sampleModel()
	mesh := &model.Meshes[0]
	v, bind, err := mesh.Topology(nil)
	require.NoError(t, err)
	islands := island.Detect(v)
	require.Len(t, islands, 1)

	_, n, err := gridmap.New(gridmap.DefaultOptions(), nil).Unroll(islands[0], bind)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	added, err := bind.Finish()
	require.NoError(t, err)
	assert.Zero(t, added)

	// vertex 3 wins the origin tie against vertex 2, so rows run along 3-4-5.
	origin := mesh.UVs[3]
	want := map[int][2]float64{3: {0, 0}, 0: {1, 0}, 4: {0, 1}, 1: {1, 1}, 5: {0, 2}, 2: {1, 2}}
	for vi, off := range want {
		got := mesh.UVs[vi]
		assert.InDelta(t, off[0], float64(got[0]-origin[0]), 1e-5, "vertex %d u", vi)
		assert.InDelta(t, off[1], float64(got[1]-origin[1]), 1e-5, "vertex %d v", vi)
	}

	var buf bytes.Buffer
	require.NoError(t, Codec{}.Encode(&buf, model, 12))
	back, err := Codec{}.Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, mesh.UVs, back.Meshes[0].UVs)
}

func TestModel_NumCorners(t *testing.T) {
	assert.Equal(t, 8, sampleModel().NumCorners())
}
