package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mu-bmd-unroll/internal/bmd"
)

func big(tex string) *bmd.Mesh {
	m := &bmd.Mesh{TexPath: tex}
	for i := 0; i < 12; i++ {
		m.Verts = append(m.Verts, [3]float32{float32(i * 10), 0, 0})
	}
	return m
}

func TestClassify(t *testing.T) {
	tests := []struct {
		tex  string
		want Kind
	}{
		{"data/item/sword01.jpg", Geometry},
		{`Data\Item\Sword_Glow.ozj`, Effect},
		{"gra_01.tga", Effect},
		{"flame01.jpg", Effect},
		{"requitalbox_flame_wood.jpg", Geometry},
		{"HQSkinClass313.jpg", Body},
		{"hair_R.tga", Body},
		{"level_man022.jpg", Body},
	}
	for _, tt := range tests {
		t.Run(tt.tex, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(big(tt.tex)))
		})
	}
}

func TestClassify_Billboard(t *testing.T) {
	small := &bmd.Mesh{
		TexPath: "wing.jpg",
		Verts:   [][3]float32{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0}},
		Tris:    []bmd.Triangle{{Polygon: 4}},
	}
	assert.Equal(t, Effect, Classify(small))

	small.Verts[2] = [3]float32{10, 40, 0}
	assert.Equal(t, Geometry, Classify(small))
	assert.Equal(t, Geometry, Classify(&bmd.Mesh{TexPath: "empty.jpg"}))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "geometry", Geometry.String())
	assert.Equal(t, "effect", Effect.String())
	assert.Equal(t, "body", Body.String())
}
