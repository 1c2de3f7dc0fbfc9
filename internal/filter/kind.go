// Package filter classifies BMD meshes by what they draw so that overlays
// can be left out of an unroll run.
package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"mu-bmd-unroll/internal/bmd"
)

// Kind is the role of a mesh inside a model.
type Kind int

const (
	// Geometry is ordinary textured surface.
	Geometry Kind = iota
	// Effect is a glow, flare or similar additive overlay.
	Effect
	// Body is a character skin or hair mesh shipped inside an equipment model.
	Body
)

func (k Kind) String() string {
	switch k {
	case Effect:
		return "effect"
	case Body:
		return "body"
	}
	return "geometry"
}

var gradientEffectRE = regexp.MustCompile(`^(?:mini_|hangul)?gra(?:\d|_|$)`)

var effectPatterns = []string{
	"glow", "flare", "chrome", "effect",
	"aura", "shiny", "spark", "fire", "blur",
	"elec_light", "arrowlight", "lighting_mega", "pin_star",
	"lightmarks", "light_blue", "light_red",
	"energy", "plasma", "shine", "halo", "trail",
	"gradation", "sdblight", "alpha_line", "4x4", "damage",
	"ground_wind", "ground_star", "line_of_big",
	"force", "runeset",
	"shockwave", "swordeff",
	"cursorpin", "empact", "circle_shield",
	"arrowbom", "raypiece",
}

// "flame" only counts as a prefix: "requitalbox_flame_wood" is a wooden frame.
var effectPrefixPatterns = []string{"flame"}

var bodyTextureRE = regexp.MustCompile(`(?i)^(?:` +
	`hqskin(?:2)?(?:_)?class\d+` +
	`|skinclass\d+head` +
	`|nude_` +
	`|item\d+_head` +
	`|skin_(?:barbarian|warrior|class)` +
	`|level_man\d+` +
	`|(?:hq)?hair_r` +
	`|cobraset_hair` +
	`|tknight_hair` +
	`)`)

// billboardSpan is the largest extent a tiny mesh may have and still count
// as an effect billboard.
const billboardSpan = 20

// Classify returns the kind of m, judged by its texture name and, for tiny
// meshes, its size.
func Classify(m *bmd.Mesh) Kind {
	stem := textureStem(m.TexPath)
	if bodyTextureRE.MatchString(stem) {
		return Body
	}
	if isEffectTexture(stem) || isBillboard(m) {
		return Effect
	}
	return Geometry
}

func textureStem(texPath string) string {
	base := filepath.Base(strings.ReplaceAll(strings.ToLower(texPath), "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isEffectTexture(stem string) bool {
	if gradientEffectRE.MatchString(stem) {
		return true
	}
	for _, p := range effectPatterns {
		if strings.Contains(stem, p) {
			return true
		}
	}
	for _, p := range effectPrefixPatterns {
		if strings.HasPrefix(stem, p) {
			return true
		}
	}
	return false
}

// isBillboard reports meshes of at most 8 vertices and 4 faces that span no
// more than billboardSpan units.
func isBillboard(m *bmd.Mesh) bool {
	nv, nt := len(m.Verts), len(m.Tris)
	if nv == 0 || nv > 8 || nt > 4 {
		return false
	}
	lo, hi := m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	for k := 0; k < 3; k++ {
		if hi[k]-lo[k] > billboardSpan {
			return false
		}
	}
	return true
}
