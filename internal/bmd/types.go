package bmd

// TriangleSize is the on-disk size of one triangle record.
const TriangleSize = 64

// Triangle holds polygon type and index tuples into vertex/normal/texcoord arrays.
// Polygon == 4 means quad (corners 0-1-2-3 in cycle order).
type Triangle struct {
	Polygon int
	VI      [4]int16
	NI      [4]int16
	TI      [4]int16

	raw [TriangleSize]byte // full record, re-emitted with VI/NI/TI patched in
}

// Corners returns the number of corners the record describes.
func (t Triangle) Corners() int { return t.Polygon }

// Normal is one normal record.
type Normal struct {
	Node int16
	Dir  [3]float32
	Bind int16
}

// Mesh holds parsed geometry for one sub-mesh within a BMD file.
type Mesh struct {
	Texture int16 // texture index from the mesh header
	Verts   [][3]float32
	Nodes   []int16 // bone index per vertex
	Normals []Normal
	UVs     [][2]float32
	Tris    []Triangle
	TexPath string // texture reference with forward slashes (e.g. "data/sword04.jpg")

	texName string // texture reference as stored
}

// Bone holds bind-pose data for one bone in the skeleton hierarchy.
type Bone struct {
	Name         string
	Parent       int
	IsDummy      bool
	BindPosition [3]float64
	BindRotation [3]float64 // Euler XYZ radians
}

// Model is a decoded BMD file. The action and bone sections are kept as raw
// bytes so the model can be written back without loss.
type Model struct {
	Name    string
	Version int
	Meshes  []Mesh
	Bones   []Bone
	Actions int

	tail []byte
}

// NumCorners returns the number of face-corners over all meshes.
func (m *Model) NumCorners() int {
	n := 0
	for _, mesh := range m.Meshes {
		for _, t := range mesh.Tris {
			n += t.Polygon
		}
	}
	return n
}
