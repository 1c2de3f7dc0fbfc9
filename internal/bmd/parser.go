// Package bmd reads and writes MU Online BMD model files.
package bmd

import (
	"encoding/binary"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/crypto"
)

var (
	// ErrHeader is returned for data that does not start with "BMD".
	ErrHeader = errors.New("bmd: invalid header")
	// ErrTruncated is returned when a section runs past the end of the data.
	ErrTruncated = errors.New("bmd: truncated data")
	// ErrVersion is returned for versions the codec cannot write.
	ErrVersion = errors.New("bmd: unsupported version")
	// ErrNoKey is returned for version 15 files when no LEA key is configured.
	ErrNoKey = errors.New("bmd: version 15 needs a lea key")
)

// maxMeshes guards against garbage headers.
const maxMeshes = 100

// Codec decodes and encodes BMD files. LEAKey is only needed for version 15.
type Codec struct {
	LEAKey []byte
}

func (c Codec) leaKey() ([32]byte, error) {
	var key [32]byte
	if len(c.LEAKey) != len(key) {
		return key, ErrNoKey
	}
	copy(key[:], c.LEAKey)
	return key, nil
}

// Parse reads a BMD file.
// Supports versions 10 (unencrypted), 12 (XOR), and 15 (LEA-256 ECB).
func (c Codec) Parse(filepath string) (*Model, error) {
	raw, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "bmd: read %s", filepath)
	}
	m, err := c.Decode(raw)
	if err != nil {
		return nil, errors.Wrap(err, filepath)
	}
	return m, nil
}

// Decode decodes a BMD file held in memory.
func (c Codec) Decode(raw []byte) (*Model, error) {
	if len(raw) < 4 || string(raw[:3]) != "BMD" {
		return nil, ErrHeader
	}

	version := int(raw[3])
	var data []byte

	switch version {
	case 15, 12:
		if len(raw) < 8 {
			return nil, errors.Wrapf(ErrTruncated, "v%d header", version)
		}
		size := binary.LittleEndian.Uint32(raw[4:8])
		if 8+int(size) > len(raw) {
			return nil, errors.Wrapf(ErrTruncated, "v%d data: %d bytes declared, %d present", version, size, len(raw)-8)
		}
		if version == 12 {
			data = crypto.DecryptXOR(raw[8 : 8+size])
			break
		}
		key, err := c.leaKey()
		if err != nil {
			return nil, err
		}
		data = crypto.DecryptLEA(raw[8:8+size], key)
	default:
		data = raw[4:]
	}

	r := &reader{data: data}
	m, err := r.parse()
	if err != nil {
		return nil, err
	}
	m.Version = version
	return m, nil
}

type reader struct {
	data  []byte
	off   int
	short bool
}

func (r *reader) take(n int) []byte {
	if r.off+n > len(r.data) {
		r.off = len(r.data)
		r.short = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) readStr(n int) string {
	s := r.take(n)
	// Find null terminator
	for i, b := range s {
		if b == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}

func (r *reader) readI16() int16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(b))
}

func (r *reader) readU16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) readF32() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *reader) readByte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) parse() (*Model, error) {
	m := &Model{Name: r.readStr(32)}
	meshCount := int(r.readU16())
	boneCount := int(r.readU16())
	m.Actions = int(r.readU16())

	if meshCount > maxMeshes {
		return nil, errors.Errorf("bmd: invalid mesh count %d", meshCount)
	}

	m.Meshes = make([]Mesh, 0, meshCount)
	for i := 0; i < meshCount; i++ {
		mesh, err := r.parseMesh()
		if err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
		m.Meshes = append(m.Meshes, mesh)
	}
	if r.short {
		return nil, errors.Wrap(ErrTruncated, "meshes")
	}

	m.tail = append([]byte(nil), r.data[r.off:]...)
	m.Bones = parseBones(m.tail, boneCount, m.Actions)
	return m, nil
}

func (r *reader) parseMesh() (Mesh, error) {
	nv := int(r.readI16())
	nn := int(r.readI16())
	ntc := int(r.readI16())
	nt := int(r.readI16())
	mesh := Mesh{Texture: r.readI16()}
	if nv < 0 || nn < 0 || ntc < 0 || nt < 0 {
		return mesh, errors.Errorf("bmd: negative counts v=%d n=%d tc=%d t=%d", nv, nn, ntc, nt)
	}

	// Vertices: 16 bytes each (node:i16, pad:i16, x:f32, y:f32, z:f32)
	mesh.Verts = make([][3]float32, nv)
	mesh.Nodes = make([]int16, nv)
	for j := 0; j < nv; j++ {
		mesh.Nodes[j] = r.readI16()
		_ = r.readI16() // padding
		mesh.Verts[j][0] = r.readF32()
		mesh.Verts[j][1] = r.readF32()
		mesh.Verts[j][2] = r.readF32()
	}

	// Normals: 20 bytes each (node:i16, pad:i16, nx:f32, ny:f32, nz:f32, bind:i16, pad:i16)
	mesh.Normals = make([]Normal, nn)
	for j := 0; j < nn; j++ {
		n := &mesh.Normals[j]
		n.Node = r.readI16()
		_ = r.readI16() // padding
		n.Dir[0] = r.readF32()
		n.Dir[1] = r.readF32()
		n.Dir[2] = r.readF32()
		n.Bind = r.readI16()
		_ = r.readI16() // padding
	}

	// TexCoords: 8 bytes each (u:f32, v:f32)
	mesh.UVs = make([][2]float32, ntc)
	for j := 0; j < ntc; j++ {
		mesh.UVs[j][0] = r.readF32()
		mesh.UVs[j][1] = r.readF32()
	}

	// Triangles: 64 bytes each
	mesh.Tris = make([]Triangle, nt)
	for j := 0; j < nt; j++ {
		rec := r.take(TriangleSize)
		if rec == nil {
			return mesh, errors.Wrapf(ErrTruncated, "triangle %d of %d", j, nt)
		}
		mesh.Tris[j] = decodeTriangle(rec)
	}

	mesh.texName = r.readStr(32)
	// Normalize backslashes
	mesh.TexPath = strings.ReplaceAll(mesh.texName, "\\", "/")
	return mesh, nil
}

func decodeTriangle(rec []byte) Triangle {
	t := Triangle{Polygon: int(rec[0])}
	copy(t.raw[:], rec)
	for k := 0; k < 4; k++ {
		t.VI[k] = int16(binary.LittleEndian.Uint16(rec[2+k*2:]))
		t.NI[k] = int16(binary.LittleEndian.Uint16(rec[10+k*2:]))
		t.TI[k] = int16(binary.LittleEndian.Uint16(rec[18+k*2:]))
	}
	return t
}

// parseBones reads the bind pose (action 0, key 0) of every bone from the
// action+bone section.
func parseBones(tail []byte, boneCount, actionCount int) []Bone {
	r := &reader{data: tail}

	actionKeys := make([]int, actionCount)
	for a := 0; a < actionCount; a++ {
		numKeys := int(r.readI16())
		lockPos := r.readByte() > 0
		if lockPos {
			r.off += numKeys * 12 // skip float32 x,y,z per key
		}
		actionKeys[a] = numKeys
	}

	bones := make([]Bone, 0, boneCount)
	for b := 0; b < boneCount && !r.short; b++ {
		isDummy := r.readByte() > 0
		if isDummy {
			bones = append(bones, Bone{Parent: -1, IsDummy: true})
			continue
		}

		bone := Bone{Name: r.readStr(32), Parent: int(r.readI16())}
		for a := 0; a < actionCount; a++ {
			numKeys := actionKeys[a]
			// Positions: numKeys × (x, y, z) float32
			for k := 0; k < numKeys; k++ {
				p := [3]float64{float64(r.readF32()), float64(r.readF32()), float64(r.readF32())}
				if a == 0 && k == 0 {
					bone.BindPosition = p
				}
			}
			// Rotations: numKeys × (rx, ry, rz) float32
			for k := 0; k < numKeys; k++ {
				rot := [3]float64{float64(r.readF32()), float64(r.readF32()), float64(r.readF32())}
				if a == 0 && k == 0 {
					bone.BindRotation = rot
				}
			}
		}
		bones = append(bones, bone)
	}
	return bones
}
