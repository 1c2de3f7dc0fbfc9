package bmd

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/crypto"
)

// Encode writes m to w as the given version (10, 12 or 15). A version of 0
// keeps the version the model was read with.
func (c Codec) Encode(w io.Writer, m *Model, version int) error {
	if version == 0 {
		version = m.Version
	}
	body, err := m.body()
	if err != nil {
		return err
	}

	var payload []byte
	switch version {
	case 10:
		payload = body
	case 12:
		payload = crypto.EncryptXOR(body)
	case 15:
		key, err := c.leaKey()
		if err != nil {
			return err
		}
		payload = crypto.EncryptLEA(body, key)
	default:
		return errors.Wrapf(ErrVersion, "%d", version)
	}

	hdr := []byte{'B', 'M', 'D', byte(version)}
	if version != 10 {
		hdr = binary.LittleEndian.AppendUint32(hdr, uint32(len(payload)))
	}
	if _, err := w.Write(hdr); err != nil {
		return errors.Wrap(err, "bmd: write header")
	}
	if _, err := w.Write(payload); err != nil {
		return errors.Wrap(err, "bmd: write body")
	}
	return nil
}

// Save encodes m into path, creating parent directories.
func (c Codec) Save(path string, m *Model, version int) error {
	var buf bytes.Buffer
	if err := c.Encode(&buf, m, version); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "bmd: create %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0644), "bmd: write %s", path)
}

type writer struct {
	buf bytes.Buffer
}

func (w *writer) str(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.buf.Write(b)
}

func (w *writer) i16(v int16) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(v)))
}

func (w *writer) f32(v float32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
}

func (m *Model) body() ([]byte, error) {
	if len(m.Meshes) > maxMeshes {
		return nil, errors.Errorf("bmd: %d meshes", len(m.Meshes))
	}
	w := &writer{}
	w.str(m.Name, 32)
	w.i16(int16(len(m.Meshes)))
	w.i16(int16(len(m.Bones)))
	w.i16(int16(m.Actions))

	for i := range m.Meshes {
		if err := w.mesh(&m.Meshes[i]); err != nil {
			return nil, errors.Wrapf(err, "mesh %d", i)
		}
	}
	w.buf.Write(m.tail)
	return w.buf.Bytes(), nil
}

func (w *writer) mesh(mesh *Mesh) error {
	if len(mesh.Nodes) != len(mesh.Verts) {
		return errors.Errorf("bmd: %d vertices, %d nodes", len(mesh.Verts), len(mesh.Nodes))
	}
	for _, n := range []int{len(mesh.Verts), len(mesh.Normals), len(mesh.UVs), len(mesh.Tris)} {
		if n > math.MaxInt16 {
			return errors.Errorf("bmd: section of %d records does not fit int16", n)
		}
	}
	w.i16(int16(len(mesh.Verts)))
	w.i16(int16(len(mesh.Normals)))
	w.i16(int16(len(mesh.UVs)))
	w.i16(int16(len(mesh.Tris)))
	w.i16(mesh.Texture)

	for j, v := range mesh.Verts {
		w.i16(mesh.Nodes[j])
		w.i16(0)
		w.f32(v[0])
		w.f32(v[1])
		w.f32(v[2])
	}
	for _, n := range mesh.Normals {
		w.i16(n.Node)
		w.i16(0)
		w.f32(n.Dir[0])
		w.f32(n.Dir[1])
		w.f32(n.Dir[2])
		w.i16(n.Bind)
		w.i16(0)
	}
	for _, uv := range mesh.UVs {
		w.f32(uv[0])
		w.f32(uv[1])
	}
	for _, t := range mesh.Tris {
		rec := t.encode()
		w.buf.Write(rec[:])
	}

	name := mesh.texName
	if name == "" {
		name = mesh.TexPath
	}
	w.str(name, 32)
	return nil
}

func (t Triangle) encode() [TriangleSize]byte {
	rec := t.raw
	rec[0] = byte(t.Polygon)
	for k := 0; k < 4; k++ {
		binary.LittleEndian.PutUint16(rec[2+k*2:], uint16(t.VI[k]))
		binary.LittleEndian.PutUint16(rec[10+k*2:], uint16(t.NI[k]))
		binary.LittleEndian.PutUint16(rec[18+k*2:], uint16(t.TI[k]))
	}
	return rec
}
