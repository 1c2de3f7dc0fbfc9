package batch

import (
	"mu-bmd-unroll/internal/bmd"
	"mu-bmd-unroll/internal/filter"
	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/island"
	"mu-bmd-unroll/internal/skeleton"
)

// IslandInfo is the dry-run outcome for one island.
type IslandInfo struct {
	island.Summary
	Origin int     `json:"origin"`
	Rows   int     `json:"rows,omitempty"`
	Cols   int     `json:"cols,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Reason string  `json:"reason,omitempty"`
}

// MeshInfo describes one mesh of an inspected model.
type MeshInfo struct {
	Index     int          `json:"index"`
	Kind      string       `json:"kind"`
	Texture   string       `json:"texture"`
	Vertices  int          `json:"vertices"`
	Faces     int          `json:"faces"`
	Texcoords int          `json:"texcoords"`
	Islands   []IslandInfo `json:"islands,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Inspection describes a model and what an unroll would do to it.
type Inspection struct {
	File    string     `json:"file"`
	Name    string     `json:"name"`
	Version int        `json:"version"`
	Bones   int        `json:"bones"`
	Meshes  []MeshInfo `json:"meshes"`
}

// Inspect parses path and maps every island without writing anything.
func Inspect(codec bmd.Codec, mapper *gridmap.Mapper, path string) (*Inspection, error) {
	model, err := codec.Parse(path)
	if err != nil {
		return nil, err
	}
	out := &Inspection{File: path, Name: model.Name, Version: model.Version, Bones: len(model.Bones)}
	poses := skeleton.ModelPose(model)
	for i := range model.Meshes {
		mesh := &model.Meshes[i]
		info := MeshInfo{
			Index:     i,
			Kind:      filter.Classify(mesh).String(),
			Texture:   mesh.TexPath,
			Vertices:  len(mesh.Verts),
			Faces:     len(mesh.Tris),
			Texcoords: len(mesh.UVs),
		}
		view, _, err := mesh.Topology(poses[i])
		if err != nil {
			info.Error = err.Error()
			out.Meshes = append(out.Meshes, info)
			continue
		}
		for _, is := range island.Detect(view) {
			info.Islands = append(info.Islands, dryRun(mapper, is))
		}
		out.Meshes = append(out.Meshes, info)
	}
	return out, nil
}

func dryRun(mapper *gridmap.Mapper, is *island.Island) IslandInfo {
	info := IslandInfo{Summary: is.Summary(), Origin: -1}
	origin, err := is.Origin(mapper.Options().MaxSteps)
	if err != nil {
		info.Reason = err.Error()
		return info
	}
	info.Origin = origin
	g, err := mapper.Map(is, origin)
	if err != nil {
		info.Reason = err.Error()
		return info
	}
	info.Rows, info.Cols = g.Rows, g.Cols
	size := g.Size()
	info.Width, info.Height = size.X, size.Y
	return info
}
