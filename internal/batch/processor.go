// Package batch unrolls many BMD files with a worker pool and writes the
// rewritten models, optional baked textures and previews, and a report.
package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mu-bmd-unroll/internal/bmd"
	"mu-bmd-unroll/internal/filter"
	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/preview"
	"mu-bmd-unroll/internal/raster"
	"mu-bmd-unroll/internal/skeleton"
	"mu-bmd-unroll/internal/texture"
	"mu-bmd-unroll/internal/unroll"
	"mu-bmd-unroll/internal/uvmesh"
)

// ErrNameClash is returned when two inputs would write the same output files.
var ErrNameClash = errors.New("batch: inputs share an output name")

// Config holds all shared resources for a batch run.
type Config struct {
	OutputDir     string
	Codec         bmd.Codec
	OutputVersion int // 0 keeps each file's version
	Mapper        *gridmap.Mapper
	TexResolver   texture.Resolver // nil disables bake and texture backgrounds
	Preview       preview.Format
	PreviewSize   int
	Supersample   int
	Bake          bool
	BakePadding   int
	Meshes        []int // mesh indices to unroll; empty means all
	SkipOverlays  bool  // leave effect and body meshes alone
	Faces         []int // triangle indices selected per mesh; empty means all
	Workers       int
	Progress      time.Duration // progress log interval; 0 means 2s
	Log           *zap.Logger
}

// Result holds the outcome of processing one file.
type Result struct {
	File      string   `json:"file"`
	Output    string   `json:"output,omitempty"`
	Previews  []string `json:"previews,omitempty"`
	Textures  []string `json:"textures,omitempty"`
	Meshes    int      `json:"meshes"`
	Texcoords int      `json:"texcoords_added"`
	Bytes     int64    `json:"bytes"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`

	Report *unroll.Report `json:"report,omitempty"`
}

// Run processes all files using a worker pool. Results are in file order.
func Run(cfg Config, files []string) []Result {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Progress <= 0 {
		cfg.Progress = 2 * time.Second
	}
	total := len(files)
	results := make([]Result, total)
	var processed, bytesRead atomic.Int64

	// Outputs are named by stem; a later input with a taken stem is refused
	// so no two workers write the same file.
	clash := make([]bool, total)
	owner := make(map[string]string)
	for i, f := range files {
		key := strings.ToLower(outputStem(f))
		if first, ok := owner[key]; ok {
			clash[i] = true
			results[i] = Result{File: f, Error: errors.Wrapf(ErrNameClash, "%s already writes %s", first, outputStem(f)).Error()}
			cfg.Log.Warn("input skipped", zap.String("file", f), zap.String("clashes_with", first))
			continue
		}
		owner[key] = f
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Progress)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					cfg.Log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.String("rate", fmt.Sprintf("%.1f files/sec", float64(p)/elapsed)),
						zap.String("read", humanize.Bytes(uint64(bytesRead.Load()))),
					)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, files[idx])
				bytesRead.Add(results[idx].Bytes)
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range files {
		if !clash[i] {
			fileChan <- i
		}
	}
	close(fileChan)

	wg.Wait()
	close(done)

	cfg.Log.Info("batch finished",
		zap.Int("files", total),
		zap.String("read", humanize.Bytes(uint64(bytesRead.Load()))),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}

// object is one mesh prepared for unrolling.
type object struct {
	index  int
	mesh   *bmd.Mesh
	view   *uvmesh.View
	bind   *bmd.Binding
	before [][]r2.Point // face corner UVs before the run
}

func processFile(cfg Config, path string) (res Result) {
	res = Result{File: path}
	log := cfg.Log.With(zap.String("file", path))
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Error = fmt.Sprintf("panic: %v", r)
			log.Error("file aborted", zap.Any("panic", r))
		}
	}()

	if st, err := os.Stat(path); err == nil {
		res.Bytes = st.Size()
	}
	model, err := cfg.Codec.Parse(path)
	if err != nil {
		res.Error = err.Error()
		log.Warn("parse failed", zap.Error(err))
		return res
	}
	res.Meshes = len(model.Meshes)
	if len(model.Meshes) == 0 {
		res.Error = "no meshes in BMD"
		return res
	}

	stem := outputStem(path)
	objs, uobjs, rep := prepare(cfg, model, stem, log)

	u := unroll.New(cfg.Mapper, log)
	rep.Merge(u.Run(uobjs))
	res.Report = rep

	for _, o := range objs {
		added, err := o.bind.Finish()
		if err != nil {
			res.Error = errors.Wrapf(err, "mesh %d", o.index).Error()
			log.Warn("rebind failed", zap.Int("mesh", o.index), zap.Error(err))
			return res
		}
		res.Texcoords += added
	}

	// extras first: a model is only written when everything else succeeded.
	for _, o := range objs {
		if err := writeExtras(cfg, &res, stem, o, rep); err != nil {
			res.Error = err.Error()
			log.Warn("extras failed", zap.Int("mesh", o.index), zap.Error(err))
			return res
		}
	}

	output := filepath.Join(cfg.OutputDir, stem+".bmd")
	if err := cfg.Codec.Save(output, model, cfg.OutputVersion); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = output

	res.Success = true
	log.Debug("file done",
		zap.Int("mapped", rep.Mapped),
		zap.Int("failed", rep.Failed),
		zap.Int("texcoords_added", res.Texcoords),
	)
	return res
}

// prepare builds one unroll object per selected mesh. Meshes whose
// topology cannot be built are recorded in the returned report.
func prepare(cfg Config, model *bmd.Model, stem string, log *zap.Logger) ([]object, []unroll.Object, *unroll.Report) {
	rep := &unroll.Report{}
	poses := skeleton.ModelPose(model)

	indices := cfg.Meshes
	if len(indices) == 0 {
		indices = make([]int, len(model.Meshes))
		for i := range indices {
			indices[i] = i
		}
	}

	var objs []object
	var uobjs []unroll.Object
	for _, i := range indices {
		name := meshName(stem, i)
		if i < 0 || i >= len(model.Meshes) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: model has %d meshes", name, len(model.Meshes)))
			continue
		}
		mesh := &model.Meshes[i]
		if kind := filter.Classify(mesh); cfg.SkipOverlays && kind != filter.Geometry {
			rep.Skipped = append(rep.Skipped, name)
			log.Debug("overlay mesh skipped", zap.String("object", name), zap.Stringer("kind", kind))
			continue
		}
		view, bind, err := mesh.Topology(poses[i])
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}

		sel := uvmesh.NewSelection(view)
		if len(cfg.Faces) == 0 {
			sel = sel.Apply(sel.SelectAll())
		} else {
			sel = sel.Apply(sel.SelectFaces(view, cfg.Faces, true))
		}

		objs = append(objs, object{index: i, mesh: mesh, view: view, bind: bind, before: faceUVs(view)})
		uobjs = append(uobjs, unroll.Object{Name: name, View: view, Selection: sel, Sink: bind})
	}
	return objs, uobjs, rep
}

func meshName(stem string, i int) string {
	return fmt.Sprintf("%s/mesh%d", stem, i)
}

func faceUVs(v *uvmesh.View) [][]r2.Point {
	out := make([][]r2.Point, v.NumFaces())
	for f := range out {
		for _, c := range v.FaceCorners(f) {
			out[f] = append(out[f], v.UV(c))
		}
	}
	return out
}

// writeExtras writes the baked texture and the preview of one mesh.
func writeExtras(cfg Config, res *Result, stem string, o object, rep *unroll.Report) error {
	var src, baked *image.NRGBA
	if cfg.TexResolver != nil {
		src = cfg.TexResolver.Resolve(o.mesh.TexPath)
	}
	after := faceUVs(o.view)

	if cfg.Bake && src != nil {
		faces := make([]raster.Face, len(after))
		for f := range after {
			faces[f] = raster.Face{Src: o.before[f], Dst: after[f]}
		}
		baked = raster.Bake(src, faces, src.Rect.Size(), cfg.BakePadding)
		texStem := strings.TrimSuffix(filepath.Base(o.mesh.TexPath), filepath.Ext(o.mesh.TexPath))
		p := filepath.Join(cfg.OutputDir, "textures", fmt.Sprintf("%s_mesh%d_%s.tga", stem, o.index, texStem))
		if err := preview.Save(p, baked, preview.FormatTGA); err != nil {
			return err
		}
		res.Textures = append(res.Textures, p)
	}

	if cfg.Preview == preview.FormatNone || cfg.Preview == "" {
		return nil
	}
	layout := preview.Layout{Faces: make([]preview.Outline, len(after))}
	for f, uv := range after {
		layout.Faces[f] = preview.Outline{UV: uv}
	}
	name := meshName(stem, o.index)
	for _, isl := range rep.Islands {
		if isl.Object != name {
			continue
		}
		state := preview.Failed
		if isl.Mapped() {
			state = preview.Mapped
		}
		var sum r2.Point
		n := 0
		for _, f := range isl.Members {
			layout.Faces[f].State = state
			for _, p := range after[f] {
				sum = sum.Add(p)
				n++
			}
		}
		if n > 0 {
			layout.Labels = append(layout.Labels, preview.Label{At: sum.Mul(1 / float64(n)), Text: fmt.Sprintf("#%d", isl.Island)})
		}
	}
	if baked != nil {
		layout.Background = baked
	} else if src != nil {
		layout.Background = src
	}

	img, err := preview.Render(layout, preview.Options{Size: cfg.PreviewSize, Supersample: cfg.Supersample})
	if err != nil {
		return err
	}
	p := filepath.Join(cfg.OutputDir, "previews", fmt.Sprintf("%s_mesh%d%s", stem, o.index, cfg.Preview.Ext()))
	if err := preview.Save(p, img, cfg.Preview); err != nil {
		return err
	}
	res.Previews = append(res.Previews, p)
	return nil
}

// Collect expands paths into a sorted, de-duplicated list of .bmd files.
// Directories are walked recursively.
func Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	for _, root := range paths {
		st, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrapf(err, "batch: %s", root)
		}
		if !st.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".bmd") {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "batch: walk %s", root)
		}
	}
	sort.Strings(files)

	owner := make(map[string]string)
	for _, f := range files {
		key := strings.ToLower(outputStem(f))
		if first, ok := owner[key]; ok {
			return nil, errors.Wrapf(ErrNameClash, "%s and %s", first, f)
		}
		owner[key] = f
	}
	return files, nil
}

// outputStem names everything written for path.
func outputStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
