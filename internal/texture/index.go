package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// rank orders formats for the same stem; lower wins. OZT beats OZJ because
// it carries alpha.
var rank = map[string]int{
	".ozt":  0,
	".tga":  1,
	".png":  2,
	".ozj":  3,
	".jpg":  4,
	".jpeg": 4,
	".bmp":  5,
}

// Supported reports whether ext (with dot, any case) is a loadable format.
func Supported(ext string) bool {
	_, ok := rank[strings.ToLower(ext)]
	return ok
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex walks every directory in dirs recursively. Missing directories
// are skipped. Earlier directories win over later ones for formats of equal
// rank.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}
	for _, dir := range dirs {
		filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			idx.Add(path)
			return nil
		})
	}
	return idx
}

// Add indexes one file. It reports whether the file became the entry for
// its stem.
func (idx *Index) Add(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := rank[ext]
	if !ok {
		return false
	}
	stem := stemOf(path)
	if existing, exists := idx.entries[stem]; exists {
		if r >= rank[strings.ToLower(filepath.Ext(existing))] {
			return false
		}
	}
	idx.entries[stem] = path
	return true
}

func stemOf(name string) string {
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	// Strip path prefix (e.g., "Monsters\\texture\\foo.jpg" → "foo")
	texName = strings.ReplaceAll(texName, "\\", "/")
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
