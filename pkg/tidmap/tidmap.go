// Package tidmap maps Gliffy stencil type identifiers (TIDs) to replacement
// images.
//
// Gliffy shapes reference their stencil via a tid; some stencils (cloud
// icons, network gear) have no sensible Excalidraw counterpart and convert
// better as embedded images. The mapper is a plain key-value lookup backed
// by a JSON file plus an image directory; a missing mapping is a negative
// answer, never an error.
package tidmap

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Resolver answers image-substitution queries during conversion. Both
// methods are synchronous, side-effect-free lookups.
type Resolver interface {
	// ShouldUseImage reports whether shapes with this tid should be
	// replaced by an image.
	ShouldUseImage(tid string) bool

	// ImageBytes returns the replacement image for a tid, or nil when it
	// cannot be resolved.
	ImageBytes(tid string) []byte
}

// Entry is one mapping record.
type Entry struct {
	ImagePath   string `json:"image_path,omitempty"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// Mapper is a file-backed Resolver. The mapping file holds tid → Entry;
// relative image paths are resolved against the images directory.
type Mapper struct {
	mappingFile string
	imagesDir   string
	entries     map[string]Entry
}

// DefaultMappingFile is the conventional mapping file name.
const DefaultMappingFile = "tids_mapping.json"

// DefaultImagesDir is the conventional image directory name.
const DefaultImagesDir = "tid_images"

// Load reads a mapper from disk. A missing mapping file yields an empty
// mapper rather than an error; an unreadable one is reported.
func Load(mappingFile, imagesDir string) (*Mapper, error) {
	if mappingFile == "" {
		mappingFile = DefaultMappingFile
	}
	if imagesDir == "" {
		imagesDir = DefaultImagesDir
	}

	m := &Mapper{
		mappingFile: mappingFile,
		imagesDir:   imagesDir,
		entries:     map[string]Entry{},
	}

	data, err := os.ReadFile(mappingFile)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &m.entries); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes the mapping file.
func (m *Mapper) Save() error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.mappingFile, data, 0644)
}

// SetImage records an image for a tid and persists the mapping.
func (m *Mapper) SetImage(tid, imagePath, description string) error {
	e := m.entries[tid]
	e.ImagePath = imagePath
	if description != "" {
		e.Description = description
	}
	m.entries[tid] = e
	return m.Save()
}

// ShouldUseImage implements Resolver.
func (m *Mapper) ShouldUseImage(tid string) bool {
	return m.entries[tid].ImagePath != ""
}

// ImageBytes implements Resolver. Relative paths resolve against the image
// directory; any read failure is a negative result.
func (m *Mapper) ImageBytes(tid string) []byte {
	path := m.entries[tid].ImagePath
	if path == "" {
		return nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.imagesDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// Null is a Resolver that never substitutes images. Conversion without a
// mapper uses this.
type Null struct{}

// ShouldUseImage always reports false.
func (Null) ShouldUseImage(string) bool { return false }

// ImageBytes always returns nil.
func (Null) ImageBytes(string) []byte { return nil }

var (
	_ Resolver = (*Mapper)(nil)
	_ Resolver = Null{}
)
