package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/KaramelBytes/skatelens-cli/internal/log"
)

// ErrNotDir is returned when the event root or folder is not a directory.
var ErrNotDir = errors.New("not a directory")

// Folder is one event's dataset bundle.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Datasets maps lowercase file stem to its table.
type Datasets map[string]*Table

// Get returns the table for stem, or nil.
func (d Datasets) Get(stem string) *Table {
	if d == nil {
		return nil
	}
	return d[stem]
}

// Warning records a file that could not be loaded.
type Warning struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

func (w Warning) String() string { return fmt.Sprintf("Could not load %s: %s", w.File, w.Err) }

// ListAvailableEvents returns the immediate subdirectories of root, sorted by name.
func ListAvailableEvents(root string) ([]Folder, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat data root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", root, ErrNotDir)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read data root: %w", err)
	}
	var out []Folder
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if !e.IsDir() && !isDirLink(e, path) {
			continue
		}
		out = append(out, Folder{Name: e.Name(), Path: path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// isDirLink reports whether e is a symlink that resolves to a directory.
func isDirLink(e fs.DirEntry, path string) bool {
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// LoadDatasetsFromFolder reads every supported file in folder. Files that fail
// to parse are skipped and reported as warnings; only an unreadable folder is
// an error.
func LoadDatasetsFromFolder(folder string) (Datasets, []Warning, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, nil, fmt.Errorf("read event folder: %w", err)
	}
	logger := log.Named("dataset")
	out := Datasets{}
	var warnings []Warning
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := readerFor(e.Name()); !ok {
			continue
		}
		path := filepath.Join(folder, e.Name())
		t, err := ReadFile(path)
		if err != nil {
			w := Warning{File: e.Name(), Err: err.Error()}
			warnings = append(warnings, w)
			logger.Warn("skipping dataset file", zap.String("file", path), zap.Error(err))
			continue
		}
		// later files with the same stem (e.g. laps.csv and laps.xlsx) do not
		// override the first one read
		if _, dup := out[t.Name]; dup {
			logger.Debug("duplicate dataset stem ignored", zap.String("file", path))
			continue
		}
		out[t.Name] = t
	}
	logger.Debug("loaded event folder", zap.String("folder", folder), zap.Int("tables", len(out)))
	return out, warnings, nil
}
