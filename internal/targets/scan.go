package targets

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Extension of target files picked up by Scan.
const Extension = ".target"

// Scan walks root once and parses every target file beneath it. The target
// name is its slash-separated path relative to root, without extension.
func Scan(root string) (*Library, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDataNotFound, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), Extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("targets: walk %s: %w", root, err)
	}

	parsed := make([]*Target, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			t, err := LoadFile(root, path)
			if err != nil {
				return err
			}
			parsed[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewLibrary(root, parsed), nil
}

// LoadFile parses one target file located under root.
func LoadFile(root, path string) (*Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("targets: open %s: %w", path, err)
	}
	defer f.Close()

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("targets: parse %s: %w", path, err)
	}
	t.Name = name
	t.Tags = TagsFor(name)
	return t, nil
}

// TagsFor derives category tags from a target name: the dash-separated
// tokens of the file stem plus the name of its parent directory.
func TagsFor(name string) []string {
	dir, stem := filepath.Split(filepath.FromSlash(name))
	tags := strings.Split(strings.ToLower(stem), "-")
	if dir = filepath.Base(filepath.Clean(dir)); dir != "." && dir != string(filepath.Separator) {
		tags = append(tags, strings.ToLower(dir))
	}
	return tags
}

// Parse reads "index dx dy dz" records. Blank lines and '#' comments are skipped.
func Parse(r io.Reader) (*Target, error) {
	t := &Target{}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", lineNo, len(fields))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: index: %w", lineNo, err)
		}
		var d [3]float32
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(fields[k+1], 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: delta: %w", lineNo, err)
			}
			d[k] = float32(v)
		}
		t.Indices = append(t.Indices, idx)
		t.Deltas = append(t.Deltas, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
