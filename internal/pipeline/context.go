// Package pipeline runs render requests end to end: morph, fit, pose,
// skin and rasterize, one skeleton copy per pose.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"mh-pose-renderer/internal/mesh"
	"mh-pose-renderer/internal/skeleton"
	"mh-pose-renderer/internal/targets"
)

// ErrNoImages is returned when a request renders nothing.
var ErrNoImages = errors.New("pipeline: no images rendered")

// Data is the read-only state shared by every request.
type Data struct {
	Mesh     *mesh.Mesh
	Library  *targets.Library
	Skeleton *skeleton.Skeleton
}

// Loader produces Data. It runs at most once per Context lifetime
// (until Reset).
type Loader func() (*Data, error)

// Sources names the on-disk inputs of FileLoader.
type Sources struct {
	BaseMesh string
	Targets  string
	Rig      string // optional; empty or missing renders unposed
}

// FileLoader reads the base mesh, scans targets and loads the rig.
func FileLoader(src Sources, log *zap.Logger) Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return func() (*Data, error) {
		if _, err := os.Stat(src.BaseMesh); err != nil {
			return nil, fmt.Errorf("pipeline: base mesh %s: %w", src.BaseMesh, targets.ErrDataNotFound)
		}
		m, err := mesh.LoadOBJ(src.BaseMesh)
		if err != nil {
			return nil, err
		}
		lib, err := targets.Scan(src.Targets)
		if err != nil {
			return nil, err
		}
		if bad := lib.Invalid(len(m.Vertices)); len(bad) > 0 {
			log.Warn("targets reference vertices past the base mesh", zap.Int("count", len(bad)), zap.Strings("targets", bad))
		}

		var skel *skeleton.Skeleton
		if src.Rig != "" {
			if _, statErr := os.Stat(src.Rig); statErr == nil {
				if skel, err = skeleton.Load(src.Rig, m); err != nil {
					return nil, err
				}
			} else {
				log.Warn("rig not found; poses will not deform the mesh", zap.String("rig", src.Rig))
			}
		}
		if skel == nil {
			if skel, err = skeleton.Build("empty", nil, nil, nil, m); err != nil {
				return nil, err
			}
		}

		log.Info("data loaded",
			zap.Int("vertices", len(m.Vertices)),
			zap.Int("faces", len(m.Faces)),
			zap.Int("targets", lib.Len()),
			zap.Int("bones", len(skel.Bones)))
		return &Data{Mesh: m, Library: lib, Skeleton: skel}, nil
	}
}

// StaticLoader returns d as is. Used to inject fixtures.
func StaticLoader(d *Data) Loader {
	return func() (*Data, error) { return d, nil }
}

// Options are per-process render settings.
type Options struct {
	Workers          int
	Supersample      int
	GenitalThreshold float64
	// GenitalGroups defaults to mesh.GroupGenitals.
	GenitalGroups []string
}

// Context owns the lazily loaded Data. Safe for concurrent use.
type Context struct {
	opts Options
	log  *zap.Logger
	load Loader

	mu   sync.Mutex
	data atomic.Pointer[Data]
}

// NewContext returns a Context that will call load on first use.
func NewContext(load Loader, opts Options, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	if len(opts.GenitalGroups) == 0 {
		opts.GenitalGroups = []string{mesh.GroupGenitals}
	}
	return &Context{opts: opts, log: log, load: load}
}

// Data returns the shared state, loading it on first call. Concurrent
// first callers block on one load; a failed load is retried next call.
func (c *Context) Data() (*Data, error) {
	if d := c.data.Load(); d != nil {
		return d, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if d := c.data.Load(); d != nil {
		return d, nil
	}
	d, err := c.load()
	if err != nil {
		return nil, err
	}
	c.data.Store(d)
	return d, nil
}

// Reset drops the loaded state so the next call reloads.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Store(nil)
}

// renderGroups is the face allow-list for a body with the given gender.
func (c *Context) renderGroups(gender float64) []string {
	groups := append([]string(nil), mesh.RenderGroups...)
	if t := c.opts.GenitalThreshold; t > 0 && gender >= t {
		groups = append(groups, c.opts.GenitalGroups...)
	}
	return groups
}
