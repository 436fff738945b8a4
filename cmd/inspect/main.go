package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"mh-pose-renderer/internal/config"
	"mh-pose-renderer/internal/logger"
	"mh-pose-renderer/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config")
	dataDir := flag.String("data", "", "Data directory (default: auto-detect)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{DataDir: *dataDir})

	log := logger.New(logger.Options{Level: "warn", Console: true})
	d, err := pipeline.FileLoader(pipeline.Sources{
		BaseMesh: cfg.Data.BaseMesh,
		Targets:  cfg.Data.Targets,
		Rig:      cfg.Data.Rig,
	}, log)()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m := d.Mesh
	minV := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxV := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			minV[k] = math.Min(minV[k], float64(v[k]))
			maxV[k] = math.Max(maxV[k], float64(v[k]))
		}
	}
	fmt.Printf("Mesh: %s\n", cfg.Data.BaseMesh)
	fmt.Printf("  verts=%d, faces=%d\n", len(m.Vertices), len(m.Faces))
	fmt.Printf("  BBox: X[%.2f, %.2f] Y[%.2f, %.2f] Z[%.2f, %.2f]\n",
		minV[0], maxV[0], minV[1], maxV[1], minV[2], maxV[2])

	groups := map[string]int{}
	quads := 0
	for i, f := range m.Faces {
		groups[m.Groups[i]]++
		if len(f) == 4 {
			quads++
		}
	}
	fmt.Printf("  quads=%d, groups=%d\n", quads, len(groups))
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)
	for _, g := range names {
		fmt.Printf("    %-28s %d\n", g, groups[g])
	}

	fmt.Printf("Targets: %d under %s\n", d.Library.Len(), d.Library.Root)
	if bad := d.Library.Invalid(len(m.Vertices)); len(bad) > 0 {
		fmt.Printf("  out of range: %v\n", bad)
	}

	s := d.Skeleton
	fmt.Printf("Skeleton: %q, bones=%d\n", s.Name, len(s.Bones))
	covered := make([]bool, len(m.Vertices))
	for _, w := range s.Weights {
		for _, vi := range w.Indices {
			if vi >= 0 && vi < len(covered) {
				covered[vi] = true
			}
		}
	}
	n := 0
	for _, c := range covered {
		if c {
			n++
		}
	}
	fmt.Printf("  weighted verts=%d/%d\n", n, len(m.Vertices))
	for _, b := range s.Bones {
		fmt.Printf("    %-24s parent=%-20q len=%.3f\n", b.Name, s.ParentName(&b), b.Length())
	}
}
