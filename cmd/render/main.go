package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"mh-pose-renderer/internal/config"
	"mh-pose-renderer/internal/encode"
	"mh-pose-renderer/internal/logger"
	"mh-pose-renderer/internal/pipeline"
	"mh-pose-renderer/internal/request"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config (default: ./"+config.FileName+" if present)")
	requestFile := flag.String("request", "-", "Render request JSON file, - for stdin")
	dataDir := flag.String("data", "", "Data directory with base mesh, targets and rig (default: auto-detect)")
	outputDir := flag.String("output", "", "Output directory (default: renders)")
	format := flag.String("format", "", "Image format: png, webp or tga")
	workers := flag.Int("workers", 0, "Poses rendered in parallel (default: NumCPU)")
	supersample := flag.Int("supersample", 0, "Render at N× resolution and downscale")
	exportJSON := flag.Bool("export", false, "Also write the shaped mesh and rig as export.json")
	glb := flag.Bool("glb", false, "Also write each posed mesh as .glb")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{
		DataDir:     *dataDir,
		OutputDir:   *outputDir,
		Format:      *format,
		Workers:     *workers,
		Supersample: *supersample,
		LogLevel:    *logLevel,
	})

	log := logger.Init(cfg.Logging.Level, cfg.Logging.File)
	defer func() { _ = log.Sync() }()

	if cfg.Data.Dir == "" {
		log.Error("cannot find data directory; use -data or data.dir in the config")
		os.Exit(1)
	}
	imgFormat, err := encode.ParseFormat(cfg.Output.Format)
	if err != nil {
		log.Error("bad output format", zap.Error(err))
		os.Exit(1)
	}

	raw, err := readRequest(*requestFile)
	if err != nil {
		log.Error("cannot read request", zap.String("file", *requestFile), zap.Error(err))
		os.Exit(1)
	}
	req, warnings := request.Decode(raw)
	for _, w := range warnings {
		log.Warn("request", zap.String("warning", w))
	}

	pc := pipeline.NewContext(
		pipeline.FileLoader(pipeline.Sources{
			BaseMesh: cfg.Data.BaseMesh,
			Targets:  cfg.Data.Targets,
			Rig:      cfg.Data.Rig,
		}, log),
		pipeline.Options{
			Workers:          cfg.Render.Workers,
			Supersample:      cfg.Render.Supersample,
			GenitalThreshold: cfg.Render.GenitalThreshold,
			GenitalGroups:    cfg.Render.GenitalGroups,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("Poses: %d, Mode: %s, Size: %dx%d, Workers: %d\n",
		len(req.Poses), req.Mode, req.Width, req.Height, cfg.Render.Workers)
	fmt.Printf("Output: %s\n", cfg.Output.Dir)
	fmt.Println("------------------------------------------------------------")
	start := time.Now()

	res, err := pc.Generate(ctx, req)
	if err != nil {
		log.Error("render failed", zap.Error(err))
		os.Exit(1)
	}

	manifest, err := writeOutputs(cfg.Output.Dir, imgFormat, req, res, *glb)
	if err != nil {
		log.Error("write failed", zap.Error(err))
		os.Exit(1)
	}

	if *exportJSON {
		payload, err := pc.Export(req.Sliders)
		if err != nil {
			log.Error("export failed", zap.Error(err))
			os.Exit(1)
		}
		if err := writeJSON(filepath.Join(cfg.Output.Dir, "export.json"), payload); err != nil {
			log.Error("export failed", zap.Error(err))
			os.Exit(1)
		}
	}

	if err := pipeline.WriteManifest(filepath.Join(cfg.Output.Dir, "manifest.json"), manifest); err != nil {
		log.Error("manifest failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", time.Since(start).Seconds())
	fmt.Printf("Images: %d\n", len(res.Images()))
}

func readRequest(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutputs writes one image per pose, or a single grid, and returns
// the manifest describing them.
func writeOutputs(dir string, f encode.Format, req request.Request, res *pipeline.Result, glb bool) (pipeline.Manifest, error) {
	m := pipeline.NewManifest(res, string(req.Mode), req.Width, req.Height)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return m, err
	}

	if res.Grid != nil {
		name := "grid" + f.Ext()
		if err := encode.WriteFile(filepath.Join(dir, name), res.Grid, f); err != nil {
			return m, err
		}
		m.Entries = append(m.Entries, pipeline.ManifestEntry{Pose: -1, Image: name})
	}

	for i, fr := range res.Frames {
		if res.Grid == nil {
			name := fmt.Sprintf("pose_%03d%s", fr.Index, f.Ext())
			if err := encode.WriteFile(filepath.Join(dir, name), fr.Image, f); err != nil {
				return m, err
			}
			m.Entries[i].Image = name
		}
		if glb {
			name := fmt.Sprintf("pose_%03d.glb", fr.Index)
			if err := encode.WriteGLBFile(filepath.Join(dir, name), res.MeshData(i)); err != nil {
				return m, err
			}
			m.Entries[i].Mesh = name
		}
	}
	return m, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
