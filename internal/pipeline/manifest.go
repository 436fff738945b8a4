package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// ManifestEntry records one written output.
type ManifestEntry struct {
	Pose         int      `json:"pose"` // -1 for a grid
	Image        string   `json:"image"`
	Mesh         string   `json:"mesh,omitempty"`
	Painted      int      `json:"painted_faces"`
	Degenerate   int      `json:"degenerate_faces"`
	Unreferenced int      `json:"unreferenced_vertices"`
	UnknownBones []string `json:"unknown_bones,omitempty"`
}

// Manifest summarizes a request's outputs.
type Manifest struct {
	Mode    string          `json:"mode"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Targets int             `json:"active_targets"`
	Entries []ManifestEntry `json:"entries"`
}

// NewManifest fills per-pose stats from res. Image and mesh paths are
// left for the caller.
func NewManifest(res *Result, mode string, w, h int) Manifest {
	m := Manifest{Mode: mode, Width: w, Height: h, Targets: len(res.Factors)}
	for _, f := range res.Frames {
		m.Entries = append(m.Entries, ManifestEntry{
			Pose:         f.Index,
			Painted:      f.Raster.Painted,
			Degenerate:   f.Raster.Degenerate,
			Unreferenced: f.Skin.Unreferenced,
			UnknownBones: f.UnknownBones,
		})
	}
	return m
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
