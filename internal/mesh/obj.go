package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadOBJ reads a Wavefront OBJ file. Only v, vt, g and f records are
// consumed; normals, materials and smoothing groups are ignored.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("mesh: parse %s: %w", path, err)
	}
	return m, nil
}

// ParseOBJ decodes OBJ text. Face indices are converted from 1-based (or
// negative relative) to 0-based. A texture reference assigns that UV to the
// face vertex; later references to the same vertex overwrite earlier ones.
func ParseOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	var texcoords [][2]float32
	uvSet := map[int][2]float32{}
	group := "default"

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, [3]float32{float32(p[0]), float32(p[1]), float32(p[2])})

		case "vt":
			p, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			texcoords = append(texcoords, [2]float32{float32(p[0]), float32(p[1])})

		case "g":
			if len(fields) > 1 {
				group = fields[1]
			} else {
				group = "default"
			}

		case "f":
			face := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				parts := strings.Split(ref, "/")
				if parts[0] == "" {
					continue
				}
				vi, err := resolveIndex(parts[0], len(m.Vertices))
				if err != nil {
					return nil, fmt.Errorf("line %d: vertex %q: %w", lineNo, parts[0], err)
				}
				face = append(face, vi)

				if len(parts) > 1 && parts[1] != "" {
					ti, err := resolveIndex(parts[1], len(texcoords))
					if err == nil {
						uvSet[vi] = texcoords[ti]
					}
				}
			}
			m.Faces = append(m.Faces, face)
			m.Groups = append(m.Groups, group)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	m.UVs = make([][2]float32, len(m.Vertices))
	for vi, uv := range uvSet {
		m.UVs[vi] = uv
	}
	return m, nil
}

// resolveIndex converts an OBJ reference into a 0-based index in [0, n).
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i = n + i
	default:
		return 0, fmt.Errorf("index 0 is invalid")
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index out of range [0,%d)", n)
	}
	return i, nil
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
