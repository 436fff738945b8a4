package targets

import "mh-pose-renderer/internal/mesh"

// Factors maps target name to blend weight in [0,1]. Targets absent from the
// map contribute nothing.
type Factors map[string]float64

// Factor computes one target's weight: the product of the weights of the
// categories it is tagged with. Tags that are not categories are ignored;
// a target without any category tag is inactive.
func Factor(t *Target, weights map[string]float64) float64 {
	f := 1.0
	matched := false
	for _, tag := range t.Tags {
		if _, ok := tagVariable[tag]; !ok {
			continue
		}
		matched = true
		f *= weights[tag]
		if f == 0 {
			return 0
		}
	}
	if !matched {
		return 0
	}
	return f
}

// CalculateFactors derives the blend weight of every target in lib from the
// sliders. Zero weights are omitted. The result depends only on the inputs.
func CalculateFactors(lib *Library, s Sliders) Factors {
	weights := CategoryWeights(s)
	out := Factors{}
	for _, name := range lib.Names() {
		t, _ := lib.Get(name)
		if f := Factor(t, weights); f > 0 {
			out[name] = f
		}
	}
	return out
}

// SolveMesh returns base + Σ factor·delta over all targets, visiting targets
// in name order so identical inputs produce identical bits. Entries whose
// index falls outside base are skipped.
func SolveMesh(base mesh.Buffer, lib *Library, factors Factors) mesh.Buffer {
	n := len(base)
	acc := make([][3]float64, n)
	for i, p := range base {
		acc[i] = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	for _, name := range lib.Names() {
		f := factors[name]
		if f == 0 {
			continue
		}
		t, _ := lib.Get(name)
		for k, vi := range t.Indices {
			if vi < 0 || vi >= n {
				continue
			}
			d := t.Deltas[k]
			acc[vi][0] += f * float64(d[0])
			acc[vi][1] += f * float64(d[1])
			acc[vi][2] += f * float64(d[2])
		}
	}

	out := make(mesh.Buffer, n)
	for i, a := range acc {
		out[i] = [3]float32{float32(a[0]), float32(a[1]), float32(a[2])}
	}
	return out
}
