package targets

// Sliders are the macro body parameters, all normalized to [0,1].
// Age must already be normalized with NormalizeAge.
type Sliders struct {
	Age         float64
	Gender      float64
	Weight      float64
	Muscle      float64
	Height      float64
	BreastSize  float64
	Firmness    float64
	PenisLength float64
	PenisCirc   float64
	PenisTest   float64
}

// DefaultSliders returns the neutral body: 25 years old, every other
// slider centred.
func DefaultSliders() Sliders {
	return Sliders{
		Age:         NormalizeAge(25),
		Gender:      0.5,
		Weight:      0.5,
		Muscle:      0.5,
		Height:      0.5,
		BreastSize:  0.5,
		Firmness:    0.5,
		PenisLength: 0.5,
		PenisCirc:   0.5,
		PenisTest:   0.5,
	}
}

// NormalizeAge maps an age in years (1..90) onto [0,1].
func NormalizeAge(years float64) float64 {
	return clamp01((years - 1) / 89)
}

// Category is one named stop along a macro variable.
type Category struct {
	Tag string
	Pos float64
}

// Variable is a macro parameter and its ordered category stops.
type Variable struct {
	Name       string
	Categories []Category
	value      func(Sliders) float64
}

// Variables lists every macro variable. Category positions are ascending.
var Variables = []Variable{
	{"gender", []Category{{"female", 0}, {"male", 1}}, func(s Sliders) float64 { return s.Gender }},
	{"age", []Category{{"baby", 0}, {"child", 0.1875}, {"young", 0.5}, {"old", 1}}, func(s Sliders) float64 { return s.Age }},
	{"muscle", minAvgMax("muscle"), func(s Sliders) float64 { return s.Muscle }},
	{"weight", minAvgMax("weight"), func(s Sliders) float64 { return s.Weight }},
	{"height", minAvgMax("height"), func(s Sliders) float64 { return s.Height }},
	{"cup", minAvgMax("cup"), func(s Sliders) float64 { return s.BreastSize }},
	{"firmness", minAvgMax("firmness"), func(s Sliders) float64 { return s.Firmness }},
	{"penislength", minAvgMax("penislength"), func(s Sliders) float64 { return s.PenisLength }},
	{"peniscirc", minAvgMax("peniscirc"), func(s Sliders) float64 { return s.PenisCirc }},
	{"penistest", minAvgMax("penistest"), func(s Sliders) float64 { return s.PenisTest }},
}

func minAvgMax(suffix string) []Category {
	return []Category{{"min" + suffix, 0}, {"average" + suffix, 0.5}, {"max" + suffix, 1}}
}

// tagVariable maps a category tag to its index in Variables.
var tagVariable = func() map[string]int {
	m := map[string]int{}
	for vi, v := range Variables {
		for _, c := range v.Categories {
			m[c.Tag] = vi
		}
	}
	return m
}()

// Weights returns the weight of every category of v at value x. Between two
// stops the bracketing pair is linearly interpolated, so weights are
// continuous in x and sum to 1.
func (v Variable) Weights(x float64) map[string]float64 {
	cs := v.Categories
	w := make(map[string]float64, len(cs))
	for _, c := range cs {
		w[c.Tag] = 0
	}
	if len(cs) == 0 {
		return w
	}
	if x <= cs[0].Pos {
		w[cs[0].Tag] = 1
		return w
	}
	last := cs[len(cs)-1]
	if x >= last.Pos {
		w[last.Tag] = 1
		return w
	}
	for i := 0; i+1 < len(cs); i++ {
		lo, hi := cs[i], cs[i+1]
		if x >= lo.Pos && x <= hi.Pos {
			t := (x - lo.Pos) / (hi.Pos - lo.Pos)
			w[lo.Tag] = 1 - t
			w[hi.Tag] = t
			break
		}
	}
	return w
}

// CategoryWeights evaluates every variable at the slider values and returns
// a flat tag → weight table.
func CategoryWeights(s Sliders) map[string]float64 {
	out := map[string]float64{}
	for _, v := range Variables {
		for tag, w := range v.Weights(clamp01(v.value(s))) {
			out[tag] = w
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
