package request

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"mh-pose-renderer/internal/targets"
)

// Decode parses a JSON payload of the form
//
//	{"mesh": {...}, "export": {...}, "poses": [{"bones": {...}, "modelRotation": [...]}]}
//
// Unknown keys are ignored. Every value that cannot be used is replaced by
// its default and described in the returned warnings.
func Decode(data []byte) (Request, []string) {
	req := Default()
	d := &decoder{}

	var root map[string]any
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &root); err != nil {
			d.warnf("payload is not a JSON object (%v); using defaults", err)
			return req, d.warnings
		}
	}

	if m, ok := d.object(root, "mesh"); ok {
		d.mesh(m, &req)
	}
	if m, ok := d.object(root, "export"); ok {
		d.export(m, &req)
	}
	if v, ok := root["poses"]; ok {
		req.Poses = d.poses(v)
	}
	if len(req.Poses) == 0 {
		req.Poses = []Pose{{Bones: map[string][3]float64{}}}
	}
	return req, d.warnings
}

type decoder struct {
	warnings []string
}

func (d *decoder) warnf(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *decoder) object(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		d.warnf("%s: expected an object, got %T", key, v)
		return nil, false
	}
	return obj, true
}

// number reads m[key] into *dst when it is a finite number.
func (d *decoder) number(m map[string]any, key string, dst *float64) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		d.warnf("%s: expected a number, got %v", key, v)
		return false
	}
	*dst = f
	return true
}

func (d *decoder) mesh(m map[string]any, req *Request) {
	s := &req.Sliders
	if d.number(m, "age", &req.AgeYears) {
		s.Age = targets.NormalizeAge(req.AgeYears)
	}
	d.number(m, "gender", &s.Gender)
	d.number(m, "weight", &s.Weight)
	d.number(m, "muscle", &s.Muscle)
	d.number(m, "height", &s.Height)
	d.number(m, "breast_size", &s.BreastSize)
	d.number(m, "firmness", &s.Firmness)
	d.number(m, "penis_len", &s.PenisLength)
	d.number(m, "penis_circ", &s.PenisCirc)
	d.number(m, "penis_test", &s.PenisTest)
	// Older payloads carried a single genital slider; it drives length.
	d.number(m, "genital_size", &s.PenisLength)
}

func (d *decoder) export(m map[string]any, req *Request) {
	size := float64(DefaultViewSize)
	d.number(m, "view_size", &size)
	w, h := size, size
	d.number(m, "view_width", &w)
	d.number(m, "view_height", &h)
	req.Width = d.viewSize("view_width", w)
	req.Height = d.viewSize("view_height", h)

	if d.number(m, "cam_zoom", &req.Zoom) && req.Zoom <= 0 {
		d.warnf("cam_zoom: %v is not positive; using %v", req.Zoom, DefaultZoom)
		req.Zoom = DefaultZoom
	}

	if v, ok := m["output_mode"]; ok && v != nil {
		s, _ := v.(string)
		switch Mode(strings.ToUpper(s)) {
		case List:
			req.Mode = List
		case Grid:
			req.Mode = Grid
		default:
			d.warnf("output_mode: unknown mode %v; using %s", v, List)
		}
	}

	cols := float64(DefaultGridColumns)
	if d.number(m, "grid_columns", &cols) {
		switch {
		case cols < 1:
			d.warnf("grid_columns: %v is below 1; using 1", cols)
			cols = 1
		case cols > MaxGridColumns:
			d.warnf("grid_columns: %v exceeds %d; clamping", cols, MaxGridColumns)
			cols = MaxGridColumns
		}
		req.GridColumns = int(cols)
	}

	if v, ok := m["bg_color"]; ok && v != nil {
		if c, ok := d.color(v); ok {
			req.Background = c
		}
	}
}

// viewSize range-checks v as a float so huge values clamp instead of
// overflowing the int conversion.
func (d *decoder) viewSize(key string, v float64) int {
	switch {
	case v < 1:
		d.warnf("%s: %v is not a positive size; using %d", key, v, DefaultViewSize)
		return DefaultViewSize
	case v > MaxViewSize:
		d.warnf("%s: %v exceeds %d; clamping", key, v, MaxViewSize)
		return MaxViewSize
	}
	return int(v)
}

func (d *decoder) color(v any) (color.NRGBA, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) < 3 {
		d.warnf("bg_color: expected [r, g, b], got %v", v)
		return color.NRGBA{}, false
	}
	var ch [4]uint8
	ch[3] = 255
	for i := 0; i < len(arr) && i < 4; i++ {
		f, ok := arr[i].(float64)
		if !ok {
			d.warnf("bg_color: channel %d is not a number", i)
			return color.NRGBA{}, false
		}
		ch[i] = uint8(math.Max(0, math.Min(255, f)))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}

func (d *decoder) poses(v any) []Pose {
	arr, ok := v.([]any)
	if !ok {
		d.warnf("poses: expected an array, got %T", v)
		return nil
	}
	out := make([]Pose, 0, len(arr))
	for i, item := range arr {
		p := Pose{Bones: map[string][3]float64{}}
		obj, ok := item.(map[string]any)
		if !ok {
			if item != nil {
				d.warnf("poses[%d]: expected an object, got %T", i, item)
			}
			out = append(out, p)
			continue
		}
		if bones, ok := d.object(obj, "bones"); ok {
			names := make([]string, 0, len(bones))
			for name := range bones {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if r, ok := d.triple(fmt.Sprintf("poses[%d].bones.%s", i, name), bones[name]); ok {
					p.Bones[name] = r
				}
			}
		}
		if r, ok := obj["modelRotation"]; ok && r != nil {
			if t, ok := d.triple(fmt.Sprintf("poses[%d].modelRotation", i), r); ok {
				p.ModelRotation = t
			}
		}
		out = append(out, p)
	}
	return out
}

// triple reads up to three numbers; missing trailing components are zero.
func (d *decoder) triple(key string, v any) ([3]float64, bool) {
	var t [3]float64
	arr, ok := v.([]any)
	if !ok {
		d.warnf("%s: expected [x, y, z], got %v", key, v)
		return t, false
	}
	for i := 0; i < len(arr) && i < 3; i++ {
		f, ok := arr[i].(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			d.warnf("%s: component %d is not a number", key, i)
			return t, false
		}
		t[i] = f
	}
	return t, true
}
