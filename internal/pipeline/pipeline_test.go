package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mh-pose-renderer/internal/encode"
	"mh-pose-renderer/internal/mesh"
	"mh-pose-renderer/internal/request"
	"mh-pose-renderer/internal/skeleton"
	"mh-pose-renderer/internal/targets"
)

// fixture is a two-bone column: a lower body quad on "root", an upper quad
// reaching into "upper", plus one hair and one genital face.
func fixture(t *testing.T) *Data {
	t.Helper()
	m := &mesh.Mesh{
		Vertices: mesh.Buffer{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{0, 2, 0}, {1, 2, 0}, {5, 5, 5}, {0.5, -1, 0},
		},
		Faces:  [][]int{{0, 1, 2, 3}, {3, 2, 5, 4}, {4, 5, 6}, {0, 1, 7}},
		Groups: []string{"body", "body", "helper-hair", mesh.GroupGenitals},
		UVs:    make([][2]float32, 8),
	}
	lib := targets.NewLibrary("mem", []*targets.Target{
		{Name: "male", Tags: []string{"male"}, Indices: []int{0}, Deltas: [][3]float32{{0, -0.5, 0}}},
	})
	defs := []skeleton.BoneDef{
		{Name: "root", Head: "j0", Tail: "j1"},
		{Name: "upper", Parent: "root", Head: "j1", Tail: "j2"},
	}
	joints := map[string][]int{"j0": {0, 1}, "j1": {2, 3}, "j2": {4, 5}}
	weights := map[string]skeleton.BoneWeights{
		"root":  {Indices: []int{0, 1, 2, 3, 6, 7}, Weights: []float32{1, 1, 1, 1, 1, 1}},
		"upper": {Indices: []int{4, 5}, Weights: []float32{1, 1}},
	}
	skel, err := skeleton.Build("fixture", defs, joints, weights, m)
	require.NoError(t, err)
	return &Data{Mesh: m, Library: lib, Skeleton: skel}
}

func newTestContext(t *testing.T, opts Options) (*Context, *Data) {
	d := fixture(t)
	return NewContext(StaticLoader(d), opts, nil), d
}

func baseRequest(poses ...request.Pose) request.Request {
	req := request.Default()
	req.Width, req.Height = 48, 32
	if len(poses) > 0 {
		req.Poses = poses
	}
	return req
}

var (
	restPose  = request.Pose{Bones: map[string][3]float64{}}
	bentPose  = request.Pose{Bones: map[string][3]float64{"upper": {0, 0, 60}, "ghost": {1, 2, 3}}}
	turnPose  = request.Pose{Bones: map[string][3]float64{}, ModelRotation: [3]float64{0, 45, 0}}
	threePose = []request.Pose{restPose, bentPose, turnPose}
)

func TestGenerateListKeepsPoseOrder(t *testing.T) {
	c, _ := newTestContext(t, Options{Workers: 3})
	res, err := c.Generate(context.Background(), baseRequest(threePose...))
	require.NoError(t, err)
	require.Len(t, res.Frames, 3)
	assert.Nil(t, res.Grid)
	assert.Len(t, res.Images(), 3)

	for i, f := range res.Frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, 48, f.Image.Bounds().Dx())
		assert.Equal(t, 32, f.Image.Bounds().Dy())
		assert.Equal(t, 2, f.Raster.Painted, "hair and genitals are filtered out")
	}
	assert.Equal(t, []string{"ghost"}, res.Frames[1].UnknownBones)

	// Each frame matches the same pose rendered on its own.
	for i, p := range threePose {
		solo, err := c.Generate(context.Background(), baseRequest(p))
		require.NoError(t, err)
		assert.Equal(t, solo.Frames[0].Image.Pix, res.Frames[i].Image.Pix, "pose %d", i)
	}
}

func TestGenerateRestPoseMatchesShapedMesh(t *testing.T) {
	c, d := newTestContext(t, Options{})
	res, err := c.Generate(context.Background(), baseRequest(restPose))
	require.NoError(t, err)

	shaped := targets.SolveMesh(d.Mesh.Vertices, d.Library, res.Factors)
	require.Len(t, res.Frames[0].Vertices, len(shaped))
	for i := range shaped {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, shaped[i][k], res.Frames[0].Vertices[i][k], 1e-5)
		}
	}
	assert.InDelta(t, 0.5, res.Factors["male"], 1e-12)
}

func TestGenerateDoesNotMutateSharedData(t *testing.T) {
	c, d := newTestContext(t, Options{Workers: 2})
	before := d.Mesh.Vertices.Clone()
	upper, _ := d.Skeleton.GetBone("upper")
	head := upper.Head

	_, err := c.Generate(context.Background(), baseRequest(threePose...))
	require.NoError(t, err)

	assert.Equal(t, before, d.Mesh.Vertices)
	upper, _ = d.Skeleton.GetBone("upper")
	assert.Equal(t, head, upper.Head)
	assert.True(t, upper.MatPose.IsIdentity())
}

func TestGenerateGrid(t *testing.T) {
	c, _ := newTestContext(t, Options{Workers: 2})
	req := baseRequest(threePose...)
	req.Mode = request.Grid
	req.GridColumns = 2

	res, err := c.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res.Grid)
	assert.Equal(t, 96, res.Grid.Bounds().Dx())
	assert.Equal(t, 64, res.Grid.Bounds().Dy())
	assert.Len(t, res.Images(), 1)
	assert.Equal(t, req.Background, res.Grid.NRGBAAt(48+24, 32+16), "empty cell")
}

func TestGenerateSupersample(t *testing.T) {
	c, _ := newTestContext(t, Options{Supersample: 3})
	res, err := c.Generate(context.Background(), baseRequest(restPose))
	require.NoError(t, err)
	assert.Equal(t, 48, res.Frames[0].Image.Bounds().Dx())
}

func TestGenerateNoPoses(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	req := baseRequest()
	req.Poses = nil
	_, err := c.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestGenerateCancelled(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, baseRequest(threePose...))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateRecoversPanics(t *testing.T) {
	d := fixture(t)
	d.Skeleton = nil
	c := NewContext(StaticLoader(d), Options{}, nil)
	_, err := c.Generate(context.Background(), baseRequest(restPose))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestContextLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	d := fixture(t)
	c := NewContext(func() (*Data, error) {
		calls.Add(1)
		return d, nil
	}, Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Data()
			assert.NoError(t, err)
			assert.Same(t, d, got)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	c.Reset()
	_, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestContextRetriesFailedLoad(t *testing.T) {
	fail := true
	boom := errors.New("disk on fire")
	d := fixture(t)
	c := NewContext(func() (*Data, error) {
		if fail {
			return nil, boom
		}
		return d, nil
	}, Options{}, nil)

	_, err := c.Data()
	assert.ErrorIs(t, err, boom)
	fail = false
	got, err := c.Data()
	require.NoError(t, err)
	assert.Same(t, d, got)
}

func TestGenitalThreshold(t *testing.T) {
	off, _ := newTestContext(t, Options{})
	assert.NotContains(t, off.renderGroups(1), mesh.GroupGenitals)

	on, _ := newTestContext(t, Options{GenitalThreshold: 0.8})
	assert.NotContains(t, on.renderGroups(0.5), mesh.GroupGenitals)
	assert.Contains(t, on.renderGroups(0.8), mesh.GroupGenitals)

	custom, _ := newTestContext(t, Options{GenitalThreshold: 0.5, GenitalGroups: []string{"genitals", "helper-genital-f"}})
	groups := custom.renderGroups(0.6)
	assert.Contains(t, groups, "genitals")
	assert.Contains(t, groups, "helper-genital-f")
	assert.NotContains(t, groups, mesh.GroupGenitals)

	req := baseRequest(restPose)
	req.Sliders.Gender = 1
	res, err := on.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Frames[0].Raster.Painted)
}

func TestExport(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	p, err := c.Export(targets.DefaultSliders())
	require.NoError(t, err)

	assert.Len(t, p.Vertices, 8*3)
	assert.Len(t, p.UVs, 8*2)
	assert.InDelta(t, -0.25, p.Vertices[1], 1e-6, "male target at half weight")
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 3, 2, 5, 3, 5, 4}, p.Indices)

	require.Len(t, p.Bones, 2)
	assert.Equal(t, "root", p.Bones[0].Name)
	assert.Nil(t, p.Bones[0].Parent)
	require.NotNil(t, p.Bones[1].Parent)
	assert.Equal(t, "root", *p.Bones[1].Parent)
	assert.InDelta(t, 1.0, p.Bones[1].Length, 1e-6)
	assert.Equal(t, []int{4, 5}, p.Weights["upper"].Indices)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parent":null`)
	assert.Contains(t, string(raw), `"headPos":`)
}

func TestExportMatchesRenderFilter(t *testing.T) {
	c, d := newTestContext(t, Options{})
	a, err := c.Export(targets.DefaultSliders())
	require.NoError(t, err)
	b, err := c.Export(targets.DefaultSliders())
	require.NoError(t, err)
	assert.Equal(t, a.Indices, b.Indices)
	assert.Equal(t, mesh.Triangulate(d.Mesh.SelectFaces(mesh.RenderGroups)), a.Indices)
}

func TestManifest(t *testing.T) {
	c, _ := newTestContext(t, Options{})
	res, err := c.Generate(context.Background(), baseRequest(restPose, bentPose))
	require.NoError(t, err)

	m := NewManifest(res, "LIST", 48, 32)
	require.Len(t, m.Entries, 2)
	m.Entries[0].Image = "pose_000.png"
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteManifest(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var back Manifest
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, m, back)
	assert.Equal(t, []string{"ghost"}, back.Entries[1].UnknownBones)
}

func TestResultMeshData(t *testing.T) {
	c, d := newTestContext(t, Options{})
	d.Mesh.UVs[2] = [2]float32{0.25, 0.75}
	res, err := c.Generate(context.Background(), baseRequest(restPose, bentPose))
	require.NoError(t, err)

	md := res.MeshData(1)
	assert.Equal(t, "pose_001", md.Name)
	assert.Equal(t, res.Frames[1].Vertices, md.Vertices)
	require.Len(t, md.UVs, len(md.Vertices))
	assert.Equal(t, [2]float32{0.25, 0.75}, md.UVs[2])
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 3, 2, 5, 3, 5, 4}, md.Indices)

	doc, err := encode.Document(md)
	require.NoError(t, err)
	assert.Contains(t, doc.Meshes[0].Primitives[0].Attributes, gltf.TEXCOORD_0)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	obj := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
g body
f 1 2 3 4
`
	rig := `{"bones": {"root": {"head": "a", "tail": "b", "parent": null}},
 "joints": {"a": [0, 1], "b": [2, 3]}, "weights_file": "w.mhw"}`
	files := map[string]string{
		"base.obj":                   obj,
		"targets/gender/male.target": "# delta\n2 0 0.1 0\n",
		"rig.mhskel":                 rig,
		"w.mhw":                      `{"weights": {"root": [[0, 1], [1, 1], [2, 1], [3, 1]]}}`,
	}
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}

	d, err := FileLoader(Sources{
		BaseMesh: filepath.Join(dir, "base.obj"),
		Targets:  filepath.Join(dir, "targets"),
		Rig:      filepath.Join(dir, "rig.mhskel"),
	}, nil)()
	require.NoError(t, err)
	assert.Len(t, d.Mesh.Vertices, 4)
	assert.Equal(t, 1, d.Library.Len())
	assert.True(t, d.Skeleton.HasWeights())

	noRig, err := FileLoader(Sources{
		BaseMesh: filepath.Join(dir, "base.obj"),
		Targets:  filepath.Join(dir, "targets"),
		Rig:      filepath.Join(dir, "missing.mhskel"),
	}, nil)()
	require.NoError(t, err)
	assert.Empty(t, noRig.Skeleton.Bones)

	_, err = FileLoader(Sources{BaseMesh: filepath.Join(dir, "nope.obj")}, nil)()
	assert.ErrorIs(t, err, targets.ErrDataNotFound)
}
