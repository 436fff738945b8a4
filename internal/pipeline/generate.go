package pipeline

import (
	"context"
	"fmt"
	"image"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mh-pose-renderer/internal/mesh"
	"mh-pose-renderer/internal/postprocess"
	"mh-pose-renderer/internal/raster"
	"mh-pose-renderer/internal/request"
	"mh-pose-renderer/internal/skin"
	"mh-pose-renderer/internal/targets"
)

// Frame is one rendered pose.
type Frame struct {
	Index        int
	Image        *image.NRGBA
	Vertices     mesh.Buffer // posed
	Raster       raster.Stats
	Skin         skin.Report
	UnknownBones []string
}

// Result holds a request's frames in pose order, and the tiled image in
// grid mode.
type Result struct {
	Frames  []Frame
	Grid    *image.NRGBA
	Faces   [][]int      // faces that were rendered
	UVs     [][2]float32 // per-vertex texture coordinates, shared and read-only
	Factors targets.Factors
}

// Images returns the output images: the grid alone in grid mode, else one
// per pose.
func (r *Result) Images() []*image.NRGBA {
	if r.Grid != nil {
		return []*image.NRGBA{r.Grid}
	}
	out := make([]*image.NRGBA, 0, len(r.Frames))
	for _, f := range r.Frames {
		if f.Image != nil {
			out = append(out, f.Image)
		}
	}
	return out
}

// Generate renders every pose of req. Poses run in parallel on independent
// skeleton copies; frames keep request order. No new pose starts once ctx
// is done.
func (c *Context) Generate(ctx context.Context, req request.Request) (*Result, error) {
	start := time.Now()
	data, err := c.Data()
	if err != nil {
		return nil, err
	}

	factors := targets.CalculateFactors(data.Library, req.Sliders)
	shaped := targets.SolveMesh(data.Mesh.Vertices, data.Library, factors)
	faces := data.Mesh.SelectFaces(c.renderGroups(req.Sliders.Gender))
	c.log.Debug("mesh shaped", zap.Int("active_targets", len(factors)), zap.Int("faces", len(faces)))

	frames := make([]Frame, len(req.Poses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)
	for i := range req.Poses {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					c.log.Error("pose panicked", zap.Int("pose", i), zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
					err = fmt.Errorf("pipeline: pose %d: panic: %v", i, r)
				}
			}()
			f, err := c.renderPose(data, shaped, faces, req, i)
			if err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	res := &Result{Frames: frames, Faces: faces, UVs: data.Mesh.UVs, Factors: factors}
	if req.Mode == request.Grid {
		res.Grid = postprocess.MakeGrid(res.Images(), req.GridColumns, req.Background)
	}
	if len(res.Images()) == 0 {
		return nil, ErrNoImages
	}
	c.log.Info("request rendered",
		zap.Int("poses", len(frames)),
		zap.String("mode", string(req.Mode)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (c *Context) renderPose(data *Data, shaped mesh.Buffer, faces [][]int, req request.Request, i int) (Frame, error) {
	pose := req.Poses[i]
	log := c.log.With(zap.Int("pose", i))

	skel, err := data.Skeleton.Copy()
	if err != nil {
		return Frame{}, fmt.Errorf("pipeline: pose %d: %w", i, err)
	}
	skel.UpdateJointPositions(shaped)
	unknown := skel.SetPose(pose.Bones)
	if len(unknown) > 0 {
		log.Debug("ignoring unknown bones", zap.Strings("bones", unknown))
	}
	skel.Update()

	posed, rep := skin.Apply(shaped, skel, log)
	skin.RotateModel(posed, pose.ModelRotation)

	ss := c.opts.Supersample
	img, st := raster.Render(posed, faces, raster.Options{
		Width:      req.Width * ss,
		Height:     req.Height * ss,
		Zoom:       req.Zoom,
		Background: req.Background,
	})
	if ss > 1 {
		img = postprocess.Downsample(img, req.Width, req.Height)
	}
	if st.Degenerate > 0 || st.Invalid > 0 {
		log.Debug("skipped faces", zap.Int("degenerate", st.Degenerate), zap.Int("invalid", st.Invalid))
	}

	return Frame{
		Index:        i,
		Image:        img,
		Vertices:     posed,
		Raster:       st,
		Skin:         rep,
		UnknownBones: unknown,
	}, nil
}
