// Package compose drives one render run through its states: it gathers the
// inputs, plans the timeline, aligns it with the narration and hands the
// result to the renderer.
package compose

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"reelsmith/audiosync"
	"reelsmith/captions"
	"reelsmith/config"
	"reelsmith/media"
	"reelsmith/planner"
	"reelsmith/selector"
	"reelsmith/title"
	"reelsmith/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prober fills in intrinsic durations of candidate assets
type Prober interface {
	ProbeAll(ctx context.Context, assets []types.Asset) ([]types.Asset, error)
}

// Observer receives run progress. Implementations must not block.
type Observer interface {
	StateChanged(runID string, state types.State)
	Logf(runID string, format string, args ...any)
	Failed(runID string, kind types.ErrorKind, state types.State, err error)
}

// Result describes a completed run
type Result struct {
	RunID        string
	Project      string
	OutputPath   string
	SubtitlePath string
	Timeline     *types.Timeline
	States       []types.State
}

// Summary condenses the result for status reporting
func (r *Result) Summary() *types.RunSummary {
	return &types.RunSummary{
		RunID:          r.RunID,
		Project:        r.Project,
		OutputPath:     r.OutputPath,
		SubtitlePath:   r.SubtitlePath,
		TargetDuration: r.Timeline.TargetDuration,
		Revised:        r.Timeline.Revised,
		Clips:          len(r.Timeline.ClipPlans),
		Captions:       len(r.Timeline.Captions.Entries),
	}
}

// Driver runs the composition pipeline. One Driver may serve many runs, but
// runs of the same project must be serialized by the caller.
type Driver struct {
	Prober    Prober
	Renderer  media.Renderer
	Providers ProviderSource
	Logger    *zap.Logger
	Observer  Observer
	// Rand is used when a request carries no seed. It is not safe for
	// concurrent runs; leave it nil to seed each run from the clock.
	Rand     *rand.Rand
	NewRunID func() string
}

func NewDriver(prober Prober, renderer media.Renderer, providers ProviderSource, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		Prober:    prober,
		Renderer:  renderer,
		Providers: providers,
		Logger:    logger,
		NewRunID:  uuid.NewString,
	}
}

type run struct {
	*Driver
	id       string
	req      types.RenderRequest
	settings config.Settings
	rng      *rand.Rand
	log      *zap.Logger
	sm       *machine
	tl       *types.Timeline
	clips    []types.Asset
	workDir  string
	tempOut  string
}

// Run executes one render. On failure the returned error is a
// *types.RunError carrying the kind and the state it originated in, and no
// file is left at the final output path by this run.
func (d *Driver) Run(ctx context.Context, req types.RenderRequest, settings config.Settings) (*Result, error) {
	r := &run{Driver: d, req: req, settings: settings}
	r.id = req.RunID
	if r.id == "" {
		r.id = d.NewRunID()
	}
	r.log = d.Logger.With(zap.String("run_id", r.id), zap.String("project", filepath.Base(req.Project)))
	r.sm = newMachine(func(s types.State) {
		r.log.Info("state", zap.String("state", string(s)))
		if d.Observer != nil {
			d.Observer.StateChanged(r.id, s)
		}
	})
	switch {
	case req.Seed != nil:
		r.rng = rand.New(rand.NewSource(*req.Seed))
	case d.Rand != nil:
		r.rng = d.Rand
	default:
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	res, err := r.execute(ctx)
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	return res, nil
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	if err := r.enter(ctx, types.StatePreparing); err != nil {
		return nil, err
	}
	if r.req.Length <= 0 {
		return nil, types.Errorf(types.ErrInvalidDuration, "length must be positive, got %.3f", r.req.Length)
	}
	r.workDir = filepath.Join(r.req.Project, config.WorkDir, r.id)
	if err := os.MkdirAll(r.workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(r.workDir)

	assets, track, err := r.prepare(ctx)
	if err != nil {
		return nil, err
	}
	r.tl = types.NewTimeline(r.req.Length)
	r.tl.Captions = track

	if err := r.enter(ctx, types.StateSelectingClips); err != nil {
		return nil, err
	}
	r.clips, err = selector.Select(assets, selector.Options{Order: r.req.Order, Cap: r.req.ClipCount}, r.rng)
	if err != nil {
		return nil, err
	}
	r.log.Info("clips selected", zap.Int("clips", len(r.clips)))

	if err := r.enter(ctx, types.StatePlanning); err != nil {
		return nil, err
	}
	if err := r.plan(r.tl.TargetDuration); err != nil {
		return nil, err
	}

	if err := r.enter(ctx, types.StateSynchronizing); err != nil {
		return nil, err
	}
	if err := r.synchronize(ctx); err != nil {
		return nil, err
	}

	if err := r.enter(ctx, types.StateLayingOutTitle); err != nil {
		return nil, err
	}
	r.tl.Title = title.Layout(r.req.Title, title.Options{
		Position:        r.settings.TitlePosition,
		Font:            r.settings.TitleFont,
		FrameWidth:      r.settings.Width,
		FrameHeight:     r.settings.Height,
		BaseFontSize:    r.settings.TitleFontSize,
		FirstWindow:     r.tl.ClipPlans[0].AllocatedDuration,
		DisplayDuration: r.settings.TitleDuration,
	})

	if err := r.enter(ctx, types.StateRendering); err != nil {
		return nil, err
	}
	res, err := r.render(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.enter(ctx, types.StateComplete); err != nil {
		return nil, err
	}
	res.States = append([]types.State(nil), r.sm.history...)
	r.log.Info("run complete",
		zap.String("output", res.OutputPath),
		zap.Float64("duration", r.tl.PlannedDuration()),
		zap.Bool("revised", r.tl.Revised))
	return res, nil
}

// enter moves to state s, honoring cancellation at the boundary
func (r *run) enter(ctx context.Context, s types.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.sm.to(s)
}

func (r *run) logf(format string, args ...any) {
	if r.Observer != nil {
		r.Observer.Logf(r.id, format, args...)
	}
}

// prepare scans and probes the media folder and resolves the caption track.
// Captions are not resolved when there is no media at all.
func (r *run) prepare(ctx context.Context) ([]types.Asset, types.CaptionTrack, error) {
	candidates, err := media.Scan(r.req.Project)
	if err != nil {
		return nil, types.CaptionTrack{}, err
	}
	r.logf("found %d media file(s)", len(candidates))
	if len(candidates) == 0 {
		return nil, types.CaptionTrack{}, nil
	}

	assets, err := r.Prober.ProbeAll(ctx, candidates)
	if err != nil {
		return nil, types.CaptionTrack{}, err
	}
	if len(assets) == 0 {
		return nil, types.CaptionTrack{}, nil
	}

	resolver := &captions.Resolver{
		ProjectDir: r.req.Project,
		Override:   r.req.CaptionsFile,
		Logger:     r.log,
	}
	if r.req.GenerateCaptions {
		gen, err := r.Providers.CaptionGenerator(r.settings)
		if err != nil {
			return nil, types.CaptionTrack{}, err
		}
		resolver.Generator = gen
		resolver.Enricher = r.Providers.Enricher(r.settings)
	}
	track, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, types.CaptionTrack{}, err
	}
	r.logf("captions: %d line(s) from %s", len(track.Entries), track.Source)
	return assets, track, nil
}

func (r *run) plan(target float64) error {
	plans, err := planner.Plan(r.clips, target, planner.Options{
		KeepClipLength: r.req.KeepClipLength,
		ImageDuration:  r.settings.ImageDuration,
	}, r.rng)
	if err != nil {
		return err
	}
	AssignTransitions(plans, r.rng)
	ApplyMute(plans, r.req.Muted())
	r.tl.ClipPlans = plans
	r.log.Info("timeline planned",
		zap.Float64("target", target),
		zap.Float64("planned", r.tl.PlannedDuration()),
		zap.Int("clips", len(plans)))
	return nil
}

func (r *run) synchronize(ctx context.Context) error {
	if r.req.GenerateCaptions || r.req.GenerateVoice {
		if len(r.tl.Captions.Entries) == 0 {
			return types.Errorf(types.ErrTTSProvider, "voice generation requested but there are no captions to speak")
		}
		syn, err := r.Providers.Synthesizer(r.settings)
		if err != nil {
			return err
		}
		narration, err := syn.Synthesize(ctx, r.tl.Captions.VoiceLines(), r.workDir)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if types.KindOf(err) == types.ErrUnclassified {
				err = types.NewError(types.ErrTTSProvider, err)
			}
			return err
		}
		r.tl.Narration = narration
		r.logf("narration: %.2fs via %s", narration.Duration, syn.Name())
	}

	replan := func(target float64) error {
		r.log.Info("narration outlasts timeline, replanning", zap.Float64("target", target))
		if err := r.enter(ctx, types.StatePlanning); err != nil {
			return err
		}
		if err := r.plan(target); err != nil {
			return err
		}
		return r.enter(ctx, types.StateSynchronizing)
	}
	return audiosync.Synchronize(r.tl, replan, audiosync.Options{MinFloor: config.CaptionMinDuration})
}

func (r *run) render(ctx context.Context) (*Result, error) {
	outDir := filepath.Join(r.req.Project, config.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	if path, ok := media.FindBgm(r.req.Project); ok {
		r.tl.Bgm = &types.BgmSpec{
			Path:           path,
			FadeInSeconds:  r.settings.BgmFadeIn,
			FadeOutSeconds: r.settings.BgmFadeOut,
			Volume:         r.settings.BgmVolume,
		}
	}

	job := media.Job{Timeline: r.tl, Settings: r.settings}
	if len(r.tl.Captions.Entries) > 0 {
		job.SubtitlePath = filepath.Join(r.workDir, "captions.ass")
		style := captions.Style{
			Font:     r.settings.SubtitleFont,
			FontSize: r.settings.SubtitleFontSize,
			Position: r.settings.SubtitlePosition,
			Width:    r.settings.Width,
			Height:   r.settings.Height,
		}
		if err := captions.WriteASS(r.tl.Captions.Entries, style, job.SubtitlePath); err != nil {
			return nil, types.Errorf(types.ErrRenderFailure, "write subtitles: %w", err)
		}
	}

	r.tempOut = filepath.Join(outDir, fmt.Sprintf(".render-%s.mp4", r.id))
	job.OutputPath = r.tempOut
	if err := r.Renderer.Render(ctx, job); err != nil {
		return nil, err
	}

	// Stage the SRT before output.mp4 is replaced.
	var srt, srtTmp string
	if r.req.WriteSRT && len(r.tl.Captions.Entries) > 0 {
		srt = filepath.Join(outDir, config.OutputSubtitleFile)
		srtTmp = srt + ".tmp"
		if err := captions.WriteSRT(r.tl.Captions.Entries, srtTmp); err != nil {
			r.removeTemp(srtTmp)
			return nil, types.Errorf(types.ErrRenderFailure, "write srt: %w", err)
		}
	}

	final := filepath.Join(outDir, config.OutputFile)
	if err := os.Rename(r.tempOut, final); err != nil {
		if srtTmp != "" {
			r.removeTemp(srtTmp)
		}
		return nil, types.Errorf(types.ErrRenderFailure, "publish output: %w", err)
	}
	r.tempOut = ""

	res := &Result{RunID: r.id, Project: r.req.Project, OutputPath: final, Timeline: r.tl}
	if srtTmp != "" {
		// output.mp4 is already in place; a failed rename only loses the sidecar.
		if err := os.Rename(srtTmp, srt); err != nil {
			r.log.Warn("could not publish subtitles", zap.String("path", srt), zap.Error(err))
			r.removeTemp(srtTmp)
		} else {
			res.SubtitlePath = srt
		}
	}
	return res, nil
}

func (r *run) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn("could not remove temporary file", zap.String("path", path), zap.Error(err))
	}
}

// fail classifies err, moves to Failed, emits the single failure record and
// removes temporary output. Any failure after the caller canceled is
// reported as a cancellation.
func (r *run) fail(ctx context.Context, err error) error {
	var re *types.RunError
	switch {
	case ctx.Err() != nil:
		re = types.NewError(types.ErrCanceled, err)
	case !errors.As(err, &re):
		re = types.NewError(types.KindOf(err), err)
	}
	if re.State == "" {
		re.State = r.sm.current
	}

	if r.tempOut != "" {
		if rmErr := os.Remove(r.tempOut); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			r.log.Warn("could not remove partial output", zap.String("path", r.tempOut), zap.Error(rmErr))
		}
	}
	if tErr := r.sm.to(types.StateFailed); tErr != nil {
		r.log.Warn("state", zap.Error(tErr))
	}

	r.log.Error("run failed",
		zap.String("kind", string(re.Kind)),
		zap.String("state", string(re.State)),
		zap.Error(re.Err))
	if r.Observer != nil {
		r.Observer.Failed(r.id, re.Kind, re.State, re.Err)
	}
	return re
}

// LoadSettings resolves the effective settings for req: built-in defaults,
// then the project config.yaml (or configPath when set), then per-request
// overrides.
func LoadSettings(req types.RenderRequest, configPath string) (config.Settings, error) {
	if configPath == "" {
		configPath = filepath.Join(req.Project, config.ProjectConfigFile)
	}
	pf, err := config.LoadProjectFile(configPath)
	if err != nil {
		return config.Settings{}, types.NewError(types.ErrConfig, err)
	}
	s, err := pf.Resolve()
	if err != nil {
		return s, types.NewError(types.ErrConfig, err)
	}
	s, err = s.WithRequest(req)
	if err != nil {
		return s, types.NewError(types.ErrConfig, err)
	}
	return s, nil
}
