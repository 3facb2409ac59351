package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/config"
	"reelsmith/types"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Executor runs ffmpeg with args
type Executor func(ctx context.Context, args []string) error

// ExecFFmpeg runs the ffmpeg binary and keeps the tail of stderr for errors
func ExecFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 800))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Job is one render of a finalized timeline
type Job struct {
	Timeline *types.Timeline
	Settings config.Settings
	// SubtitlePath is an ASS script to burn in, empty for none
	SubtitlePath string
	OutputPath   string
}

// Renderer produces the output file for a job
type Renderer interface {
	Render(ctx context.Context, job Job) error
}

// FFmpegRenderer renders through an ffmpeg-go graph
type FFmpegRenderer struct {
	Exec   Executor
	Logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *FFmpegRenderer {
	return &FFmpegRenderer{Exec: ExecFFmpeg, Logger: logger}
}

// Render runs ffmpeg under the settings' timeout. A timeout kills the
// process and is reported as RenderTimeoutError; any other ffmpeg failure
// as RenderFailureError.
func (r *FFmpegRenderer) Render(ctx context.Context, job Job) error {
	args, err := BuildArgs(job)
	if err != nil {
		return types.NewError(types.ErrRenderFailure, err)
	}

	timeout := job.Settings.RenderTimeout
	if timeout <= 0 {
		timeout = config.DefaultRenderTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if r.Logger != nil {
		r.Logger.Debug("ffmpeg", zap.Strings("args", args))
	}
	started := time.Now()
	err = r.Exec(runCtx, args)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return types.Errorf(types.ErrRenderTimeout, "render exceeded %s", timeout)
	default:
		return types.NewError(types.ErrRenderFailure, err)
	}

	st, err := os.Stat(job.OutputPath)
	if err != nil || st.Size() == 0 {
		return types.Errorf(types.ErrRenderFailure, "ffmpeg produced no output at %s", job.OutputPath)
	}
	if r.Logger != nil {
		r.Logger.Info("render finished", zap.Duration("took", time.Since(started)), zap.Int64("bytes", st.Size()))
	}
	return nil
}

// BuildArgs compiles the ffmpeg command line for job
func BuildArgs(job Job) ([]string, error) {
	tl := job.Timeline
	if tl == nil || len(tl.ClipPlans) == 0 {
		return nil, fmt.Errorf("timeline has no clips")
	}
	s := job.Settings
	total := tl.PlannedDuration()

	video, err := buildVideo(tl, s)
	if err != nil {
		return nil, err
	}
	video = overlayTitle(video, tl.Title)
	if job.SubtitlePath != "" {
		video = video.Filter("ass", ffmpeg.Args{filepath.ToSlash(job.SubtitlePath)})
	}
	audio := buildAudio(tl, total)

	out := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, job.OutputPath, ffmpeg.KwArgs{
		"c:v":      s.Codec,
		"preset":   s.Preset,
		"crf":      s.CRF,
		"pix_fmt":  "yuv420p",
		"r":        s.FPS,
		"c:a":      config.AudioCodec,
		"b:a":      config.AudioBitrate,
		"movflags": "+faststart",
		"t":        secs(total),
	}).OverWriteOutput()
	return out.GetArgs(), nil
}

func secs(v float64) string { return fmt.Sprintf("%.3f", v) }

// lead returns how long clip i keeps playing under the transition into clip i+1
func lead(plans []types.ClipPlan, i int) float64 {
	if i+1 < len(plans) && plans[i+1].Transition != nil {
		return plans[i+1].Transition.Duration
	}
	return 0
}

// buildVideo normalizes every clip to the output frame and chains them with
// xfade. Each clip runs for its allocation plus the length of the following
// transition, so the xfade offsets are the running sum of allocations.
func buildVideo(tl *types.Timeline, s config.Settings) (*ffmpeg.Stream, error) {
	var chain *ffmpeg.Stream
	var offset float64

	for i, p := range tl.ClipPlans {
		length := p.AllocatedDuration + lead(tl.ClipPlans, i)
		if length <= 0 {
			return nil, fmt.Errorf("clip %d has no duration", i)
		}

		var v *ffmpeg.Stream
		if p.Asset.IsVideo() {
			src := math.Min(p.OutSeconds-p.InSeconds+lead(tl.ClipPlans, i), p.Asset.Duration-p.InSeconds)
			in := ffmpeg.KwArgs{"t": secs(src)}
			if p.InSeconds > 0 {
				in["ss"] = secs(p.InSeconds)
			}
			v = normalize(ffmpeg.Input(p.Asset.Path, in).Video(), s)
			if hold := length - src; hold > 0.0005 {
				v = v.Filter("tpad", ffmpeg.Args{}, ffmpeg.KwArgs{"stop_mode": "clone", "stop_duration": secs(hold)})
			}
		} else {
			v = normalize(ffmpeg.Input(p.Asset.Path, ffmpeg.KwArgs{"loop": 1, "t": secs(length), "framerate": s.FPS}).Video(), s)
		}
		v = v.Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": secs(length)}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})

		switch {
		case chain == nil:
			chain = v
		case p.Transition != nil && p.Transition.Duration > 0:
			chain = ffmpeg.Filter([]*ffmpeg.Stream{chain, v}, "xfade", ffmpeg.Args{}, ffmpeg.KwArgs{
				"transition": p.Transition.Style,
				"duration":   secs(p.Transition.Duration),
				"offset":     secs(offset),
			})
		default:
			chain = ffmpeg.Concat([]*ffmpeg.Stream{chain, v}, ffmpeg.KwArgs{"v": 1, "a": 0})
		}
		offset += p.AllocatedDuration
	}
	return chain, nil
}

func normalize(v *ffmpeg.Stream, s config.Settings) *ffmpeg.Stream {
	return v.
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", s.Width, s.Height)}, ffmpeg.KwArgs{"force_original_aspect_ratio": "decrease"}).
		Filter("pad", ffmpeg.Args{fmt.Sprintf("%d:%d:(ow-iw)/2:(oh-ih)/2", s.Width, s.Height)}).
		Filter("setsar", ffmpeg.Args{"1"}).
		Filter("fps", ffmpeg.Args{fmt.Sprintf("%d", s.FPS)}).
		Filter("format", ffmpeg.Args{"yuv420p"})
}

func overlayTitle(v *ffmpeg.Stream, g *types.TitleGroup) *ffmpeg.Stream {
	if g == nil || g.End <= g.Start {
		return v
	}
	for _, b := range g.Blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		kw := ffmpeg.KwArgs{
			"text":        text,
			"expansion":   "none",
			"fontsize":    b.FontSize,
			"fontcolor":   "white",
			"borderw":     4,
			"bordercolor": "black",
			"x":           "(w-text_w)/2",
			"y":           b.Y,
			"enable":      fmt.Sprintf("between(t,%s,%s)", secs(g.Start), secs(g.End)),
		}
		if g.Font != "" {
			kw["font"] = g.Font
		}
		v = v.Filter("drawtext", ffmpeg.Args{}, kw)
	}
	return v
}

// buildAudio mixes narration, background music and unmuted clip audio into
// one track of exactly total seconds.
func buildAudio(tl *types.Timeline, total float64) *ffmpeg.Stream {
	var tracks []*ffmpeg.Stream

	if n := tl.Narration; n != nil && n.Path != "" {
		tracks = append(tracks, ffmpeg.Input(n.Path).Audio())
	}

	if b := tl.Bgm; b != nil && b.Path != "" {
		bgm := ffmpeg.Input(b.Path, ffmpeg.KwArgs{"stream_loop": -1}).Audio().
			Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": secs(total)})
		if b.FadeInSeconds > 0 {
			bgm = bgm.Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": secs(b.FadeInSeconds)})
		}
		if b.FadeOutSeconds > 0 {
			st := math.Max(0, total-b.FadeOutSeconds)
			bgm = bgm.Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": secs(st), "d": secs(total - st)})
		}
		tracks = append(tracks, bgm.Filter("volume", ffmpeg.Args{fmt.Sprintf("%.3f", b.Volume)}))
	}

	var offset float64
	for _, p := range tl.ClipPlans {
		if p.Asset.IsVideo() && p.Asset.HasAudio && !p.Muted {
			src := math.Min(p.OutSeconds-p.InSeconds, p.AllocatedDuration)
			in := ffmpeg.KwArgs{"t": secs(src)}
			if p.InSeconds > 0 {
				in["ss"] = secs(p.InSeconds)
			}
			ms := int(math.Round(offset * 1000))
			a := ffmpeg.Input(p.Asset.Path, in).Audio().
				Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"}).
				Filter("adelay", ffmpeg.Args{fmt.Sprintf("%d|%d", ms, ms)})
			tracks = append(tracks, a)
		}
		offset += p.AllocatedDuration
	}

	if len(tracks) == 0 {
		return ffmpeg.Input("anullsrc=r=44100:cl=stereo", ffmpeg.KwArgs{"f": "lavfi", "t": secs(total)}).Audio()
	}
	for i := range tracks {
		tracks[i] = tracks[i].Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{"sample_rates": 44100, "channel_layouts": "stereo"})
	}

	mixed := tracks[0]
	if len(tracks) > 1 {
		mixed = ffmpeg.Filter(tracks, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":             len(tracks),
			"duration":           "longest",
			"dropout_transition": 0,
			"normalize":          0,
		})
	}
	return mixed.
		Filter("apad", ffmpeg.Args{}, ffmpeg.KwArgs{"whole_dur": secs(total)}).
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": secs(total)})
}
