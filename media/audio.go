package media

import (
	"context"
	"fmt"
	"time"

	"reelsmith/config"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Tools bundles the small ffmpeg jobs used around synthesis
type Tools struct {
	ProbeTimeout time.Duration
	Probe        ProbeFunc
	Exec         Executor
}

func NewTools() *Tools {
	return &Tools{ProbeTimeout: config.ProbeTimeout, Probe: ffprobe, Exec: ExecFFmpeg}
}

// Duration measures any media file
func (t *Tools) Duration(ctx context.Context, path string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := t.Probe(path, t.ProbeTimeout)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	info, err := ParseProbe(raw)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// Concat joins audio files end to end
func (t *Tools) Concat(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}
	streams := make([]*ffmpeg.Stream, len(inputs))
	for i, in := range inputs {
		streams[i] = ffmpeg.Input(in).Audio().
			Filter("aformat", ffmpeg.Args{}, ffmpeg.KwArgs{"sample_rates": 44100, "channel_layouts": "stereo"})
	}
	joined := ffmpeg.Concat(streams, ffmpeg.KwArgs{"v": 0, "a": 1})
	args := ffmpeg.Output([]*ffmpeg.Stream{joined}, outPath).OverWriteOutput().GetArgs()
	return t.Exec(ctx, args)
}

// Silence writes seconds of stereo silence
func (t *Tools) Silence(ctx context.Context, outPath string, seconds float64) error {
	args := ffmpeg.Input("anullsrc=r=44100:cl=stereo", ffmpeg.KwArgs{"f": "lavfi", "t": fmt.Sprintf("%.3f", seconds)}).
		Output(outPath).OverWriteOutput().GetArgs()
	return t.Exec(ctx, args)
}
