package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reelsmith/config"
	"reelsmith/types"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProbeFunc returns ffprobe JSON output for a file
type ProbeFunc func(path string, timeout time.Duration) (string, error)

func ffprobe(path string, timeout time.Duration) (string, error) {
	return ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
}

// Info is the subset of ffprobe output the pipeline uses
type Info struct {
	Duration float64
	HasVideo bool
	HasAudio bool
}

// ParseProbe extracts Info from ffprobe JSON. The video stream duration is
// preferred; the container duration is the fallback.
func ParseProbe(raw string) (Info, error) {
	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			Duration  string `json:"duration"`
		} `json:"streams"`
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Info{}, fmt.Errorf("parse probe output: %w", err)
	}

	var info Info
	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if !info.HasVideo {
				info.HasVideo = true
				info.Duration = parseSeconds(s.Duration)
			}
		case "audio":
			info.HasAudio = true
		}
	}
	if info.Duration == 0 {
		info.Duration = parseSeconds(data.Format.Duration)
	}
	if info.Duration == 0 && !info.HasVideo {
		// audio-only files carry their length on the audio stream
		for _, s := range data.Streams {
			if d := parseSeconds(s.Duration); d > info.Duration {
				info.Duration = d
			}
		}
	}
	return info, nil
}

func parseSeconds(s string) float64 {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Prober measures candidate assets with a bounded pool of ffprobe calls
type Prober struct {
	Timeout time.Duration
	Workers int
	Probe   ProbeFunc
	Logger  *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{Timeout: config.ProbeTimeout, Workers: config.ProbeWorkers, Probe: ffprobe, Logger: logger}
}

// ProbeAll fills Duration and HasAudio of every video asset. A video that
// cannot be probed is dropped with a warning, unless it is the start or
// closing clip, which fails the run. Images pass through untouched.
func (p *Prober) ProbeAll(ctx context.Context, assets []types.Asset) ([]types.Asset, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	probe := p.Probe
	if probe == nil {
		probe = ffprobe
	}
	workers := p.Workers
	if workers <= 0 {
		workers = config.ProbeWorkers
	}

	out := make([]types.Asset, len(assets))
	keep := make([]bool, len(assets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, a := range assets {
		if !a.IsVideo() {
			out[i], keep[i] = a, true
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := probe(a.Path, p.Timeout)
			var info Info
			if err == nil {
				info, err = ParseProbe(raw)
			}
			if err == nil && (!info.HasVideo || info.Duration <= 0) {
				err = fmt.Errorf("no playable video stream")
			}
			if err != nil {
				if a.Role != types.RoleNormal {
					return types.Errorf(types.ErrAssetProbe, "probe %s clip %s: %w", a.Role, a.Path, err)
				}
				logger.Warn("excluding unreadable clip", zap.String("path", a.Path), zap.Error(err))
				return nil
			}

			a.Duration = info.Duration
			a.HasAudio = info.HasAudio
			out[i], keep[i] = a, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	probed := make([]types.Asset, 0, len(assets))
	for i := range out {
		if keep[i] {
			probed = append(probed, out[i])
		}
	}
	return probed, nil
}
