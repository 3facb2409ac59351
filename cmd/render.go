package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"reelsmith/captions"
	"reelsmith/common"
	"reelsmith/compose"
	"reelsmith/config"
	"reelsmith/lock"
	"reelsmith/logging"
	"reelsmith/media"
	"reelsmith/orchestrator"
	"reelsmith/publish"
	"reelsmith/rssfeeds"
	"reelsmith/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type renderFlags struct {
	order            string
	keepLength       bool
	length           float64
	clips            int
	title            string
	titleDuration    float64
	titleFont        string
	titlePosition    float64
	subtitleFont     string
	subtitlePosition float64
	mute             bool
	generateCaptions bool
	generateVoice    bool
	captionProvider  string
	voiceProvider    string
	captionsFile     string
	seed             int64
	renderTimeout    string
	srt              bool
	configPath       string
	publish          bool
}

var rf renderFlags

var renderCmd = &cobra.Command{
	Use:   "render <project>",
	Short: "Render a project folder to output/output.mp4",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&rf.order, "order", types.OrderAlphnum, "clip order: alphnum|random")
	f.BoolVar(&rf.keepLength, "keep-length", false, "keep clips at full length and cycle them to fill the video")
	f.Float64Var(&rf.length, "length", 0, "target video length in seconds")
	f.IntVar(&rf.clips, "clips", 0, "maximum number of body clips")
	f.StringVar(&rf.title, "title", "", "title text; use \\n or | for a second block")
	f.Float64Var(&rf.titleDuration, "title-duration", 0, "seconds the title stays on screen")
	f.StringVar(&rf.titleFont, "title-font", "", "title font file or family")
	f.Float64Var(&rf.titlePosition, "title-position", 0, "title vertical position 0..100")
	f.StringVar(&rf.subtitleFont, "subtitle-font", "", "subtitle font file or family")
	f.Float64Var(&rf.subtitlePosition, "subtitle-position", 0, "subtitle vertical position 0..100")
	f.BoolVar(&rf.mute, "mute", true, "mute body clip audio")
	f.BoolVar(&rf.generateCaptions, "generate-subtitles", false, "generate captions from prompt/prompt.md")
	f.BoolVar(&rf.generateVoice, "generate-voice", false, "narrate captions with a TTS provider")
	f.StringVar(&rf.captionProvider, "caption-provider", "", "caption provider: cohere|openai|gemini")
	f.StringVar(&rf.voiceProvider, "voice-provider", "", "voice provider: elevenlabs|deepgram|command")
	f.StringVar(&rf.captionsFile, "captions", "", "caption file, one caption per line")
	f.Int64Var(&rf.seed, "seed", 0, "random seed for clip order and transitions")
	f.StringVar(&rf.renderTimeout, "render-timeout", "", "render timeout, e.g. 10m")
	f.BoolVar(&rf.srt, "srt", false, "write output/output.srt")
	f.StringVar(&rf.configPath, "config", "", "config.yaml to use instead of <project>/config.yaml")
	f.BoolVar(&rf.publish, "publish", false, "upload the finished video to YouTube")
}

// request maps the flags onto a RenderRequest. Optional values are only
// set when the flag was given so config.yaml can supply them.
func (f renderFlags) request(cmd *cobra.Command, project string) types.RenderRequest {
	changed := cmd.Flags().Changed
	req := types.RenderRequest{
		Project:          project,
		Order:            f.order,
		KeepClipLength:   f.keepLength,
		Length:           f.length,
		Title:            f.title,
		TitleDuration:    f.titleDuration,
		TitleFont:        f.titleFont,
		SubtitleFont:     f.subtitleFont,
		GenerateCaptions: f.generateCaptions,
		GenerateVoice:    f.generateVoice,
		CaptionProvider:  f.captionProvider,
		VoiceProvider:    f.voiceProvider,
		CaptionsFile:     f.captionsFile,
		RenderTimeout:    f.renderTimeout,
		WriteSRT:         f.srt,
		Publish:          f.publish,
	}
	if changed("clips") {
		n := f.clips
		req.ClipCount = &n
	}
	if changed("title-position") {
		p := f.titlePosition
		req.TitlePosition = &p
	}
	if changed("subtitle-position") {
		p := f.subtitlePosition
		req.SubtitlePosition = &p
	}
	if changed("mute") {
		m := f.mute
		req.MuteClips = &m
	}
	if changed("seed") {
		s := f.seed
		req.Seed = &s
	}
	return req
}

func runRender(cmd *cobra.Command, args []string) error {
	project, err := filepath.Abs(args[0])
	if err != nil {
		return types.Errorf(types.ErrConfig, "project path: %w", err)
	}
	if st, err := os.Stat(project); err != nil || !st.IsDir() {
		return types.Errorf(types.ErrConfig, "project folder %s not found", project)
	}
	req := rf.request(cmd, project)

	logger, closeLog, err := logging.ForProject(project, debug)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := orchestrator.NewManager(config.MaxStatusLogs)
	svc := orchestrator.NewService(newDriver(logger, status), lock.NewLocal(), status, logger)
	svc.ConfigPath = rf.configPath
	if err := attachPublishers(ctx, svc, req.Publish, logger); err != nil {
		return err
	}

	res, err := svc.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
	if res.SubtitlePath != "" {
		fmt.Fprintln(cmd.OutOrStdout(), res.SubtitlePath)
	}
	return nil
}

// newDriver builds a composition driver backed by ffmpeg and the provider
// registries
func newDriver(logger *zap.Logger, obs compose.Observer) *compose.Driver {
	providers := &compose.RegistryProviders{
		Tools:  media.NewTools(),
		Feeds:  feedEnricher(logger, rssfeeds.SeenFromEnv(logger)),
		Logger: logger,
	}
	d := compose.NewDriver(media.NewProber(logger), media.NewRenderer(logger), providers, logger)
	d.Observer = obs
	return d
}

// attachPublishers wires S3 artifact publishing when S3_BUCKET is set and
// the YouTube uploader when wantUpload is true
func attachPublishers(ctx context.Context, svc *orchestrator.Service, wantUpload bool, logger *zap.Logger) error {
	target, err := common.NewS3TargetFromEnv(ctx)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	if target != nil {
		svc.Artifacts = target
	}
	if !wantUpload {
		return nil
	}
	up, err := publish.NewUploaderFromEnv(ctx, logger)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	if up == nil {
		return types.Errorf(types.ErrConfig, "--publish needs YOUTUBE_SERVICE_ACCOUNT_FILE")
	}
	svc.Uploader = up
	return nil
}

func feedEnricher(logger *zap.Logger, seen rssfeeds.SeenStore) compose.FeedEnricherFunc {
	return func(feed string) captions.Enricher {
		e := rssfeeds.NewEnricher(feed, logger)
		e.Seen = seen
		return e
	}
}
