// Package orchestrator runs renders on behalf of long-lived callers (the
// HTTP API, the Kafka intake and the scheduler): it serializes runs per
// project, tracks status and publishes finished videos.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"reelsmith/compose"
	"reelsmith/config"
	"reelsmith/lock"
	"reelsmith/publish"
	"reelsmith/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusy is returned when the project already has a run in flight
var ErrBusy = lock.ErrLocked

// Runner executes one render; *compose.Driver satisfies it
type Runner interface {
	Run(ctx context.Context, req types.RenderRequest, settings config.Settings) (*compose.Result, error)
}

// ArtifactPublisher copies finished artifacts to remote storage
type ArtifactPublisher interface {
	Publish(ctx context.Context, runID string, files ...string) ([]string, error)
}

// EventPublisher announces finished runs, e.g. on a Kafka topic
type EventPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// RunEvent is published once per run, success or failure
type RunEvent struct {
	RunID      string            `json:"run_id"`
	Project    string            `json:"project"`
	State      types.State       `json:"state"`
	ErrorKind  types.ErrorKind   `json:"error_kind,omitempty"`
	Error      string            `json:"error,omitempty"`
	Summary    *types.RunSummary `json:"summary,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}

// VideoUploader uploads a finished video to a video platform
type VideoUploader interface {
	UploadVideo(ctx context.Context, path string, md publish.Metadata) (string, error)
}

type Service struct {
	Runner    Runner
	Locker    lock.Locker
	Status    *Manager
	Artifacts ArtifactPublisher
	Uploader  VideoUploader
	Events    EventPublisher
	Logger    *zap.Logger
	// ConfigPath overrides <project>/config.yaml for every run
	ConfigPath string

	wg sync.WaitGroup
}

func NewService(runner Runner, locker lock.Locker, status *Manager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if status == nil {
		status = NewManager(config.MaxStatusLogs)
	}
	return &Service{Runner: runner, Locker: locker, Status: status, Logger: logger}
}

// Run renders synchronously
func (s *Service) Run(ctx context.Context, req types.RenderRequest) (*compose.Result, error) {
	release, err := s.accept(ctx, &req)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.run(ctx, req)
}

// Submit accepts req and renders it in the background. ctx bounds the run
// itself, so callers pass a service-lifetime context, not a request one.
func (s *Service) Submit(ctx context.Context, req types.RenderRequest) (string, error) {
	release, err := s.accept(ctx, &req)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer release()
		if _, err := s.run(ctx, req); err != nil {
			s.Logger.Debug("background run ended with error", zap.String("run_id", req.RunID), zap.Error(err))
		}
	}()
	return req.RunID, nil
}

// Wait blocks until background runs have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// accept validates req, assigns a run id and takes the project lock
func (s *Service) accept(ctx context.Context, req *types.RenderRequest) (func(), error) {
	if strings.TrimSpace(req.Project) == "" {
		return nil, types.Errorf(types.ErrConfig, "project is required")
	}
	abs, err := filepath.Abs(req.Project)
	if err != nil {
		return nil, types.Errorf(types.ErrConfig, "project path: %w", err)
	}
	req.Project = abs
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	release, err := s.Locker.Acquire(ctx, abs)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, fmt.Errorf("%s: %w", abs, ErrBusy)
		}
		return nil, err
	}
	s.Status.Begin(req.RunID, abs)
	return release, nil
}

func (s *Service) run(ctx context.Context, req types.RenderRequest) (*compose.Result, error) {
	log := s.Logger.With(zap.String("run_id", req.RunID))

	settings, err := compose.LoadSettings(req, s.ConfigPath)
	if err != nil {
		s.Status.Failed(req.RunID, types.KindOf(err), types.StateIdle, err)
		log.Error("run failed", zap.String("kind", string(types.KindOf(err))), zap.Error(err))
		s.announce(ctx, req, nil, err, log)
		return nil, err
	}

	res, err := s.Runner.Run(ctx, req, settings)
	if err != nil {
		s.announce(ctx, req, nil, err, log)
		return nil, err
	}

	summary := res.Summary()
	summary.Published = s.publish(ctx, req, res, log)
	s.Status.Finish(summary)
	s.announce(ctx, req, summary, nil, log)
	return res, nil
}

// announce publishes the run outcome; a failure to do so is only logged
func (s *Service) announce(ctx context.Context, req types.RenderRequest, summary *types.RunSummary, runErr error, log *zap.Logger) {
	if s.Events == nil {
		return
	}
	ev := RunEvent{
		RunID:      req.RunID,
		Project:    req.Project,
		State:      types.StateComplete,
		Summary:    summary,
		FinishedAt: time.Now().UTC(),
	}
	if runErr != nil {
		ev.State = types.StateFailed
		ev.ErrorKind = types.KindOf(runErr)
		ev.Error = runErr.Error()
	}
	// the run context may already be canceled
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.Events.Publish(pctx, req.RunID, ev); err != nil {
		log.Warn("failed to publish run event", zap.Error(err))
	}
}

// publish never fails the run: the video is already on disk
func (s *Service) publish(ctx context.Context, req types.RenderRequest, res *compose.Result, log *zap.Logger) []string {
	var published []string
	if s.Artifacts != nil {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		uris, err := s.Artifacts.Publish(pctx, res.RunID, res.OutputPath, res.SubtitlePath)
		cancel()
		if err != nil {
			log.Warn("artifact upload failed", zap.Error(err))
			s.Status.AddLog("artifact upload failed: " + err.Error())
		}
		published = append(published, uris...)
	}

	if req.Publish && s.Uploader != nil {
		md := publish.MetadataFor(res.Timeline, filepath.Base(req.Project))
		id, err := s.Uploader.UploadVideo(ctx, res.OutputPath, md)
		if err != nil {
			log.Warn("video upload failed", zap.Error(err))
			s.Status.AddLog("video upload failed: " + err.Error())
		} else {
			published = append(published, "https://youtube.com/shorts/"+id)
		}
	}
	return published
}
