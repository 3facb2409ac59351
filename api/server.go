// Package api exposes the render service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"reelsmith/orchestrator"
	"reelsmith/types"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ScheduledJob re-renders a project on a cron schedule
type ScheduledJob struct {
	Spec    string              `json:"spec"`
	Request types.RenderRequest `json:"request"`
}

// Server is the reelsmith HTTP server
type Server struct {
	svc        *orchestrator.Service
	logger     *zap.Logger
	httpServer *http.Server
	cron       *cron.Cron
	mu         sync.Mutex

	// runs started over HTTP or cron live as long as the server
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewServer creates a server listening on port
func NewServer(svc *orchestrator.Service, port string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		svc:     svc,
		logger:  logger,
		cron:    cron.New(),
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: s.NewRouter(),
	}
	return s
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	RegisterHealthRoutes(r, s)
	RegisterRenderRoutes(r, s)
	RegisterEventRoutes(r, s)
	RegisterFeedRoutes(r)
	return r
}

// Start starts the HTTP server; listen errors are logged
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	return nil
}

// StartCron schedules jobs. A tick is skipped while its project is busy.
func (s *Server) StartCron(jobs []ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Spec, func() { s.runScheduled(job) }); err != nil {
			return fmt.Errorf("failed to add cron job %q: %w", job.Spec, err)
		}
		s.logger.Info("cron job scheduled", zap.String("spec", job.Spec), zap.String("project", job.Request.Project))
	}
	if len(jobs) > 0 {
		s.cron.Start()
	}
	return nil
}

func (s *Server) runScheduled(job ScheduledJob) {
	req := job.Request
	req.RunID = ""
	id, err := s.svc.Submit(s.baseCtx, req)
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		s.logger.Info("cron skipped: project busy", zap.String("project", req.Project))
	case err != nil:
		s.logger.Error("cron submit failed", zap.Error(err))
	default:
		s.logger.Info("cron triggered render", zap.String("run_id", id))
	}
}

// Shutdown stops the scheduler and the HTTP server, then cancels in-flight
// runs and waits for them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	<-s.cron.Stop().Done()

	err := s.httpServer.Shutdown(ctx)
	s.cancel()
	s.svc.Wait()
	return err
}
