package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reelsmith/api"
	"reelsmith/common"
	"reelsmith/config"
	"reelsmith/lock"
	"reelsmith/logging"
	"reelsmith/orchestrator"
	"reelsmith/publish"
	"reelsmith/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort        string
	serveLogDir      string
	serveConfigPath  string
	serveCron        string
	serveCronRequest string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the render server (HTTP API, Kafka intake, scheduler)",
	Long: `serve accepts render requests on POST /api/render and, when
KAFKA_BOOTSTRAP_SERVERS is set, from the render-requests topic. Runs of the
same project are serialized with a Redis lock when REDIS_ADDR is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&servePort, "port", config.GetEnvOrDefault("PORT", "8080"), "HTTP port")
	f.StringVar(&serveLogDir, "log-dir", "", "directory for reelsmith.log (stderr only when empty)")
	f.StringVar(&serveConfigPath, "config", "", "config.yaml applied to every run instead of <project>/config.yaml")
	f.StringVar(&serveCron, "cron", "", "cron spec for scheduled renders, e.g. \"0 9 * * *\"")
	f.StringVar(&serveCronRequest, "cron-request", "", "JSON render request used by --cron")
}

func runServe(cmd *cobra.Command, args []string) error {
	jobs, err := scheduledJobs(serveCron, serveCronRequest)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{Dir: serveLogDir, Debug: debug})
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := orchestrator.NewManager(config.MaxStatusLogs)
	svc := orchestrator.NewService(newDriver(logger, status), lock.FromEnv(logger), status, logger)
	svc.ConfigPath = serveConfigPath

	target, err := common.NewS3TargetFromEnv(ctx)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	if target != nil {
		svc.Artifacts = target
		logger.Info("publishing artifacts to s3", zap.String("bucket", target.Bucket))
	}
	up, err := publish.NewUploaderFromEnv(ctx, logger)
	if err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	if up != nil {
		svc.Uploader = up
	}

	if cfg, ok := orchestrator.IntakeConfigFromEnv(); ok {
		producer, err := orchestrator.NewEventProducer(cfg, logger)
		if err != nil {
			logger.Error("run events disabled", zap.Error(err))
		} else {
			defer producer.Close()
			svc.Events = producer
		}

		consumer, err := svc.NewIntake(cfg)
		if err != nil {
			logger.Error("kafka intake disabled", zap.Error(err))
		} else {
			defer consumer.Close()
			go func() {
				if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Error("kafka intake failed to start", zap.Error(err))
				}
			}()
		}
	}

	server := api.NewServer(svc, servePort, logger)
	if err := server.StartCron(jobs); err != nil {
		return types.NewError(types.ErrConfig, err)
	}
	if err := server.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func scheduledJobs(spec, requestFile string) ([]api.ScheduledJob, error) {
	if spec == "" {
		return nil, nil
	}
	if requestFile == "" {
		return nil, types.Errorf(types.ErrConfig, "--cron needs --cron-request")
	}
	data, err := os.ReadFile(requestFile)
	if err != nil {
		return nil, types.Errorf(types.ErrConfig, "read cron request: %w", err)
	}
	var req types.RenderRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, types.Errorf(types.ErrConfig, "parse cron request: %w", err)
	}
	if req.Project == "" || req.Length <= 0 {
		return nil, types.NewError(types.ErrConfig, fmt.Errorf("cron request needs project and a positive length"))
	}
	return []api.ScheduledJob{{Spec: spec, Request: req}}, nil
}
