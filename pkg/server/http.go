package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"podsync/internal/app"
	"podsync/internal/job"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// HTTPServer 封装 region 服务运行所需的依赖。
type HTTPServer struct {
	Engine  *gin.Engine
	Logger  *zap.Logger
	Config  app.Config
	Service *app.Service
	Jobs    []*job.Scheduler
}

// NewHTTPServer 构建 HTTPServer。
func NewHTTPServer(engine *gin.Engine, logger *zap.Logger, cfg app.Config, svc *app.Service, jobs []*job.Scheduler) *HTTPServer {
	return &HTTPServer{
		Engine:  engine,
		Logger:  logger,
		Config:  cfg,
		Service: svc,
		Jobs:    jobs,
	}
}

// Run 启动 HTTP 服务及相关后台任务，ctx 取消后优雅退出。
func (s *HTTPServer) Run(ctx context.Context) error {
	if s.Service != nil {
		if err := s.Service.Init(ctx); err != nil {
			return err
		}
	}
	for _, j := range s.Jobs {
		stop := j.Start(ctx)
		defer stop()
	}

	if s.Config.Sync.InitialResync && s.Service != nil {
		go func() {
			if err := s.Service.SyncAll(ctx); err != nil {
				s.Logger.Error("initial VM host refresh failed", zap.Error(err))
				return
			}
			s.Logger.Info("initial VM host refresh completed")
		}()
	} else {
		s.Logger.Info("initial VM host refresh skipped by configuration")
	}

	return Serve(ctx, s.Config.HTTP.Listen, s.Engine, s.Logger)
}

// Shutdown 释放资源。
func (s *HTTPServer) Shutdown(ctx context.Context) {
	if s.Service != nil {
		if err := s.Service.Close(ctx); err != nil {
			s.Logger.Warn("close app service failed", zap.Error(err))
		}
	}
	_ = s.Logger.Sync()
}

// Serve 监听 listen 直到 ctx 取消。
func Serve(ctx context.Context, listen string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: listen, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("listen", listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
