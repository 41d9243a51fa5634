package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ralskwo/FoodFinder/internal/config"
	"github.com/ralskwo/FoodFinder/internal/constants"
)

// Runtime 는 HTTP 서버와 서비스 그래프를 묶은 실행 단위다.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Container *Container
	Router    *gin.Engine
	Server    *http.Server
}

// Close - 런타임 리소스 정리 (DB, 캐시 연결 해제)
func (r *Runtime) Close() {
	if r != nil && r.Container != nil {
		r.Container.Close()
	}
}

// BuildRuntime 는 설정으로부터 런타임을 조립한다.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := BuildContainer(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("런타임 초기화 실패: %w", err)
	}

	router := BuildRouter(ctx, container, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		ReadTimeout:       constants.ServerTimeout.Read,
		WriteTimeout:      constants.ServerTimeout.Write,
		IdleTimeout:       constants.ServerTimeout.Idle,
	}

	return &Runtime{
		Config:    cfg,
		Logger:    logger,
		Container: container,
		Router:    router,
		Server:    srv,
	}, nil
}

// Start 는 HTTP 서버와 백그라운드 작업을 시작한다.
func (r *Runtime) Start(ctx context.Context, errCh chan<- error) {
	if r == nil || r.Server == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		if err := r.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errCh != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", err)
				return
			}
			if r.Logger != nil {
				r.Logger.Error("HTTP server error", "error", err)
			}
		}
	}()

	// 기동 직후 저장된 메뉴 이름 교정을 한 번 돌린다. 요청 경로와 경합하지 않도록 지연 후 실행.
	if r.Container != nil && r.Container.Menus != nil {
		go func() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(constants.MenuCacheConfig.BootRepairDelay):
			}

			repaired, err := r.Container.Menus.RepairStoredNames(ctx, constants.MenuCacheConfig.BootRepairLimit)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				if r.Logger != nil {
					r.Logger.Error("메뉴 이름 교정 실패", "error", err)
				}
				return
			}
			if repaired > 0 && r.Logger != nil {
				r.Logger.Info("메뉴 이름 교정 완료", "repaired", repaired)
			}
		}()
	}

	if r.Logger != nil {
		r.Logger.Info("HTTP server started", "addr", r.Server.Addr)
	}
}

// Shutdown 는 HTTP 서버를 정상 종료한다.
func (r *Runtime) Shutdown(ctx context.Context) {
	if r == nil || r.Server == nil {
		return
	}
	if err := r.Server.Shutdown(ctx); err != nil {
		if r.Logger != nil {
			r.Logger.Error("HTTP server shutdown error", "error", err)
		}
	}
}

// Run 는 시그널을 받을 때까지 서버를 실행한다.
func (r *Runtime) Run() {
	if r == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	r.Start(ctx, errCh)
	if r.Logger != nil {
		r.Logger.Info("Server started, waiting for signals...")
	}

	select {
	case sig := <-sigCh:
		if r.Logger != nil {
			r.Logger.Info("Received shutdown signal", "signal", sig.String())
		}
	case err := <-errCh:
		if r.Logger != nil {
			r.Logger.Error("Server error", "error", err)
		}
	}

	if r.Logger != nil {
		r.Logger.Info("Shutting down gracefully...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Shutdown)
	defer shutdownCancel()

	r.Shutdown(shutdownCtx)

	if r.Logger != nil {
		r.Logger.Info("Shutdown complete")
	}
}
