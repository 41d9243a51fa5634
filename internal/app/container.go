// Package app: 의존성 조립과 서버 런타임 수명 주기를 담당한다.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ralskwo/FoodFinder/internal/config"
	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/health"
	"github.com/ralskwo/FoodFinder/internal/server"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
	"github.com/ralskwo/FoodFinder/internal/service/crawler"
	"github.com/ralskwo/FoodFinder/internal/service/database"
	"github.com/ralskwo/FoodFinder/internal/service/geocode"
	"github.com/ralskwo/FoodFinder/internal/service/kakao"
	"github.com/ralskwo/FoodFinder/internal/service/menu"
	"github.com/ralskwo/FoodFinder/internal/service/search"
)

// Container: 조립된 서비스 의존성 묶음
// Valkey는 선택 의존성이라 연결 실패 시 캐시 없이 기동한다.
type Container struct {
	Cache    *cache.Service
	Postgres *database.PostgresService
	Repo     *menu.GormRepository

	Geocoder *geocode.Resolver
	Search   *search.Aggregator
	Menus    *menu.Service
	Handler  *server.APIHandler
}

// BuildContainer: 설정으로부터 전체 서비스 그래프를 조립한다.
func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	cacheSvc, err := cache.NewCacheService(cache.Config{
		Host:     cfg.Valkey.Host,
		Port:     cfg.Valkey.Port,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	}, logger)
	if err != nil {
		logger.Warn("cache store unavailable, running without volatile cache", slog.Any("error", err))
		cacheSvc = nil
	}

	postgres, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		if cacheSvc != nil {
			_ = cacheSvc.Close()
		}
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	repo := menu.NewGormRepository(postgres.GetGormDB())
	if err := repo.AutoMigrate(); err != nil {
		_ = postgres.Close()
		if cacheSvc != nil {
			_ = cacheSvc.Close()
		}
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	geocoder := geocode.NewResolver(geocode.Config{
		CloudID:     cfg.Naver.CloudID,
		CloudSecret: cfg.Naver.CloudSecret,
	}, cacheSvc, logger)

	localSearch := search.NewNaverLocalClient(cfg.Naver.ClientID, cfg.Naver.ClientSecret, cacheSvc, logger)
	kakaoClient := kakao.NewClient(cfg.Kakao.APIKey, logger)
	aggregator := search.NewAggregator(localSearch, kakaoClient, geocoder, logger)

	naverCrawler := crawler.NewNaverPlaceCrawler(cacheSvc, logger)
	deliveryCrawler := crawler.NewDeliveryCrawler(logger)
	menuSvc := menu.NewService(repo, naverCrawler, deliveryCrawler, cacheSvc, logger)

	handler := server.NewAPIHandler(aggregator, geocoder, menuSvc, repo, logger)

	if cacheSvc != nil && !cacheSvc.IsConnected(ctx) {
		logger.Warn("cache store ping failed after build")
	}

	health.RegisterCheck("postgres", func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout.DatabasePing)
		defer cancel()
		return postgres.Ping(pingCtx) == nil
	})
	if cacheSvc != nil {
		health.RegisterCheck("cache", func() bool {
			pingCtx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout.DatabasePing)
			defer cancel()
			return cacheSvc.IsConnected(pingCtx)
		})
	}

	return &Container{
		Cache:    cacheSvc,
		Postgres: postgres,
		Repo:     repo,
		Geocoder: geocoder,
		Search:   aggregator,
		Menus:    menuSvc,
		Handler:  handler,
	}, nil
}

// Close: 컨테이너가 쥔 외부 연결을 해제한다.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
