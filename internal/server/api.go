package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/health"
	"github.com/ralskwo/FoodFinder/internal/service/geocode"
	"github.com/ralskwo/FoodFinder/internal/service/menu"
	"github.com/ralskwo/FoodFinder/internal/service/search"
)

// RestaurantSearcher: 후보 식당 검색 진입점. search.Aggregator가 구현한다.
type RestaurantSearcher interface {
	Search(ctx context.Context, req search.Request) []domain.PlaceCandidate
}

// APIHandler: FoodFinder API 요청을 처리하는 핸들러입니다.
// 핸들러 메서드는 도메인별 파일로 분리됨:
//   - api_restaurant.go: 맛집 검색 + 상세 + 메뉴 + 사용자 기여
//   - api_geocode.go: 주소⇄좌표 변환
//   - api_preferences.go: 세션 선호 설정
type APIHandler struct {
	search   RestaurantSearcher
	geocoder *geocode.Resolver
	menus    *menu.Service
	repo     menu.Repository
	logger   *slog.Logger
}

// NewAPIHandler: 새로운 API 핸들러를 생성합니다.
func NewAPIHandler(
	searchSvc RestaurantSearcher,
	geocoder *geocode.Resolver,
	menuSvc *menu.Service,
	repo menu.Repository,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		search:   searchSvc,
		geocoder: geocoder,
		menus:    menuSvc,
		repo:     repo,
		logger:   logger,
	}
}

// Health: GET /health
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(200, health.Get())
}
