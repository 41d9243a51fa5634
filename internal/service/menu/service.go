package menu

import (
	"context"
	"log/slog"
	"time"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
	"github.com/ralskwo/FoodFinder/internal/service/crawler"
	"github.com/ralskwo/FoodFinder/internal/textnorm"
	apperrors "github.com/ralskwo/FoodFinder/pkg/errors"
)

const crawlCooldownPrefix = "menu:cooldown:"

// PlaceCrawler: 네이버 플레이스 크롤러 의존성
type PlaceCrawler interface {
	GetMenus(ctx context.Context, placeID string) []domain.MenuItem
	FindPlaceID(ctx context.Context, restaurantName, address string) string
}

// DeliveryCrawler: 배달앱 크롤러 의존성
type DeliveryCrawler interface {
	GetMenus(ctx context.Context, restaurantName, address string) []domain.MenuItem
}

// Service: 메뉴 조회 서비스
// 저장된 메뉴가 신선하면 그대로 내주고, 오래되었으면 크롤링으로 갱신한다.
// 같은 음식점을 향한 연속 크롤링은 쿨다운으로 막는다.
type Service struct {
	repo     Repository
	naver    PlaceCrawler
	delivery DeliveryCrawler
	cache    *cache.Service
	logger   *slog.Logger

	freshness time.Duration
}

// NewService: 메뉴 서비스를 생성한다. cacheSvc는 nil일 수 있다. (쿨다운 비활성화)
func NewService(repo Repository, naver PlaceCrawler, delivery DeliveryCrawler, cacheSvc *cache.Service, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		naver:     naver,
		delivery:  delivery,
		cache:     cacheSvc,
		logger:    logger,
		freshness: constants.MenuCacheConfig.FreshnessWindow,
	}
}

// GetMenus: 음식점의 메뉴를 조회한다.
// 신선한 저장 메뉴가 있으면 크롤링 없이 반환하고,
// 없으면 allowCrawl에 따라 네이버 플레이스, 배달앱 순으로 수집해 저장한다.
func (s *Service) GetMenus(ctx context.Context, restaurant *Restaurant, naverLink string, allowCrawl bool) ([]MenuRecord, error) {
	cutoff := time.Now().Add(-s.freshness)
	fresh, err := s.repo.FindFreshMenus(ctx, restaurant.ID, cutoff)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		s.logger.Debug("menu cache hit", slog.String("place_id", restaurant.PlaceID), slog.Int("count", len(fresh)))
		return fresh, nil
	}

	if !allowCrawl || !s.acquireCrawlSlot(ctx, restaurant.PlaceID) {
		// 신선한 행이 없어도 저장된 행이 있으면 그것이 최선이다
		return s.repo.FindAllMenus(ctx, restaurant.ID)
	}

	s.logger.Info("menu cache miss, crawling",
		slog.String("place_id", restaurant.PlaceID),
		slog.String("name", restaurant.Name))

	items, source := s.crawlMenus(ctx, restaurant, naverLink)
	if len(items) == 0 {
		return s.repo.FindAllMenus(ctx, restaurant.ID)
	}

	if err := s.repo.ReplaceCrawledMenus(ctx, restaurant.ID, items, source); err != nil {
		s.logger.Error("failed to store crawled menus",
			slog.String("place_id", restaurant.PlaceID),
			slog.Any("error", err))
		return nil, err
	}

	return s.repo.FindAllMenus(ctx, restaurant.ID)
}

// crawlMenus: 수집 우선순위에 따라 메뉴를 모은다.
// 1순위 네이버 플레이스 (링크에서 ID 추출, 실패 시 검색 역조회)
// 2순위 배달앱
func (s *Service) crawlMenus(ctx context.Context, restaurant *Restaurant, naverLink string) ([]domain.MenuItem, domain.MenuSource) {
	placeID := crawler.PlaceIDFromLink(naverLink)
	if placeID == "" {
		address := restaurant.Address
		if address == "" {
			address = restaurant.RoadAddress
		}
		placeID = s.naver.FindPlaceID(ctx, restaurant.Name, address)
	}

	if placeID != "" {
		if items := s.naver.GetMenus(ctx, placeID); len(items) > 0 {
			return items, domain.MenuSourceNaver
		}
	}

	address := restaurant.Address
	if address == "" {
		address = restaurant.RoadAddress
	}
	if items := s.delivery.GetMenus(ctx, restaurant.Name, address); len(items) > 0 {
		return items, domain.MenuSourceDelivery
	}

	return nil, domain.MenuSourceUnknown
}

// acquireCrawlSlot: 쿨다운 키를 SetNX로 선점한다.
// 이미 누군가 최근에 크롤링을 시도했으면 false를 반환한다.
func (s *Service) acquireCrawlSlot(ctx context.Context, placeID string) bool {
	if s.cache == nil {
		return true
	}

	acquired, err := s.cache.SetNX(ctx, crawlCooldownPrefix+placeID, "1", constants.CacheTTL.CrawlCooldown)
	if err != nil {
		// 캐시 장애가 크롤링 자체를 막아서는 안 된다
		return true
	}
	return acquired
}

// AddUserContribution: 사용자 입력 메뉴를 검증 후 저장한다.
func (s *Service) AddUserContribution(ctx context.Context, restaurantID uint, menuName string, price *int) (*MenuRecord, error) {
	name := textnorm.NormalizeMenuName(menuName, "")
	if name == "" {
		return nil, apperrors.NewValidationError("menu_name", "메뉴명이 유효하지 않습니다")
	}
	if price != nil && (*price <= 0 || *price > constants.PlaceCrawlConfig.MaxPriceWon) {
		return nil, apperrors.NewValidationError("price", "가격이 유효 범위를 벗어났습니다")
	}

	return s.repo.InsertUserMenu(ctx, restaurantID, name, price)
}

// DisplayName: 저장된 메뉴 이름을 노출용으로 정규화한다.
// 저장 당시 복구하지 못한 깨진 이름도 조회 시점에 한 번 더 교정된다.
func DisplayName(stored string) string {
	return textnorm.NormalizeMenuName(stored, textnorm.DefaultFallback)
}

// RepresentativeMenus: 메뉴 목록에서 대표 메뉴를 최대 n개 고른다.
// 대표 표시가 하나도 없으면 가격이 있는 메뉴 중 싼 순서로 채운다.
func RepresentativeMenus(records []MenuRecord, n int) []domain.RepresentativeMenu {
	picked := make([]domain.RepresentativeMenu, 0, n)
	for _, record := range records {
		if !record.IsRepresentative {
			continue
		}
		picked = append(picked, domain.RepresentativeMenu{Name: DisplayName(record.Name), Price: record.Price})
		if len(picked) >= n {
			return picked
		}
	}
	if len(picked) > 0 {
		return picked
	}

	priced := make([]MenuRecord, 0, len(records))
	for _, record := range records {
		if record.Price != nil {
			priced = append(priced, record)
		}
	}
	for i := 1; i < len(priced); i++ {
		for j := i; j > 0 && *priced[j].Price < *priced[j-1].Price; j-- {
			priced[j], priced[j-1] = priced[j-1], priced[j]
		}
	}
	for i := 0; i < len(priced) && i < n; i++ {
		picked = append(picked, domain.RepresentativeMenu{Name: DisplayName(priced[i].Name), Price: priced[i].Price})
	}
	return picked
}

// RepairStoredNames: 저장된 메뉴 이름 중 깨진 것을 찾아 교정한다.
// 기동 직후 백그라운드에서 한 번, 필요 시 관리 경로에서 수동으로 호출된다.
func (s *Service) RepairStoredNames(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = constants.MenuCacheConfig.RepairScanLimit
	}

	menus, err := s.repo.ListRecentMenus(ctx, limit)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, record := range menus {
		fixed := textnorm.RepairMojibake(record.Name)
		if fixed == record.Name {
			continue
		}

		if err := s.repo.UpdateMenuName(ctx, record.ID, fixed); err != nil {
			s.logger.Warn("menu name repair failed",
				slog.Uint64("menu_id", uint64(record.ID)),
				slog.Any("error", err))
			continue
		}
		repaired++
	}

	if repaired > 0 {
		s.logger.Info("repaired stored menu names", slog.Int("count", repaired))
	}
	return repaired, nil
}
