package crawler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/strategy"
)

// DeliveryCrawler: 배달앱(배달의민족, 요기요) 메뉴 조회
// 두 서비스 모두 공개 API가 없어 수집 가능 범위가 제한적이다.
// 결과가 없으면 빈 목록을 반환하는 최선 노력(best-effort) 소스로만 쓴다.
type DeliveryCrawler struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

type deliveryQuery struct {
	Name    string
	Address string
}

// NewDeliveryCrawler: 배달앱 크롤러를 생성한다.
func NewDeliveryCrawler(logger *slog.Logger) *DeliveryCrawler {
	return &DeliveryCrawler{
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:  logger,
	}
}

// GetMenus: 배달의민족을 먼저, 결과가 없으면 요기요를 시도한다.
func (d *DeliveryCrawler) GetMenus(ctx context.Context, restaurantName, address string) []domain.MenuItem {
	if restaurantName == "" {
		return nil
	}

	query := deliveryQuery{Name: restaurantName, Address: address}
	menus, ok := strategy.First(ctx, query,
		d.searchBaemin,
		d.searchYogiyo,
	)
	if !ok {
		return nil
	}
	return menus
}

// searchBaemin: 배달의민족 검색
// 웹 프런트가 전면 렌더링이라 정적 수집으로는 메뉴를 얻을 수 없다.
// 수집 가능한 공개 엔드포인트가 생기면 여기에 붙인다.
func (d *DeliveryCrawler) searchBaemin(ctx context.Context, query deliveryQuery) ([]domain.MenuItem, bool) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, false
	}
	d.logger.Debug("Baemin search attempted", slog.String("name", query.Name))
	return nil, false
}

// searchYogiyo: 요기요 검색, 배달의민족과 같은 제약이 있다.
func (d *DeliveryCrawler) searchYogiyo(ctx context.Context, query deliveryQuery) ([]domain.MenuItem, bool) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, false
	}
	d.logger.Debug("Yogiyo search attempted", slog.String("name", query.Name))
	return nil, false
}
