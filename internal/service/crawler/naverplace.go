// Package crawler: 네이버 플레이스와 배달앱에서 메뉴를 수집한다.
// 페이지 구조 변경에 견디도록 DOM 파싱, 내장 JSON 파싱, 정규식 텍스트 파싱을
// 전부 수행해 결과를 합친 뒤 정제한다.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
	"github.com/ralskwo/FoodFinder/internal/service/strategy"
	"github.com/ralskwo/FoodFinder/internal/util"
)

const placeIDCachePrefix = "place:id:"

// NaverPlaceCrawler: 네이버 플레이스 메뉴 페이지 크롤러
// 요청 간격 제한과 서킷 브레이커로 차단을 예방한다.
type NaverPlaceCrawler struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *util.CircuitBreaker
	cache      *cache.Service
	logger     *slog.Logger

	menuURLTemplate    string
	homeURLTemplate    string
	searchURLTemplates []string
}

// NewNaverPlaceCrawler: 크롤러를 생성한다. cacheSvc는 nil일 수 있다.
func NewNaverPlaceCrawler(cacheSvc *cache.Service, logger *slog.Logger) *NaverPlaceCrawler {
	c := &NaverPlaceCrawler{
		httpClient: &http.Client{Timeout: constants.PlaceCrawlConfig.Timeout},
		limiter: rate.NewLimiter(
			rate.Every(constants.PlaceCrawlConfig.RequestInterval), 1),
		cache:              cacheSvc,
		logger:             logger,
		menuURLTemplate:    constants.PlaceCrawlConfig.MenuURLTemplate,
		homeURLTemplate:    constants.PlaceCrawlConfig.HomeURLTemplate,
		searchURLTemplates: constants.PlaceCrawlConfig.SearchURLTemplates,
	}
	c.breaker = util.NewCircuitBreaker(
		5, constants.PlaceCrawlConfig.Timeout*3, constants.PlaceCrawlConfig.Timeout, c.probeHost, logger)
	return c
}

// probeHost: 서킷이 열린 동안 크롤 대상 호스트가 살아났는지 가볍게 확인한다.
// 메뉴 URL 템플릿의 호스트 루트로 HEAD 한 번이면 충분하다.
func (c *NaverPlaceCrawler) probeHost() bool {
	target, err := url.Parse(fmt.Sprintf(c.menuURLTemplate, "0"))
	if err != nil || target.Host == "" {
		return false
	}

	req, err := http.NewRequest(http.MethodHead, target.Scheme+"://"+target.Host+"/", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// GetMenus: 플레이스 ID로 메뉴 목록을 수집한다.
// 메뉴 전용 페이지를 먼저 시도하고, 비어 있으면 홈 페이지로 한 번 더 시도한다.
// 수집 실패는 빈 목록으로 처리한다. (검색 흐름을 막지 않는다)
func (c *NaverPlaceCrawler) GetMenus(ctx context.Context, placeID string) []domain.MenuItem {
	if placeID == "" {
		return nil
	}

	urls := []string{
		fmt.Sprintf(c.menuURLTemplate, placeID),
		fmt.Sprintf(c.homeURLTemplate, placeID),
	}

	for _, pageURL := range urls {
		html, ok := c.fetch(ctx, pageURL)
		if !ok {
			continue
		}

		menus := c.extractMenus(ctx, html)
		if len(menus) > 0 {
			c.logger.Info("Naver Place menus crawled",
				slog.String("place_id", placeID),
				slog.Int("count", len(menus)))
			return menus
		}
	}

	return nil
}

// extractMenus: 한 페이지 HTML에 세 가지 추출 전략을 전부 적용하고 결과를 합친다.
// 같은 메뉴가 여러 전략에서 나와도 정제 단계에서 중복이 제거된다.
func (c *NaverPlaceCrawler) extractMenus(ctx context.Context, html string) []domain.MenuItem {
	rows := strategy.Collect(ctx, html,
		c.extractFromDOM,
		c.extractFromEmbeddedJSON,
		c.extractFromText,
	)
	return dedupeAndRank(rows)
}

// fetch: 속도 제한과 서킷 브레이커를 거쳐 페이지를 내려받는다.
func (c *NaverPlaceCrawler) fetch(ctx context.Context, pageURL string) (string, bool) {
	if !c.breaker.CanExecute() {
		c.logger.Warn("Naver Place circuit open, skipping fetch", slog.String("url", pageURL))
		return "", false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", constants.PlaceCrawlConfig.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", constants.PlaceCrawlConfig.AcceptLanguage)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure(0)
		c.logger.Warn("Naver Place fetch failed", slog.String("url", pageURL), slog.Any("error", err))
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordFailure(0)
		c.logger.Warn("Naver Place returned non-200",
			slog.String("url", pageURL),
			slog.Int("status", resp.StatusCode))
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure(0)
		return "", false
	}

	c.breaker.RecordSuccess()
	return string(body), true
}
