package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
	"github.com/ralskwo/FoodFinder/internal/util"
	apperrors "github.com/ralskwo/FoodFinder/pkg/errors"
)

const searchPageCachePrefix = "search:page:"

// NaverLocalClient: 네이버 지역 검색 Open API 클라이언트
// 페이지 결과를 짧게 캐시해 쿼리 변형 루프의 중복 호출을 줄인다.
type NaverLocalClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	cache        *cache.Service
	logger       *slog.Logger

	baseURL string
}

// NewNaverLocalClient: 지역 검색 클라이언트를 생성한다. cacheSvc는 nil일 수 있다.
func NewNaverLocalClient(clientID, clientSecret string, cacheSvc *cache.Service, logger *slog.Logger) *NaverLocalClient {
	return &NaverLocalClient{
		httpClient:   &http.Client{Timeout: constants.NaverSearchConfig.Timeout},
		clientID:     clientID,
		clientSecret: clientSecret,
		cache:        cacheSvc,
		logger:       logger,
		baseURL:      constants.NaverSearchConfig.BaseURL,
	}
}

// Enabled: 자격 증명이 설정되어 있는지 여부
func (c *NaverLocalClient) Enabled() bool {
	return c.clientID != "" && c.clientSecret != ""
}

type localSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Address     string `json:"address"`
		RoadAddress string `json:"roadAddress"`
		Telephone   string `json:"telephone"`
		Link        string `json:"link"`
	} `json:"items"`
}

// SearchPage: 한 페이지 분량의 검색 결과를 반환한다.
func (c *NaverLocalClient) SearchPage(ctx context.Context, query string, start, display int) ([]domain.PlaceCandidate, error) {
	if !c.Enabled() {
		return nil, apperrors.NewConfigError("naver_client_id", "지역 검색 자격 증명이 없습니다")
	}

	display = util.Clamp(display, 1, constants.NaverSearchConfig.PageSize)
	cacheKey := fmt.Sprintf("%s%s:%d:%d", searchPageCachePrefix, query, start, display)

	if c.cache != nil {
		var cached []domain.PlaceCandidate
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("display", strconv.Itoa(display))
	params.Set("start", strconv.Itoa(start))
	params.Set("sort", "sim")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, apperrors.NewUpstreamError("naver", "local_search", 0, err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("naver", "local_search", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError("naver", "local_search", resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("naver", "local_search", 0, err)
	}

	var payload localSearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewParseError("naver", "local search response", err)
	}

	candidates := make([]domain.PlaceCandidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		candidates = append(candidates, domain.PlaceCandidate{
			Title:       util.StripTags(item.Title),
			Category:    item.Category,
			Address:     item.Address,
			RoadAddress: item.RoadAddress,
			Phone:       item.Telephone,
			Link:        item.Link,
		})
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, candidates, constants.CacheTTL.SearchPage)
	}
	return candidates, nil
}
