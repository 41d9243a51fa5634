// Package kakao: 카카오 로컬 키워드 검색 API 클라이언트
// 네이버 지역 검색이 좌표를 주지 않는 것과 달리 카카오는 좌표를 직접 내려주므로
// 검색 집계의 보조 소스로 쓴다.
package kakao

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	apperrors "github.com/ralskwo/FoodFinder/pkg/errors"
)

// Client: 카카오 REST API 키를 보관하는 검색 클라이언트
type Client struct {
	httpClient *http.Client
	apiKey     string
	logger     *slog.Logger

	baseURL string
}

// NewClient: 키워드 검색 클라이언트를 생성한다. apiKey가 비어 있으면 검색은 항상 빈 결과를 준다.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: constants.KakaoSearchConfig.Timeout},
		apiKey:     apiKey,
		logger:     logger,
		baseURL:    constants.KakaoSearchConfig.BaseURL,
	}
}

// Enabled: 자격 증명이 설정되어 호출이 가능한지 여부
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type keywordResponse struct {
	Documents []struct {
		PlaceName         string `json:"place_name"`
		CategoryName      string `json:"category_name"`
		AddressName       string `json:"address_name"`
		RoadAddressName   string `json:"road_address_name"`
		Phone             string `json:"phone"`
		PlaceURL          string `json:"place_url"`
		X                 string `json:"x"`
		Y                 string `json:"y"`
		CategoryGroupCode string `json:"category_group_code"`
	} `json:"documents"`
}

// SearchNearby: 좌표 주변의 음식점(FD6)을 거리순으로 검색한다.
// 실패는 집계 단계에서 무시 가능한 보조 소스이므로 에러와 함께 빈 목록을 반환한다.
func (c *Client) SearchNearby(ctx context.Context, keyword string, lon, lat float64, radiusMeters int) ([]domain.PlaceCandidate, error) {
	if !c.Enabled() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("category_group_code", constants.KakaoSearchConfig.CategoryGroupCode)
	params.Set("x", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("size", strconv.Itoa(constants.KakaoSearchConfig.PageSize))
	params.Set("sort", "distance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, apperrors.NewUpstreamError("kakao", "keyword_search", 0, err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("kakao", "keyword_search", 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError("kakao", "keyword_search", resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("kakao", "keyword_search", 0, err)
	}

	var payload keywordResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewParseError("kakao", "keyword response", err)
	}

	candidates := make([]domain.PlaceCandidate, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		lonVal, lonErr := strconv.ParseFloat(doc.X, 64)
		latVal, latErr := strconv.ParseFloat(doc.Y, 64)

		candidate := domain.PlaceCandidate{
			Title:       doc.PlaceName,
			Category:    doc.CategoryName,
			Address:     doc.AddressName,
			RoadAddress: doc.RoadAddressName,
			Phone:       doc.Phone,
			Link:        doc.PlaceURL,
		}
		if lonErr == nil && latErr == nil {
			candidate.Longitude = &lonVal
			candidate.Latitude = &latVal
		}
		candidates = append(candidates, candidate)
	}

	c.logger.Debug("Kakao keyword search completed",
		slog.String("keyword", keyword),
		slog.Int("count", len(candidates)))
	return candidates, nil
}
