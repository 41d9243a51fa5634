// Package geocode: 주소⇄좌표 변환을 담당한다.
// 네이버 클라우드 지오코딩을 게이트웨이 호스트 순서대로 시도하고,
// 전부 실패하면 키가 필요 없는 OSM Nominatim으로 폴백한다.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
	"github.com/ralskwo/FoodFinder/internal/service/strategy"
	"github.com/ralskwo/FoodFinder/internal/util"
	apperrors "github.com/ralskwo/FoodFinder/pkg/errors"
)

// ErrNotFound: 모든 제공자가 사용 가능한 결과를 내지 못했을 때 반환되는 센티널 에러
// 예외적 상황이 아니라 정상적인 "결과 없음"이므로 호출자는 빈 값으로 처리한다.
var ErrNotFound = errors.New("geocode: no usable result")

const (
	geoCacheForwardPrefix = "geo:fwd:"
	geoCacheReversePrefix = "geo:rev:"
)

// Resolver: 다중 엔드포인트/다중 제공자 폴백을 갖춘 지오코딩 해석기
type Resolver struct {
	naverClient *http.Client
	osmClient   *http.Client
	cloudID     string
	cloudSecret string
	cache       *cache.Service
	logger      *slog.Logger

	reverseURLs  []string
	forwardURLs  []string
	osmReverse   string
	osmSearch    string
	osmUserAgent string
}

// Config: Resolver 생성에 필요한 자격 증명
type Config struct {
	CloudID     string
	CloudSecret string
}

// NewResolver: 새로운 Resolver 인스턴스를 생성한다. cacheSvc는 nil일 수 있다.
func NewResolver(cfg Config, cacheSvc *cache.Service, logger *slog.Logger) *Resolver {
	return &Resolver{
		naverClient:  &http.Client{Timeout: constants.NaverGeocodeConfig.Timeout},
		osmClient:    &http.Client{Timeout: constants.NominatimConfig.Timeout},
		cloudID:      cfg.CloudID,
		cloudSecret:  cfg.CloudSecret,
		cache:        cacheSvc,
		logger:       logger,
		reverseURLs:  constants.NaverGeocodeConfig.ReverseURLs,
		forwardURLs:  constants.NaverGeocodeConfig.ForwardURLs,
		osmReverse:   constants.NominatimConfig.ReverseURL,
		osmSearch:    constants.NominatimConfig.SearchURL,
		osmUserAgent: constants.NominatimConfig.UserAgent,
	}
}

// ReverseGeocode: 좌표를 주소 문자열로 변환한다.
// 어느 제공자도 결과를 내지 못하면 ErrNotFound를 반환한다. (예외 없음)
func (r *Resolver) ReverseGeocode(ctx context.Context, lon, lat float64) (string, error) {
	if !util.ValidCoordinate(lat, lon) {
		return "", ErrNotFound
	}

	cacheKey := fmt.Sprintf("%s%.6f,%.6f", geoCacheReversePrefix, lon, lat)
	if r.cache != nil {
		var cached string
		if found, _ := r.cache.Get(ctx, cacheKey, &cached); found && cached != "" {
			return cached, nil
		}
	}

	coord := [2]float64{lon, lat}
	address, ok := strategy.First(ctx, coord,
		r.reverseViaNaver,
		r.reverseViaNominatim,
	)
	if !ok || address == "" {
		return "", ErrNotFound
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, address, constants.CacheTTL.GeocodeResult)
	}
	return address, nil
}

// ForwardGeocode: 주소/장소명을 좌표로 변환한다.
// 어느 제공자도 결과를 내지 못하면 ErrNotFound를 반환한다.
func (r *Resolver) ForwardGeocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	query = util.TrimSpace(query)
	if query == "" {
		return nil, ErrNotFound
	}

	cacheKey := geoCacheForwardPrefix + query
	if r.cache != nil {
		var cached domain.GeocodeResult
		if found, _ := r.cache.Get(ctx, cacheKey, &cached); found && cached.Address != "" {
			return &cached, nil
		}
	}

	result, ok := strategy.First(ctx, query,
		r.forwardViaNaver,
		r.forwardViaNominatim,
	)
	if !ok || result == nil {
		return nil, ErrNotFound
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, cacheKey, result, constants.CacheTTL.GeocodeResult)
	}
	return result, nil
}

func (r *Resolver) hasNaverCredentials() bool {
	return r.cloudID != "" && r.cloudSecret != ""
}

func (r *Resolver) reverseViaNaver(ctx context.Context, coord [2]float64) (string, bool) {
	params := url.Values{}
	params.Set("coords", fmt.Sprintf("%f,%f", coord[0], coord[1]))
	params.Set("orders", "roadaddr,addr")
	params.Set("output", "json")

	data, ok := r.requestNaverWithFallback(ctx, r.reverseURLs, params)
	if !ok {
		return "", false
	}

	var payload naverReverseResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn("Naver reverse geocode parse failed", slog.Any("error", err))
		return "", false
	}

	address := extractReverseAddress(&payload)
	return address, address != ""
}

func (r *Resolver) forwardViaNaver(ctx context.Context, query string) (*domain.GeocodeResult, bool) {
	params := url.Values{}
	params.Set("query", query)

	data, ok := r.requestNaverWithFallback(ctx, r.forwardURLs, params)
	if !ok {
		return nil, false
	}

	var payload naverForwardResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn("Naver geocode parse failed", slog.Any("error", err))
		return nil, false
	}

	result := extractForwardResult(&payload, query)
	return result, result != nil
}

// requestNaverWithFallback: 같은 논리 제공자의 게이트웨이 호스트들을 순서대로 시도한다.
// 자격 증명이 없으면 헛된 요청을 보내지 않고 즉시 폴백으로 넘어간다.
func (r *Resolver) requestNaverWithFallback(ctx context.Context, urls []string, params url.Values) ([]byte, bool) {
	if !r.hasNaverCredentials() {
		r.logger.Warn("Naver Cloud credentials missing, skipping to fallback provider")
		return nil, false
	}

	for _, endpoint := range urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), http.NoBody)
		if err != nil {
			continue
		}
		req.Header.Set("x-ncp-apigw-api-key-id", r.cloudID)
		req.Header.Set("x-ncp-apigw-api-key", r.cloudSecret)

		body, err := doRead(r.naverClient, req)
		if err != nil {
			var upstream *apperrors.UpstreamError
			if errors.As(err, &upstream) && !upstream.Unavailable() {
				r.logger.Warn("Naver Maps API rejected request",
					slog.String("url", endpoint),
					slog.Int("status", upstream.StatusCode))
			} else {
				r.logger.Warn("Naver Maps API request error",
					slog.String("url", endpoint),
					slog.Any("error", err))
			}
			continue
		}

		return body, true
	}

	return nil, false
}

func (r *Resolver) reverseViaNominatim(ctx context.Context, coord [2]float64) (string, bool) {
	r.logger.Info("Falling back to OSM Nominatim reverse geocoding")

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord[1], 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord[0], 'f', -1, 64))
	params.Set("format", "json")
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	body, ok := r.requestNominatim(ctx, r.osmReverse, params)
	if !ok {
		return "", false
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		r.logger.Warn("Nominatim reverse parse failed", slog.Any("error", err))
		return "", false
	}

	return payload.DisplayName, payload.DisplayName != ""
}

func (r *Resolver) forwardViaNominatim(ctx context.Context, query string) (*domain.GeocodeResult, bool) {
	r.logger.Info("Falling back to OSM Nominatim geocoding", slog.String("query", query))

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	body, ok := r.requestNominatim(ctx, r.osmSearch, params)
	if !ok {
		return nil, false
	}

	var payload []struct {
		DisplayName string `json:"display_name"`
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return nil, false
	}

	lat, latErr := strconv.ParseFloat(payload[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(payload[0].Lon, 64)
	if latErr != nil || lonErr != nil || !util.ValidCoordinate(lat, lon) {
		return nil, false
	}

	return &domain.GeocodeResult{
		Address:   payload[0].DisplayName,
		Latitude:  lat,
		Longitude: lon,
	}, true
}

func (r *Resolver) requestNominatim(ctx context.Context, endpoint string, params url.Values) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", r.osmUserAgent)

	body, err := doRead(r.osmClient, req)
	if err != nil {
		r.logger.Warn("OSM Nominatim request failed", slog.String("url", endpoint), slog.Any("error", err))
		return nil, false
	}
	return body, true
}

// naverReverseResponse: 역지오코딩 응답의 지역 계층 구조 (필요한 필드만 부분 파싱)
type naverReverseResponse struct {
	Results []struct {
		Name   string `json:"name"`
		Region struct {
			Area1 naverArea `json:"area1"`
			Area2 naverArea `json:"area2"`
			Area3 naverArea `json:"area3"`
			Area4 naverArea `json:"area4"`
		} `json:"region"`
		Land struct {
			Name    string `json:"name"`
			Number1 string `json:"number1"`
			Number2 string `json:"number2"`
		} `json:"land"`
	} `json:"results"`
}

type naverArea struct {
	Name string `json:"name"`
}

// extractReverseAddress: roadaddr 결과를 addr보다 우선해 고르고,
// 비어있지 않은 행정구역 단계 1~4를 공백으로 이어 붙인다.
// roadaddr일 때는 도로명(land.name)과 건물 번호까지 덧붙인다.
func extractReverseAddress(payload *naverReverseResponse) string {
	for _, preferred := range []string{"roadaddr", "addr"} {
		for i := range payload.Results {
			result := &payload.Results[i]
			if result.Name != preferred {
				continue
			}

			parts := make([]string, 0, 6)
			for _, area := range []string{
				result.Region.Area1.Name,
				result.Region.Area2.Name,
				result.Region.Area3.Name,
				result.Region.Area4.Name,
			} {
				if area != "" {
					parts = append(parts, area)
				}
			}
			if len(parts) == 0 {
				continue
			}

			if preferred == "roadaddr" && result.Land.Name != "" {
				parts = append(parts, result.Land.Name)
				if result.Land.Number1 != "" {
					number := result.Land.Number1
					if result.Land.Number2 != "" {
						number += "-" + result.Land.Number2
					}
					parts = append(parts, number)
				}
			}

			return strings.Join(parts, " ")
		}
	}
	return ""
}

// naverForwardResponse: 정방향 지오코딩 응답 (좌표는 문자열로 내려온다)
type naverForwardResponse struct {
	Addresses []struct {
		X              string `json:"x"`
		Y              string `json:"y"`
		RoadAddress    string `json:"roadAddress"`
		JibunAddress   string `json:"jibunAddress"`
		EnglishAddress string `json:"englishAddress"`
	} `json:"addresses"`
}

// extractForwardResult: 첫 후보의 좌표와 가용한 최선의 주소 문자열을 고른다.
// (도로명 주소 > 지번 주소 > 영문 주소 > 원 질의)
func extractForwardResult(payload *naverForwardResponse, query string) *domain.GeocodeResult {
	if len(payload.Addresses) == 0 {
		return nil
	}

	first := payload.Addresses[0]
	lon, lonErr := strconv.ParseFloat(first.X, 64)
	lat, latErr := strconv.ParseFloat(first.Y, 64)
	if lonErr != nil || latErr != nil || !util.ValidCoordinate(lat, lon) {
		return nil
	}

	address := first.RoadAddress
	if address == "" {
		address = first.JibunAddress
	}
	if address == "" {
		address = first.EnglishAddress
	}
	if address == "" {
		address = query
	}

	return &domain.GeocodeResult{
		Address:   address,
		Latitude:  lat,
		Longitude: lon,
	}
}

// doRead: 요청을 수행하고 본문을 읽는다. non-200은 UpstreamError로 변환한다.
func doRead(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocode", req.URL.Host, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewUpstreamError("geocode", req.URL.Host, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewUpstreamError("geocode", req.URL.Host, 0, err)
	}
	return body, nil
}

// maxResponseBytes: 지오코딩 응답 본문 상한 (비정상적으로 큰 응답 방어)
const maxResponseBytes = 1 << 20
