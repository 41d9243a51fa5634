// Package search: 네이버 지역 검색을 중심으로 후보를 모으고
// 지오코딩으로 좌표를 보강한 뒤 반경 기준으로 정렬하는 집계 서비스
package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// Geocoder: 주소 문자열을 좌표로 바꾸는 의존성
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
}

// LocalSearcher: 페이지 단위 지역 검색 의존성
type LocalSearcher interface {
	SearchPage(ctx context.Context, query string, start, display int) ([]domain.PlaceCandidate, error)
	Enabled() bool
}

// SupplementarySearcher: 좌표를 직접 내려주는 보조 검색 소스 (카카오)
type SupplementarySearcher interface {
	SearchNearby(ctx context.Context, keyword string, lon, lat float64, radiusMeters int) ([]domain.PlaceCandidate, error)
	Enabled() bool
}

// Request: 검색 요청 파라미터
// Latitude/Longitude가 nil이면 거리 계산 없이 수집 결과를 그대로 반환한다.
type Request struct {
	Query        string
	Latitude     *float64
	Longitude    *float64
	RadiusMeters int
	Display      int
	LocationHint string
	Categories   []string
}

// Aggregator: 다중 소스 검색 집계기
// 어떤 실패도 전체 검색을 실패시키지 않는다. 최악의 경우 빈 목록을 반환한다.
type Aggregator struct {
	local    LocalSearcher
	kakao    SupplementarySearcher
	geocoder Geocoder
	logger   *slog.Logger
}

// NewAggregator: 검색 집계기를 생성한다. kakao와 geocoder는 nil일 수 있다.
func NewAggregator(local LocalSearcher, kakao SupplementarySearcher, geocoder Geocoder, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		local:    local,
		kakao:    kakao,
		geocoder: geocoder,
		logger:   logger,
	}
}

// Search: 쿼리 변형을 돌며 후보를 수집하고 좌표 보강과 반경 필터링을 수행한다.
// 반경 안에 후보가 하나도 없으면 반경 밖 후보를 거리순으로 반환한다.
// 호출자가 자체 필터링으로 살릴 수 있게 하기 위함이다.
func (a *Aggregator) Search(ctx context.Context, req Request) []domain.PlaceCandidate {
	query := util.TrimSpace(req.Query)
	if query == "" {
		query = constants.SearchDefaults.Query
	}

	display := req.Display
	if display <= 0 {
		display = constants.SearchDefaults.DisplayLimit
	}
	maxItems := util.Clamp(display,
		constants.NaverSearchConfig.PageSize,
		constants.NaverSearchConfig.PageSize*constants.NaverSearchConfig.MaxPageSteps)

	candidates := a.collect(ctx, query, req, maxItems)
	if len(candidates) == 0 {
		return nil
	}

	a.enrich(ctx, candidates)

	if req.Latitude == nil || req.Longitude == nil {
		return candidates
	}

	radius := req.RadiusMeters
	if radius <= 0 {
		radius = constants.SearchDefaults.RadiusMeters
	}

	return partitionByRadius(candidates, *req.Latitude, *req.Longitude, radius)
}

// collect: 쿼리 변형 × 페이지 루프로 후보를 모으고 변형 간 중복을 제거한다.
func (a *Aggregator) collect(ctx context.Context, query string, req Request, maxItems int) []domain.PlaceCandidate {
	queries := BuildQueryVariants(query, req.LocationHint, req.Categories)
	pageSize := constants.NaverSearchConfig.PageSize

	seen := make(map[string]struct{})
	var collected []domain.PlaceCandidate

	if a.local != nil && a.local.Enabled() {
	outer:
		for _, variant := range queries {
			for start := 1; start <= pageSize*constants.NaverSearchConfig.MaxPageSteps; start += pageSize {
				if len(collected) >= maxItems {
					break outer
				}

				remaining := maxItems - len(collected)
				items, err := a.local.SearchPage(ctx, variant, start, util.Min(pageSize, remaining))
				if err != nil {
					a.logger.Warn("local search page failed",
						slog.String("query", variant),
						slog.Int("start", start),
						slog.Any("error", err))
					break
				}
				if len(items) == 0 {
					break
				}

				for i := range items {
					key := items[i].DedupeKey()
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					collected = append(collected, items[i])
				}
			}
		}
	}

	// 보조 소스는 좌표가 있을 때만 의미가 있다
	if a.kakao != nil && a.kakao.Enabled() && req.Latitude != nil && req.Longitude != nil {
		radius := req.RadiusMeters
		if radius <= 0 {
			radius = constants.SearchDefaults.RadiusMeters
		}

		extra, err := a.kakao.SearchNearby(ctx, query, *req.Longitude, *req.Latitude, radius)
		if err != nil {
			a.logger.Warn("supplementary search failed", slog.Any("error", err))
		}
		for i := range extra {
			key := extra[i].DedupeKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			collected = append(collected, extra[i])
		}
	}

	return collected
}

// enrich: 좌표가 없는 후보를 주소 지오코딩으로 병렬 보강한다.
// 같은 주소의 후보를 먼저 묶고 주소당 작업 하나만 제출하므로,
// 동시에 돌아도 같은 주소가 두 번 조회되는 일은 없다.
func (a *Aggregator) enrich(ctx context.Context, candidates []domain.PlaceCandidate) {
	if a.geocoder == nil {
		return
	}

	byAddress := make(map[string][]*domain.PlaceCandidate)
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.HasCoordinate() {
			continue
		}

		address := candidate.RoadAddress
		if address == "" {
			address = candidate.Address
		}
		if address == "" {
			continue
		}
		byAddress[address] = append(byAddress[address], candidate)
	}

	workers := pool.New().WithMaxGoroutines(constants.SearchDefaults.EnrichConcurrency)
	for address, group := range byAddress {
		workers.Go(func() {
			result, err := a.geocoder.ForwardGeocode(ctx, address)
			if err != nil || result == nil {
				return
			}
			for _, candidate := range group {
				lat, lon := result.Latitude, result.Longitude
				candidate.Latitude = &lat
				candidate.Longitude = &lon
			}
		})
	}
	workers.Wait()
}

// partitionByRadius: 거리를 계산해 반경 안 후보를 거리순으로 반환한다.
// 반경 안이 비어 있으면 나머지 전부를 거리순으로 반환한다. (best-effort)
func partitionByRadius(candidates []domain.PlaceCandidate, lat, lon float64, radiusMeters int) []domain.PlaceCandidate {
	var nearby, fallback []domain.PlaceCandidate

	for i := range candidates {
		candidate := candidates[i]
		if !candidate.HasCoordinate() {
			fallback = append(fallback, candidate)
			continue
		}

		distance := int(util.HaversineMeters(lat, lon, *candidate.Latitude, *candidate.Longitude))
		candidate.DistanceMeters = &distance

		if distance <= radiusMeters {
			nearby = append(nearby, candidate)
		} else {
			fallback = append(fallback, candidate)
		}
	}

	sortByDistance(nearby)
	if len(nearby) > 0 {
		return nearby
	}

	sortByDistance(fallback)
	return fallback
}

func sortByDistance(candidates []domain.PlaceCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := distanceOrHuge(&candidates[i]), distanceOrHuge(&candidates[j])
		return di < dj
	})
}

func distanceOrHuge(p *domain.PlaceCandidate) int {
	if p.DistanceMeters == nil {
		return 1 << 30
	}
	return *p.DistanceMeters
}
