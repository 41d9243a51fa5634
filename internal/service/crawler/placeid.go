package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// placeIDPagePatterns: 검색 결과 페이지 본문에서 플레이스 ID를 찾는 패턴 목록 (순서대로 시도)
var placeIDPagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/restaurant/(\d+)`),
	regexp.MustCompile(`/entry/place/(\d+)`),
	regexp.MustCompile(`/place/(\d+)`),
	regexp.MustCompile(`"placeId"\s*:\s*"(\d{5,})"`),
	regexp.MustCompile(`"id"\s*:\s*"(\d{5,})"`),
}

// placeIDLinkPatterns: 네이버 계열 URL에서 플레이스 ID를 뽑는 패턴 목록
var placeIDLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`restaurant/(\d+)`),
	regexp.MustCompile(`entry/place/(\d+)`),
	regexp.MustCompile(`place/(\d+)`),
	regexp.MustCompile(`place_id=(\d+)`),
	regexp.MustCompile(`/(\d{8,})`),
}

var parentheticalRe = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)

// PlaceIDFromLink: 검색 결과의 링크 URL에서 플레이스 ID를 추출한다.
func PlaceIDFromLink(naverLink string) string {
	if naverLink == "" {
		return ""
	}
	for _, re := range placeIDLinkPatterns {
		if match := re.FindStringSubmatch(naverLink); match != nil {
			return match[1]
		}
	}
	return ""
}

// FindPlaceID: 링크가 없을 때 이름/주소 질의로 플레이스 ID를 역조회한다.
// 조회 결과는 캐시되어 같은 가게의 재검색을 아낀다.
func (c *NaverPlaceCrawler) FindPlaceID(ctx context.Context, restaurantName, address string) string {
	queries := buildLookupQueries(restaurantName, address)
	if len(queries) == 0 {
		return ""
	}

	cacheKey := placeIDCachePrefix + queries[0]
	if c.cache != nil {
		var cached string
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found && cached != "" {
			return cached
		}
	}

	for _, query := range queries {
		encoded := url.QueryEscape(query)
		for _, template := range c.searchURLTemplates {
			pageURL := strings.Replace(template, "%s", encoded, 1)

			body, ok := c.fetch(ctx, pageURL)
			if !ok {
				continue
			}

			if placeID := extractPlaceIDFromText(body); placeID != "" {
				c.logger.Debug("place id resolved from search page",
					slog.String("query", query),
					slog.String("place_id", placeID))
				if c.cache != nil {
					_ = c.cache.Set(ctx, cacheKey, placeID, constants.CacheTTL.PlaceID)
				}
				return placeID
			}
		}
	}

	return ""
}

// buildLookupQueries: 이름+짧은 주소, 이름, 괄호 제거 변형 순으로
// 중복 없는 조회 질의를 만든다. 상한을 넘는 변형은 버린다.
func buildLookupQueries(restaurantName, address string) []string {
	name := util.TrimSpace(restaurantName)
	if name == "" {
		return nil
	}

	shortAddress := util.FirstTokens(address, 3)

	var queries []string
	if shortAddress != "" {
		queries = append(queries, name+" "+shortAddress)
	}
	queries = append(queries, name)

	if normalized := util.TrimSpace(parentheticalRe.ReplaceAllString(name, "")); normalized != "" && normalized != name {
		if shortAddress != "" {
			queries = append(queries, normalized+" "+shortAddress)
		}
		queries = append(queries, normalized)
	}

	unique := make([]string, 0, len(queries))
	for _, query := range queries {
		compact := util.CollapseWhitespace(query)
		if compact == "" || util.Contains(unique, compact) {
			continue
		}
		unique = append(unique, compact)
	}

	if len(unique) > constants.PlaceCrawlConfig.MaxLookupQueries {
		unique = unique[:constants.PlaceCrawlConfig.MaxLookupQueries]
	}
	return unique
}

func extractPlaceIDFromText(text string) string {
	for _, re := range placeIDPagePatterns {
		if match := re.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return ""
}
