package search

import (
	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// BuildQueryVariants: 위치 힌트와 카테고리를 조합해 검색 쿼리 변형을 만든다.
// 중복은 제거되고 상한을 넘는 변형은 버려진다. 최소한 원 쿼리 하나는 보장된다.
func BuildQueryVariants(query, locationHint string, categories []string) []string {
	hint := util.FirstTokens(locationHint, 3)
	normalized := normalizeCategories(categories)

	var rows []string
	if hint != "" {
		rows = appendQuery(rows, hint+" "+query)
	}
	rows = appendQuery(rows, query)

	for _, category := range normalized {
		if hint != "" {
			rows = appendQuery(rows, hint+" "+category)
		}
		rows = appendQuery(rows, category)

		if query != category {
			rows = appendQuery(rows, query+" "+category)
			if hint != "" {
				rows = appendQuery(rows, hint+" "+query+" "+category)
			}
		}

		if len(rows) >= constants.NaverSearchConfig.MaxQueryVariants {
			break
		}
	}

	if len(rows) > constants.NaverSearchConfig.MaxQueryVariants {
		rows = rows[:constants.NaverSearchConfig.MaxQueryVariants]
	}
	if len(rows) == 0 {
		rows = []string{query}
	}
	return rows
}

func normalizeCategories(categories []string) []string {
	var normalized []string
	for _, category := range categories {
		value := util.TrimSpace(category)
		if value == "" || value == "전체" || util.Normalize(value) == "all" {
			continue
		}
		normalized = append(normalized, value)
	}
	return normalized
}

func appendQuery(rows []string, value string) []string {
	query := util.CollapseWhitespace(value)
	if query == "" || util.Contains(rows, query) {
		return rows
	}
	return append(rows, query)
}
