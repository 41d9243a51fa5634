package crawler

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/textnorm"
	"github.com/ralskwo/FoodFinder/internal/util"
)

var priceChunkRe = regexp.MustCompile(`[\d,]+`)

// invalidMenuNames: 메뉴가 아닌 UI 라벨들 (페이지에서 메뉴 행과 섞여 긁힌다)
var invalidMenuNames = []string{
	"메뉴", "대표", "전체", "더보기", "원산지", "공지", "이벤트", "바로가기",
}

// dedupeAndRank: 추출 결과를 정규화, 검증, 중복 제거하고
// 상한을 적용한 뒤 선두 항목을 대표 메뉴로 표시한다.
func dedupeAndRank(rows []menuRow) []domain.MenuItem {
	type dedupeKey struct {
		name  string
		price int
	}

	seen := make(map[dedupeKey]struct{})
	items := make([]domain.MenuItem, 0, constants.PlaceCrawlConfig.MaxMenuItems)

	for _, row := range rows {
		name := textnorm.NormalizeMenuName(row.Name, "")
		if !validMenuName(name) {
			continue
		}

		price := parsePrice(row.Price)
		key := dedupeKey{name: name}
		if price != nil {
			key.price = *price
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		items = append(items, domain.MenuItem{
			Name:   name,
			Price:  price,
			Source: domain.MenuSourceNaver,
		})
		if len(items) >= constants.PlaceCrawlConfig.MaxMenuItems {
			break
		}
	}

	for i := 0; i < len(items) && i < constants.PlaceCrawlConfig.RepresentativeTop; i++ {
		items[i].IsRepresentative = true
	}

	return items
}

func validMenuName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) < 2 {
		return false
	}
	if util.Contains(invalidMenuNames, name) {
		return false
	}
	return !allDigits(name)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parsePrice: 숫자, 문자열, 쉼표 포함 표기를 원 단위 정수로 바꾼다.
// 0 이하와 상식 밖으로 큰 값은 버린다.
func parsePrice(raw any) *int {
	if raw == nil {
		return nil
	}

	var value int
	switch v := raw.(type) {
	case int:
		value = v
	case int64:
		value = int(v)
	case float64:
		value = int(v)
	case string:
		chunk := priceChunkRe.FindString(v)
		if chunk == "" {
			return nil
		}
		parsed, err := strconv.Atoi(strings.ReplaceAll(chunk, ",", ""))
		if err != nil {
			return nil
		}
		value = parsed
	default:
		return nil
	}

	if value <= 0 || value > constants.PlaceCrawlConfig.MaxPriceWon {
		return nil
	}
	return &value
}
