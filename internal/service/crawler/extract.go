package crawler

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// menuRow: 추출 전략들이 내놓는 정제 전 중간 행
// Price는 문자열, 숫자, 중첩 객체에서 꺼낸 값 등 무엇이든 될 수 있다.
type menuRow struct {
	Name  string
	Price any
}

var (
	nextDataScriptRe = regexp.MustCompile(`(?is)<script[^>]*id="__NEXT_DATA__"[^>]*>(.*?)</script>`)
	jsonScriptRe     = regexp.MustCompile(`(?is)<script[^>]*type="application/json"[^>]*>(.*?)</script>`)

	menuFieldTextRe = regexp.MustCompile(
		`(?is)"menu(?:Name|Nm|name)"\s*:\s*"([^"]{1,80})".{0,200}?"(?:menuPrice|price|amount)"\s*:\s*"?([\d,]{3,7})"?`)
	nameFieldTextRe = regexp.MustCompile(
		`(?is)"name"\s*:\s*"([^"]{1,80})".{0,200}?"(?:menuPrice|price|amount)"\s*:\s*"?([\d,]{3,7})"?`)
	wonSuffixTextRe = regexp.MustCompile(
		`(?is)>([^<]{2,40})<.{0,80}?([\d,]{3,7})\s*원`)
)

// extractFromDOM: 클래스 이름 힌트로 메뉴 블록을 찾는 DOM 전략
// 네이버가 클래스 이름을 난독화해도 menu/name/price가 포함되는 경우가 많다.
func (c *NaverPlaceCrawler) extractFromDOM(_ context.Context, pageHTML string) ([]menuRow, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		c.logger.Debug("DOM parse failed, relying on text strategies", "error", err)
		return nil, false
	}

	var rows []menuRow
	doc.Find(`.menu_item, .item_menu, [class*="menu"], li[class*="Menu"], div[class*="Menu"]`).
		Each(func(_ int, item *goquery.Selection) {
			name := strings.TrimSpace(item.Find(`.name, .menu_name, [class*="name"]`).First().Text())
			if name == "" {
				return
			}

			var price any
			if priceText := strings.TrimSpace(item.Find(`.price, .menu_price, [class*="price"]`).First().Text()); priceText != "" {
				price = priceText
			}
			rows = append(rows, menuRow{Name: name, Price: price})
		})

	return rows, len(rows) > 0
}

// extractFromEmbeddedJSON: __NEXT_DATA__와 application/json 스크립트 블록을
// 파싱해 메뉴처럼 생긴 객체를 재귀적으로 긁어모은다.
func (c *NaverPlaceCrawler) extractFromEmbeddedJSON(_ context.Context, pageHTML string) ([]menuRow, bool) {
	var rows []menuRow

	for _, re := range []*regexp.Regexp{nextDataScriptRe, jsonScriptRe} {
		for _, match := range re.FindAllStringSubmatch(pageHTML, -1) {
			rows = append(rows, rowsFromJSONBlob(match[1])...)
		}
	}

	return rows, len(rows) > 0
}

func rowsFromJSONBlob(text string) []menuRow {
	text = strings.TrimSpace(html.UnescapeString(text))
	if text == "" {
		return nil
	}

	var payload any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil
	}

	var rows []menuRow
	walkJSON(payload, &rows)
	return rows
}

// walkJSON: 임의 구조의 JSON을 내려가며 메뉴 이름/가격 키 조합을 수집한다.
func walkJSON(payload any, rows *[]menuRow) {
	switch node := payload.(type) {
	case map[string]any:
		name := firstString(node, "menuName", "menuNm", "name", "title")
		price := firstValue(node, "menuPrice", "price", "priceValue", "amount")
		if nested, ok := price.(map[string]any); ok {
			price = firstValue(nested, "value", "price")
		}

		if name != "" {
			*rows = append(*rows, menuRow{Name: name, Price: price})
		}

		for _, value := range node {
			walkJSON(value, rows)
		}
	case []any:
		for _, value := range node {
			walkJSON(value, rows)
		}
	}
}

func firstString(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := node[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func firstValue(node map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := node[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// extractFromText: 구조 파싱이 전부 실패했을 때의 정규식 최후 수단
// "메뉴명 ... 9,000원" 같은 패턴까지 긁는다.
func (c *NaverPlaceCrawler) extractFromText(_ context.Context, pageHTML string) ([]menuRow, bool) {
	var rows []menuRow

	for _, re := range []*regexp.Regexp{menuFieldTextRe, nameFieldTextRe, wonSuffixTextRe} {
		for _, match := range re.FindAllStringSubmatch(pageHTML, -1) {
			rows = append(rows, menuRow{Name: match[1], Price: match[2]})
		}
	}

	return rows, len(rows) > 0
}
