// Package textnorm: 인코딩 오판으로 깨진(모지바케) 텍스트를 휴리스틱으로 복원하고,
// 메뉴 이름을 화면에 노출 가능한 형태로 정규화한다.
package textnorm

import (
	"html"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// DefaultFallback: 정규화 결과가 노출 불가능할 때 대신 보여주는 라벨
const DefaultFallback = "메뉴명 확인 필요"

// 이중 디코딩 산물로 흔히 나타나는 Latin-1 범위 문자들. U+FFFD는 항상 힌트로 취급한다.
const mojibakeHints = "ÃÂìíîïðñòóôõöùúûüýþÿ�"

// Scoring: 복원 후보 문자열의 점수 가중치
// 새로운 부패 패턴이 생기면 호출부 수정 없이 가중치/코덱만 조정한다.
type Scoring struct {
	ScriptWeight  int // 한글 문자당 가산점
	ASCIIWeight   int // ASCII 영숫자당 가산점
	HintPenalty   int // 모지바케 힌트 문자당 감점
	ReplaceMargin int // 원본 대비 이 이상 점수가 높아야 교체
}

// Normalizer: 후보 코덱 목록과 점수 설정을 갖는 텍스트 정규화기
type Normalizer struct {
	codecs  []*charmap.Charmap
	scoring Scoring
}

// New: 기본 코덱(Latin-1, Windows-1252)과 기본 가중치로 Normalizer를 생성한다.
func New() *Normalizer {
	return &Normalizer{
		codecs: []*charmap.Charmap{
			charmap.ISO8859_1,
			charmap.Windows1252,
		},
		scoring: Scoring{
			ScriptWeight:  4,
			ASCIIWeight:   1,
			HintPenalty:   3,
			ReplaceMargin: 2,
		},
	}
}

var defaultNormalizer = New()

// NormalizeMenuName: 기본 정규화기로 메뉴 이름을 정규화한다.
func NormalizeMenuName(raw, fallback string) string {
	return defaultNormalizer.NormalizeMenuName(raw, fallback)
}

// RepairMojibake: 기본 정규화기로 모지바케 텍스트를 복원한다.
func RepairMojibake(raw string) string {
	return defaultNormalizer.Repair(raw)
}

// LooksLikeMojibake: 기본 정규화기로 모지바케 여부를 판별한다.
func LooksLikeMojibake(text string) bool {
	return defaultNormalizer.LooksLikeMojibake(text)
}

// Score: 텍스트의 "읽을 수 있음" 점수를 계산한다.
// 한글이 많을수록 높고, 이중 디코딩 힌트 문자가 많을수록 낮다.
func (n *Normalizer) Score(text string) int {
	score := 0
	for _, r := range text {
		switch {
		case isHangul(r):
			score += n.scoring.ScriptWeight
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			score += n.scoring.ASCIIWeight
		case strings.ContainsRune(mojibakeHints, r):
			score -= n.scoring.HintPenalty
		}
	}
	return score
}

// LooksLikeMojibake: 텍스트가 인코딩 부패의 흔적을 보이는지 판별한다.
// U+FFFD가 있으면 즉시 true, 힌트 문자 2개 이상 + 한글 0개도 true.
func (n *Normalizer) LooksLikeMojibake(text string) bool {
	if text == "" {
		return false
	}

	if strings.ContainsRune(text, utf8.RuneError) {
		return true
	}

	hints := 0
	hangul := 0
	for _, r := range text {
		if strings.ContainsRune(mojibakeHints, r) {
			hints++
		}
		if isHangul(r) {
			hangul++
		}
	}
	return hints >= 2 && hangul == 0
}

// Repair: 후보 재해석 목록을 만들어 점수가 가장 높은 문자열을 고른다.
// 점수가 ReplaceMargin 이상 개선되거나, 원본만 모지바케로 판별될 때에만 교체한다.
func (n *Normalizer) Repair(raw string) string {
	text := util.TrimSpace(html.UnescapeString(raw))
	if text == "" {
		return ""
	}

	candidates := []string{text}
	for _, codec := range n.codecs {
		if decoded, ok := reinterpret(text, codec); ok {
			candidates = append(candidates, decoded)
		}
	}
	if strings.Contains(text, `\u`) {
		if unescaped, ok := unescapeUnicode(text); ok {
			candidates = append(candidates, unescaped)
		}
	}

	best := text
	bestScore := n.Score(text)
	for _, candidate := range candidates[1:] {
		if score := n.Score(candidate); score > bestScore {
			best, bestScore = candidate, score
		}
	}

	current := text
	currentScore := n.Score(current)
	if bestScore >= currentScore+n.scoring.ReplaceMargin ||
		(n.LooksLikeMojibake(current) && !n.LooksLikeMojibake(best)) {
		current = best
	}

	return util.CollapseWhitespace(current)
}

// NormalizeMenuName: 복원 + 마크업 제거 + 공백 정리 후, 노출 불가능한 결과는
// fallback 라벨로 대체한다. 호출자는 절대 빈 문자열이나 깨진 이름을 받지 않는다.
func (n *Normalizer) NormalizeMenuName(raw, fallback string) string {
	text := n.Repair(raw)
	text = util.CollapseWhitespace(util.StripTags(text))

	if text == "" {
		return fallback
	}
	if utf8.RuneCountInString(text) < 2 {
		return fallback
	}
	if !hasWordRune(text) {
		return fallback
	}
	if n.LooksLikeMojibake(text) {
		return fallback
	}

	return util.TruncateRunes(text, constants.PlaceCrawlConfig.MaxNameRunes)
}

func isHangul(r rune) bool {
	return r >= '가' && r <= '힣'
}

func hasWordRune(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// reinterpret: 멀티바이트 UTF-8이 바이트 단위 코덱으로 잘못 디코딩된 경우를 되돌린다.
// 텍스트를 해당 코덱으로 재인코딩한 뒤 그 바이트열이 유효한 UTF-8일 때만 후보로 삼는다.
func reinterpret(text string, codec *charmap.Charmap) (string, bool) {
	encoded, err := codec.NewEncoder().String(text)
	if err != nil {
		return "", false
	}
	if !utf8.ValidString(encoded) || encoded == text {
		return "", false
	}
	return encoded, true
}

// unescapeUnicode: 명시적인 \uXXXX 이스케이프 시퀀스를 실제 문자로 변환한다.
func unescapeUnicode(text string) (string, bool) {
	quoted := `"` + strings.ReplaceAll(text, `"`, `\"`) + `"`
	unquoted, err := strconv.Unquote(quoted)
	if err != nil {
		return "", false
	}
	return unquoted, true
}
