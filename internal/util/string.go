package util

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// TrimSpace: 문자열 양쪽 끝의 공백을 제거한다. (strings.TrimSpace 래퍼)
func TrimSpace(s string) string {
	return strings.TrimSpace(s)
}

// StripTags: 문자열에서 HTML 태그를 제거한다.
// 네이버 검색 응답의 title 필드는 <b>...</b> 마크업을 포함할 수 있다.
func StripTags(s string) string {
	return htmlTagRe.ReplaceAllString(s, "")
}

// CollapseWhitespace: 연속된 공백(개행 포함)을 단일 공백으로 줄이고 양끝을 다듬는다.
func CollapseWhitespace(s string) string {
	return TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// TruncateRunes: 문자열을 최대 길이(Rune 기준)로 자른다.
func TruncateRunes(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// Normalize: 문자열을 소문자로 변환하고 양쪽 공백을 제거합니다.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Contains: 문자열 슬라이스에 특정 문자열이 포함되어 있는지 확인합니다.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// FirstTokens: 공백으로 나눈 앞쪽 n개 토큰을 다시 이어 붙여 반환한다.
// 긴 주소 문자열을 짧은 지역 힌트로 줄일 때 사용한다.
func FirstTokens(s string, n int) string {
	tokens := strings.Fields(s)
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return strings.Join(tokens, " ")
}
