package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/ralskwo/FoodFinder/internal/util"
)

// PlaceCandidate: 검색 제공자가 반환한 단일 검색 결과
// 좌표/거리는 보강(enrichment) 단계에서 채워지기 전까지 nil일 수 있다.
type PlaceCandidate struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Address     string `json:"address"`
	RoadAddress string `json:"road_address"`
	Phone       string `json:"phone"`
	Link        string `json:"link"`

	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	DistanceMeters *int     `json:"distance"`
}

// DedupeKey: 태그를 제거한 제목 + 주소 + 도로명 주소로 만든 중복 제거 키
// 같은 업소가 여러 쿼리 변형에서 반복 반환되는 것을 걸러낸다.
func (p *PlaceCandidate) DedupeKey() string {
	return fmt.Sprintf("%s_%s_%s", util.StripTags(p.Title), p.Address, p.RoadAddress)
}

// HasCoordinate: 위도/경도가 모두 보강되었는지 확인한다.
func (p *PlaceCandidate) HasCoordinate() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Identity: 검색 결과와 저장된 메뉴 캐시를 잇는 결정적 음식점 키
type Identity string

// IdentityOf: 외부 링크가 있으면 링크에서, 없으면 (제목, 주소, 도로명 주소)에서
// 음식점 식별자를 파생한다. 같은 입력은 프로세스 재시작 후에도 같은 키를 만든다.
func IdentityOf(link, title, address, roadAddress string) Identity {
	seed := link
	if seed == "" {
		seed = fmt.Sprintf("%s_%s_%s", util.StripTags(title), address, roadAddress)
	}

	sum := sha1.Sum([]byte(seed))
	return Identity(hex.EncodeToString(sum[:])[:20])
}

// IdentityOfCandidate: PlaceCandidate로부터 Identity를 파생한다.
func IdentityOfCandidate(p *PlaceCandidate) Identity {
	return IdentityOf(p.Link, p.Title, p.Address, p.RoadAddress)
}
