package domain

// MenuSource: 메뉴 항목의 출처
type MenuSource string

// MenuSource 상수 목록.
const (
	// MenuSourceNaver: 네이버 플레이스 크롤링으로 수집된 메뉴
	MenuSourceNaver MenuSource = "naver"
	// MenuSourceDelivery: 배달앱 크롤링으로 수집된 메뉴
	MenuSourceDelivery MenuSource = "delivery"
	// MenuSourceUser: 사용자가 직접 기여한 메뉴 (재크롤링 시 보존)
	MenuSourceUser MenuSource = "user"
	// MenuSourceUnknown: 출처 불명
	MenuSourceUnknown MenuSource = "unknown"
)

// MenuItem: 정규화된 메뉴 이름과 선택적 가격(원 단위)을 담는 메뉴 항목
type MenuItem struct {
	Name             string     `json:"name"`
	Price            *int       `json:"price"`
	IsRepresentative bool       `json:"is_representative"`
	Source           MenuSource `json:"source"`
}

// RepresentativeMenu: 검색 응답에 노출되는 대표 메뉴 요약
type RepresentativeMenu struct {
	Name  string `json:"name"`
	Price *int   `json:"price"`
}
