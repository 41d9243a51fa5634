// Package menu: 음식점/메뉴 영속화와 하이브리드 메뉴 캐싱을 담당한다.
// 크롤링 결과는 Postgres에 저장되고 updated_at 기준 24시간 동안 신선한 것으로 본다.
// 사용자가 직접 입력한 행은 재크롤링 시에도 삭제되지 않는다.
package menu

import (
	"time"

	"github.com/ralskwo/FoodFinder/internal/domain"
)

// Restaurant: 음식점 영속 모델
// PlaceID는 검색 결과 링크(없으면 이름+주소 해시)에서 유도한 안정 식별자다.
type Restaurant struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	PlaceID     string   `gorm:"size:100;uniqueIndex;not null" json:"place_id"`
	Name        string   `gorm:"size:200;not null" json:"name"`
	Category    string   `gorm:"size:50" json:"category"`
	Address     string   `gorm:"size:300" json:"address"`
	RoadAddress string   `gorm:"size:300" json:"road_address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Phone       string   `gorm:"size:20" json:"phone"`
	Rating      *float64 `json:"rating"`

	// 배달 정보 (사용자 입력)
	DeliveryAvailable bool `json:"delivery_available"`
	DeliveryFee       *int `json:"delivery_fee"`
	MinimumOrder      *int `json:"minimum_order"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName: gorm 테이블 이름
func (Restaurant) TableName() string { return "restaurants" }

// MenuRecord: 메뉴 영속 모델
// Source가 user인 행은 크롤링 갱신에서 보존된다.
type MenuRecord struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	RestaurantID     uint   `gorm:"index;not null" json:"-"`
	Name             string `gorm:"size:100;not null" json:"name"`
	Price            *int   `json:"price"`
	IsRepresentative bool   `json:"is_representative"`
	Source           string `gorm:"size:20" json:"source"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName: gorm 테이블 이름
func (MenuRecord) TableName() string { return "menus" }

// UserPreference: 세션 단위 검색 선호 설정
// FavoriteCategories는 JSON 배열 문자열로 저장된다.
type UserPreference struct {
	ID                 uint   `gorm:"primaryKey" json:"-"`
	SessionID          string `gorm:"size:100;uniqueIndex;not null" json:"session_id"`
	FavoriteCategories string `gorm:"type:text" json:"-"`
	MaxDistance        int    `gorm:"default:1000" json:"max_distance"`
	MaxPricePerPerson  *int   `json:"max_price_per_person"`
	MaxDeliveryFee     *int   `json:"max_delivery_fee"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName: gorm 테이블 이름
func (UserPreference) TableName() string { return "user_preferences" }

// ToMenuItem: 영속 모델을 도메인 모델로 변환한다.
func (m *MenuRecord) ToMenuItem() domain.MenuItem {
	return domain.MenuItem{
		Name:             m.Name,
		Price:            m.Price,
		IsRepresentative: m.IsRepresentative,
		Source:           domain.MenuSource(m.Source),
	}
}
