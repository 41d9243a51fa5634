package menu

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ralskwo/FoodFinder/internal/domain"
	apperrors "github.com/ralskwo/FoodFinder/pkg/errors"
)

// ErrRestaurantNotFound: 요청한 place_id의 음식점이 저장되어 있지 않음
var ErrRestaurantNotFound = errors.New("menu: restaurant not found")

// Repository: 음식점/메뉴/선호 설정 영속화 인터페이스
// 서비스 로직과 스토리지를 분리해 테스트에서 가짜 구현으로 대체한다.
type Repository interface {
	GetOrCreateRestaurant(ctx context.Context, candidate *domain.PlaceCandidate) (*Restaurant, error)
	FindRestaurant(ctx context.Context, placeID string) (*Restaurant, error)
	UpdateDeliveryInfo(ctx context.Context, restaurant *Restaurant) error

	FindFreshMenus(ctx context.Context, restaurantID uint, since time.Time) ([]MenuRecord, error)
	FindAllMenus(ctx context.Context, restaurantID uint) ([]MenuRecord, error)
	ReplaceCrawledMenus(ctx context.Context, restaurantID uint, items []domain.MenuItem, source domain.MenuSource) error
	InsertUserMenu(ctx context.Context, restaurantID uint, name string, price *int) (*MenuRecord, error)

	ListRecentMenus(ctx context.Context, limit int) ([]MenuRecord, error)
	UpdateMenuName(ctx context.Context, menuID uint, name string) error

	FindPreference(ctx context.Context, sessionID string) (*UserPreference, error)
	UpsertPreference(ctx context.Context, pref *UserPreference) error
}

// GormRepository: gorm 기반 Repository 구현
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository: gorm 커넥션으로 저장소를 생성한다.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate: 스키마를 생성/갱신한다. 서버 기동 시 한 번 호출된다.
func (r *GormRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Restaurant{}, &MenuRecord{}, &UserPreference{})
}

// GetOrCreateRestaurant: 검색 결과 후보를 영속 음식점 행으로 해석한다.
// 동시 삽입 경합에서 지면 기존 행을 다시 읽는다.
func (r *GormRepository) GetOrCreateRestaurant(ctx context.Context, candidate *domain.PlaceCandidate) (*Restaurant, error) {
	placeID := string(domain.IdentityOfCandidate(candidate))

	var restaurant Restaurant
	err := r.db.WithContext(ctx).Where("place_id = ?", placeID).First(&restaurant).Error
	if err == nil {
		return &restaurant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewServiceError("menu", "find restaurant", err)
	}

	restaurant = Restaurant{
		PlaceID:     placeID,
		Name:        candidate.Title,
		Category:    candidate.Category,
		Address:     candidate.Address,
		RoadAddress: candidate.RoadAddress,
		Phone:       candidate.Phone,
	}
	if candidate.Latitude != nil {
		restaurant.Latitude = *candidate.Latitude
	}
	if candidate.Longitude != nil {
		restaurant.Longitude = *candidate.Longitude
	}

	if err := r.db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		var existing Restaurant
		if retryErr := r.db.WithContext(ctx).Where("place_id = ?", placeID).First(&existing).Error; retryErr == nil {
			return &existing, nil
		}
		return nil, apperrors.NewServiceError("menu", "create restaurant", err)
	}

	return &restaurant, nil
}

// FindRestaurant: place_id로 음식점을 조회한다.
func (r *GormRepository) FindRestaurant(ctx context.Context, placeID string) (*Restaurant, error) {
	var restaurant Restaurant
	err := r.db.WithContext(ctx).Where("place_id = ?", placeID).First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, apperrors.NewServiceError("menu", "find restaurant", err)
	}
	return &restaurant, nil
}

// UpdateDeliveryInfo: 배달 관련 필드를 저장한다. (행이 없으면 생성)
func (r *GormRepository) UpdateDeliveryInfo(ctx context.Context, restaurant *Restaurant) error {
	if err := r.db.WithContext(ctx).Save(restaurant).Error; err != nil {
		return apperrors.NewServiceError("menu", "update delivery info", err)
	}
	return nil
}

// FindFreshMenus: 갱신 시각이 since 이후인 메뉴만 조회한다.
func (r *GormRepository) FindFreshMenus(ctx context.Context, restaurantID uint, since time.Time) ([]MenuRecord, error) {
	var menus []MenuRecord
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ? AND updated_at >= ?", restaurantID, since).
		Order("id").
		Find(&menus).Error
	if err != nil {
		return nil, apperrors.NewServiceError("menu", "find fresh menus", err)
	}
	return menus, nil
}

// FindAllMenus: 신선도와 무관하게 음식점의 전체 메뉴를 조회한다.
func (r *GormRepository) FindAllMenus(ctx context.Context, restaurantID uint) ([]MenuRecord, error) {
	var menus []MenuRecord
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("id").
		Find(&menus).Error
	if err != nil {
		return nil, apperrors.NewServiceError("menu", "find menus", err)
	}
	return menus, nil
}

// ReplaceCrawledMenus: 크롤링 메뉴를 원자적으로 교체한다.
// user 소스 행은 삭제 대상에서 제외된다.
func (r *GormRepository) ReplaceCrawledMenus(ctx context.Context, restaurantID uint, items []domain.MenuItem, source domain.MenuSource) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("restaurant_id = ? AND source <> ?", restaurantID, string(domain.MenuSourceUser)).
			Delete(&MenuRecord{}).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		records := make([]MenuRecord, 0, len(items))
		for _, item := range items {
			records = append(records, MenuRecord{
				RestaurantID:     restaurantID,
				Name:             item.Name,
				Price:            item.Price,
				IsRepresentative: item.IsRepresentative,
				Source:           string(source),
			})
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return apperrors.NewServiceError("menu", "replace crawled menus", err)
	}
	return nil
}

// InsertUserMenu: 사용자 기여 메뉴를 추가한다. 이후 크롤링 갱신에도 살아남는다.
func (r *GormRepository) InsertUserMenu(ctx context.Context, restaurantID uint, name string, price *int) (*MenuRecord, error) {
	record := MenuRecord{
		RestaurantID: restaurantID,
		Name:         name,
		Price:        price,
		Source:       string(domain.MenuSourceUser),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, apperrors.NewServiceError("menu", "insert user menu", err)
	}
	return &record, nil
}

// ListRecentMenus: 이름 보수 작업을 위해 최근 갱신된 메뉴를 읽는다.
func (r *GormRepository) ListRecentMenus(ctx context.Context, limit int) ([]MenuRecord, error) {
	var menus []MenuRecord
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Find(&menus).Error
	if err != nil {
		return nil, apperrors.NewServiceError("menu", "list recent menus", err)
	}
	return menus, nil
}

// UpdateMenuName: 저장된 메뉴 이름을 교정한다.
func (r *GormRepository) UpdateMenuName(ctx context.Context, menuID uint, name string) error {
	err := r.db.WithContext(ctx).
		Model(&MenuRecord{}).
		Where("id = ?", menuID).
		Update("name", name).Error
	if err != nil {
		return apperrors.NewServiceError("menu", "update menu name", err)
	}
	return nil
}

// FindPreference: 세션의 선호 설정을 조회한다. 없으면 nil을 반환한다.
func (r *GormRepository) FindPreference(ctx context.Context, sessionID string) (*UserPreference, error) {
	var pref UserPreference
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewServiceError("menu", "find preference", err)
	}
	return &pref, nil
}

// UpsertPreference: 세션의 선호 설정을 저장한다.
func (r *GormRepository) UpsertPreference(ctx context.Context, pref *UserPreference) error {
	var existing UserPreference
	err := r.db.WithContext(ctx).Where("session_id = ?", pref.SessionID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if createErr := r.db.WithContext(ctx).Create(pref).Error; createErr != nil {
			return apperrors.NewServiceError("menu", "create preference", createErr)
		}
		return nil
	case err != nil:
		return apperrors.NewServiceError("menu", "find preference", err)
	default:
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
		if saveErr := r.db.WithContext(ctx).Save(pref).Error; saveErr != nil {
			return apperrors.NewServiceError("menu", "update preference", saveErr)
		}
		return nil
	}
}
