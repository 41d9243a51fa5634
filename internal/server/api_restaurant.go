package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/menu"
	"github.com/ralskwo/FoodFinder/internal/service/search"
	"github.com/ralskwo/FoodFinder/internal/util"
)

// searchRequest: 맛집 검색 요청 본문
// 좌표 키는 lat/lng와 latitude/longitude를 모두 받는다.
type searchRequest struct {
	Lat        *float64 `json:"lat"`
	Latitude   *float64 `json:"latitude"`
	Lng        *float64 `json:"lng"`
	Longitude  *float64 `json:"longitude"`
	Radius     int      `json:"radius"`
	Budget     *int     `json:"budget"`
	BudgetType string   `json:"budget_type"`
	Categories []string `json:"categories"`
	Query      string   `json:"query"`
}

func (r *searchRequest) center() (*float64, *float64) {
	lat := r.Lat
	if lat == nil {
		lat = r.Latitude
	}
	lng := r.Lng
	if lng == nil {
		lng = r.Longitude
	}
	return lat, lng
}

// restaurantResult: 검색 응답의 단일 음식점 항목
type restaurantResult struct {
	PlaceID             string                      `json:"place_id"`
	Name                string                      `json:"name"`
	Category            string                      `json:"category"`
	Address             string                      `json:"address"`
	RoadAddress         string                      `json:"road_address"`
	Latitude            *float64                    `json:"latitude"`
	Longitude           *float64                    `json:"longitude"`
	Distance            *int                        `json:"distance"`
	Phone               string                      `json:"phone"`
	Rating              *float64                    `json:"rating"`
	RepresentativeMenus []domain.RepresentativeMenu `json:"representative_menus"`
	Link                string                      `json:"link"`
}

// SearchRestaurants: POST /api/restaurants/search
// 위치 기반 검색에 카테고리/예산 필터를 적용해 거리순 결과를 반환한다.
func (h *APIHandler) SearchRestaurants(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "요청 데이터가 없습니다"})
		return
	}

	lat, lng := req.center()
	if lat == nil || lng == nil {
		c.JSON(400, gin.H{"error": "위치 정보는 필수입니다"})
		return
	}

	radius := req.Radius
	if radius <= 0 {
		radius = constants.SearchDefaults.RadiusMeters
	}
	radius = util.Min(radius, constants.SearchDefaults.MaxRadiusMeters)

	query := util.TrimSpace(req.Query)
	if query == "" {
		query = constants.SearchDefaults.Query
	}

	budgetType := req.BudgetType
	if budgetType == "" {
		budgetType = "menu"
	}

	h.logger.Info("restaurant search",
		slog.String("query", query),
		slog.Float64("lat", *lat),
		slog.Float64("lng", *lng),
		slog.Int("radius", radius))

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.Search)
	defer cancel()

	candidates := h.search.Search(ctx, search.Request{
		Query:        query,
		Latitude:     lat,
		Longitude:    lng,
		RadiusMeters: radius,
		Categories:   req.Categories,
	})

	results := make([]restaurantResult, 0, len(candidates))
	for i := range candidates {
		candidate := &candidates[i]

		// 좌표가 보강된 후보는 반경을 한 번 더 엄격하게 적용한다
		if candidate.DistanceMeters != nil && *candidate.DistanceMeters > radius {
			continue
		}

		if len(req.Categories) > 0 && !matchesCategory(candidate.Category, req.Categories) {
			continue
		}

		restaurant, err := h.repo.GetOrCreateRestaurant(ctx, candidate)
		if err != nil {
			h.logger.Warn("failed to persist restaurant",
				slog.String("title", candidate.Title),
				slog.Any("error", err))
			continue
		}

		records, err := h.menus.GetMenus(ctx, restaurant, candidate.Link, true)
		if err != nil {
			h.logger.Warn("menu lookup failed",
				slog.String("place_id", restaurant.PlaceID),
				slog.Any("error", err))
			records = nil
		}

		if req.Budget != nil && len(records) > 0 && !withinBudget(records, *req.Budget, budgetType) {
			continue
		}

		results = append(results, restaurantResult{
			PlaceID:             restaurant.PlaceID,
			Name:                candidate.Title,
			Category:            candidate.Category,
			Address:             candidate.Address,
			RoadAddress:         candidate.RoadAddress,
			Latitude:            candidate.Latitude,
			Longitude:           candidate.Longitude,
			Distance:            candidate.DistanceMeters,
			Phone:               candidate.Phone,
			Rating:              restaurant.Rating,
			RepresentativeMenus: menu.RepresentativeMenus(records, constants.PlaceCrawlConfig.RepresentativeTop),
			Link:                candidate.Link,
		})
	}

	budgetTypeApplied := ""
	if req.Budget != nil {
		budgetTypeApplied = budgetType
	}

	c.JSON(200, gin.H{
		"results": results,
		"total":   len(results),
		"filters_applied": gin.H{
			"radius":      radius,
			"budget":      req.Budget,
			"budget_type": budgetTypeApplied,
			"categories":  req.Categories,
		},
	})
}

func matchesCategory(category string, wanted []string) bool {
	for _, want := range wanted {
		if want != "" && strings.Contains(category, want) {
			return true
		}
	}
	return false
}

// withinBudget: 예산 필터
// menu 타입은 예산 이하 메뉴가 하나라도 있으면 통과,
// average 타입은 가격 평균이 예산 이하일 때 통과한다.
func withinBudget(records []menu.MenuRecord, budget int, budgetType string) bool {
	switch budgetType {
	case "average":
		sum, count := 0, 0
		for _, record := range records {
			if record.Price != nil {
				sum += *record.Price
				count++
			}
		}
		if count == 0 {
			return true
		}
		// 정수 나눗셈은 평균을 내림해서 예산을 넘는 평균도 통과시킨다
		return sum <= budget*count
	default:
		for _, record := range records {
			if record.Price != nil && *record.Price <= budget {
				return true
			}
		}
		return false
	}
}

// GetRestaurantDetail: GET /api/restaurants/:place_id
func (h *APIHandler) GetRestaurantDetail(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	restaurant, err := h.repo.FindRestaurant(ctx, c.Param("place_id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "음식점을 찾을 수 없습니다"})
		return
	}

	c.JSON(200, restaurant)
}

// GetRestaurantMenus: GET /api/restaurants/:place_id/menus
// 저장된 메뉴를 반환한다. 조회 경로에서는 새로 크롤링하지 않는다.
func (h *APIHandler) GetRestaurantMenus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.Menu)
	defer cancel()

	restaurant, err := h.repo.FindRestaurant(ctx, c.Param("place_id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "음식점을 찾을 수 없습니다"})
		return
	}

	records, err := h.menus.GetMenus(ctx, restaurant, "", false)
	if err != nil {
		h.logger.Error("menu lookup failed",
			slog.String("place_id", restaurant.PlaceID),
			slog.Any("error", err))
		c.JSON(500, gin.H{"error": "메뉴 조회에 실패했습니다"})
		return
	}

	menus := make([]gin.H, 0, len(records))
	for _, record := range records {
		menus = append(menus, gin.H{
			"id":                record.ID,
			"name":              menu.DisplayName(record.Name),
			"price":             record.Price,
			"is_representative": record.IsRepresentative,
			"source":            record.Source,
		})
	}

	c.JSON(200, gin.H{
		"restaurant_id":   restaurant.ID,
		"restaurant_name": restaurant.Name,
		"menus":           menus,
	})
}

// contributeRequest: 사용자 메뉴 기여 요청 본문
type contributeRequest struct {
	MenuName string `json:"menu_name" binding:"required,min=1"`
	Price    *int   `json:"price"`
}

// ContributeMenu: POST /api/restaurants/:place_id/menus/contribute
func (h *APIHandler) ContributeMenu(c *gin.Context) {
	var req contributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "메뉴명은 필수입니다"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	restaurant, err := h.repo.FindRestaurant(ctx, c.Param("place_id"))
	if err != nil {
		c.JSON(404, gin.H{"error": "음식점을 찾을 수 없습니다"})
		return
	}

	record, err := h.menus.AddUserContribution(ctx, restaurant.ID, req.MenuName, req.Price)
	if err != nil {
		h.logger.Warn("user contribution rejected",
			slog.String("place_id", restaurant.PlaceID),
			slog.Any("error", err))
		c.JSON(400, gin.H{"error": "메뉴 추가에 실패했습니다"})
		return
	}

	c.JSON(201, gin.H{
		"id":                record.ID,
		"name":              menu.DisplayName(record.Name),
		"price":             record.Price,
		"is_representative": record.IsRepresentative,
		"source":            record.Source,
	})
}

// deliveryRequest: 배달 정보 갱신 요청 본문
type deliveryRequest struct {
	Name         string   `json:"name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	DeliveryFee  *int     `json:"delivery_fee"`
	MinimumOrder *int     `json:"minimum_order"`
}

// UpdateDeliveryInfo: POST /api/restaurants/:place_id/delivery
// 사용자가 알려준 배달 정보를 저장한다. 음식점 행이 없으면 만들어서 저장한다.
func (h *APIHandler) UpdateDeliveryInfo(c *gin.Context) {
	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "요청 데이터가 없습니다"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	placeID := c.Param("place_id")
	restaurant, err := h.repo.FindRestaurant(ctx, placeID)
	if err != nil {
		name := req.Name
		if name == "" {
			name = "Unknown"
		}
		restaurant = &menu.Restaurant{PlaceID: placeID, Name: name}
		if req.Latitude != nil {
			restaurant.Latitude = *req.Latitude
		}
		if req.Longitude != nil {
			restaurant.Longitude = *req.Longitude
		}
	}

	if req.DeliveryFee != nil {
		restaurant.DeliveryFee = req.DeliveryFee
		restaurant.DeliveryAvailable = true
	}
	if req.MinimumOrder != nil {
		restaurant.MinimumOrder = req.MinimumOrder
	}

	if err := h.repo.UpdateDeliveryInfo(ctx, restaurant); err != nil {
		h.logger.Error("delivery info update failed",
			slog.String("place_id", placeID),
			slog.Any("error", err))
		c.JSON(500, gin.H{"error": "업데이트에 실패했습니다"})
		return
	}

	c.JSON(200, restaurant)
}
