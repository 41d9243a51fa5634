package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/service/menu"
)

// preferenceRequest: 세션 선호 설정 저장 요청 본문
type preferenceRequest struct {
	SessionID          string   `json:"session_id" binding:"required,min=1"`
	FavoriteCategories []string `json:"favorite_categories"`
	MaxDistance        int      `json:"max_distance"`
	MaxPricePerPerson  *int     `json:"max_price_per_person"`
	MaxDeliveryFee     *int     `json:"max_delivery_fee"`
}

// GetPreferences: GET /api/preferences/:session_id
func (h *APIHandler) GetPreferences(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	pref, err := h.repo.FindPreference(ctx, c.Param("session_id"))
	if err != nil {
		h.logger.Error("preference lookup failed", slog.Any("error", err))
		c.JSON(500, gin.H{"error": "설정 조회에 실패했습니다"})
		return
	}
	if pref == nil {
		c.JSON(404, gin.H{"error": "저장된 설정이 없습니다"})
		return
	}

	c.JSON(200, preferenceResponse(pref))
}

// SavePreferences: PUT /api/preferences
func (h *APIHandler) SavePreferences(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "session_id는 필수입니다"})
		return
	}

	maxDistance := req.MaxDistance
	if maxDistance <= 0 {
		maxDistance = constants.SearchDefaults.RadiusMeters
	}

	categories := req.FavoriteCategories
	if categories == nil {
		categories = []string{}
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		c.JSON(400, gin.H{"error": "잘못된 입력값입니다"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.APIRequest)
	defer cancel()

	pref := &menu.UserPreference{
		SessionID:          req.SessionID,
		FavoriteCategories: string(encoded),
		MaxDistance:        maxDistance,
		MaxPricePerPerson:  req.MaxPricePerPerson,
		MaxDeliveryFee:     req.MaxDeliveryFee,
	}

	if err := h.repo.UpsertPreference(ctx, pref); err != nil {
		h.logger.Error("preference save failed",
			slog.String("session_id", req.SessionID),
			slog.Any("error", err))
		c.JSON(500, gin.H{"error": "설정 저장에 실패했습니다"})
		return
	}

	c.JSON(200, preferenceResponse(pref))
}

func preferenceResponse(pref *menu.UserPreference) gin.H {
	var categories []string
	if pref.FavoriteCategories != "" {
		if err := json.Unmarshal([]byte(pref.FavoriteCategories), &categories); err != nil {
			categories = nil
		}
	}
	if categories == nil {
		categories = []string{}
	}

	return gin.H{
		"session_id":           pref.SessionID,
		"favorite_categories":  categories,
		"max_distance":         pref.MaxDistance,
		"max_price_per_person": pref.MaxPricePerPerson,
		"max_delivery_fee":     pref.MaxDeliveryFee,
	}
}
