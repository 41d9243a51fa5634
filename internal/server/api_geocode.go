package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ralskwo/FoodFinder/internal/constants"
	"github.com/ralskwo/FoodFinder/internal/service/geocode"
)

// ReverseGeocode: GET /api/geocode/reverse?lat=..&lng=..
// 어떤 제공자도 결과를 주지 못하면 좌표를 그대로 풀어 쓴 문자열을 반환한다.
// 응답 자체는 항상 200이다.
func (h *APIHandler) ReverseGeocode(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lngRaw := c.Query("lng")
	if lngRaw == "" {
		lngRaw = c.Query("lon")
	}
	lng, lngErr := strconv.ParseFloat(lngRaw, 64)

	if latErr != nil || lngErr != nil {
		c.JSON(400, gin.H{"error": "위도와 경도는 필수입니다"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.Geocode)
	defer cancel()

	address, err := h.geocoder.ReverseGeocode(ctx, lng, lat)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			h.logger.Warn("reverse geocode failed", slog.Any("error", err))
		}
		address = fmt.Sprintf("위도: %.4f, 경도: %.4f", lat, lng)
	}

	c.JSON(200, gin.H{
		"address":   address,
		"latitude":  lat,
		"longitude": lng,
	})
}

// ForwardGeocode: GET /api/geocode?query=..
// 찾지 못하면 404를 반환한다.
func (h *APIHandler) ForwardGeocode(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(400, gin.H{"error": "검색어를 입력하세요"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout.Geocode)
	defer cancel()

	result, err := h.geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			h.logger.Warn("forward geocode failed",
				slog.String("query", query),
				slog.Any("error", err))
		}
		c.JSON(404, gin.H{"error": "주소를 찾을 수 없습니다"})
		return
	}

	c.JSON(200, gin.H{
		"address":   result.Address,
		"latitude":  result.Latitude,
		"longitude": result.Longitude,
	})
}
