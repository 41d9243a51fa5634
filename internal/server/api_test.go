package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/menu"
	"github.com/ralskwo/FoodFinder/internal/service/search"
)

// fakeRepo: 핸들러 테스트용 인메모리 Repository 구현
type fakeRepo struct {
	restaurants map[string]*menu.Restaurant
	menus       map[uint][]menu.MenuRecord
	prefs       map[string]*menu.UserPreference
	nextID      uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		restaurants: make(map[string]*menu.Restaurant),
		menus:       make(map[uint][]menu.MenuRecord),
		prefs:       make(map[string]*menu.UserPreference),
		nextID:      1,
	}
}

func (f *fakeRepo) GetOrCreateRestaurant(ctx context.Context, candidate *domain.PlaceCandidate) (*menu.Restaurant, error) {
	placeID := string(domain.IdentityOfCandidate(candidate))
	if existing, ok := f.restaurants[placeID]; ok {
		return existing, nil
	}
	restaurant := &menu.Restaurant{ID: f.nextID, PlaceID: placeID, Name: candidate.Title}
	f.nextID++
	f.restaurants[placeID] = restaurant
	return restaurant, nil
}

func (f *fakeRepo) FindRestaurant(ctx context.Context, placeID string) (*menu.Restaurant, error) {
	if restaurant, ok := f.restaurants[placeID]; ok {
		return restaurant, nil
	}
	return nil, menu.ErrRestaurantNotFound
}

func (f *fakeRepo) UpdateDeliveryInfo(ctx context.Context, restaurant *menu.Restaurant) error {
	if restaurant.ID == 0 {
		restaurant.ID = f.nextID
		f.nextID++
	}
	f.restaurants[restaurant.PlaceID] = restaurant
	return nil
}

func (f *fakeRepo) FindFreshMenus(ctx context.Context, restaurantID uint, since time.Time) ([]menu.MenuRecord, error) {
	fresh := make([]menu.MenuRecord, 0)
	for _, record := range f.menus[restaurantID] {
		if record.UpdatedAt.After(since) {
			fresh = append(fresh, record)
		}
	}
	return fresh, nil
}

func (f *fakeRepo) FindAllMenus(ctx context.Context, restaurantID uint) ([]menu.MenuRecord, error) {
	return f.menus[restaurantID], nil
}

func (f *fakeRepo) ReplaceCrawledMenus(ctx context.Context, restaurantID uint, items []domain.MenuItem, source domain.MenuSource) error {
	kept := make([]menu.MenuRecord, 0)
	for _, record := range f.menus[restaurantID] {
		if record.Source == string(domain.MenuSourceUser) {
			kept = append(kept, record)
		}
	}
	for _, item := range items {
		kept = append(kept, menu.MenuRecord{
			ID:               f.nextID,
			RestaurantID:     restaurantID,
			Name:             item.Name,
			Price:            item.Price,
			IsRepresentative: item.IsRepresentative,
			Source:           string(source),
			UpdatedAt:        time.Now(),
		})
		f.nextID++
	}
	f.menus[restaurantID] = kept
	return nil
}

func (f *fakeRepo) InsertUserMenu(ctx context.Context, restaurantID uint, name string, price *int) (*menu.MenuRecord, error) {
	record := menu.MenuRecord{
		ID:           f.nextID,
		RestaurantID: restaurantID,
		Name:         name,
		Price:        price,
		Source:       string(domain.MenuSourceUser),
		UpdatedAt:    time.Now(),
	}
	f.nextID++
	f.menus[restaurantID] = append(f.menus[restaurantID], record)
	return &record, nil
}

func (f *fakeRepo) ListRecentMenus(ctx context.Context, limit int) ([]menu.MenuRecord, error) {
	all := make([]menu.MenuRecord, 0)
	for _, records := range f.menus {
		all = append(all, records...)
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeRepo) UpdateMenuName(ctx context.Context, menuID uint, name string) error {
	for restaurantID, records := range f.menus {
		for i := range records {
			if records[i].ID == menuID {
				records[i].Name = name
				f.menus[restaurantID] = records
				return nil
			}
		}
	}
	return nil
}

func (f *fakeRepo) FindPreference(ctx context.Context, sessionID string) (*menu.UserPreference, error) {
	return f.prefs[sessionID], nil
}

func (f *fakeRepo) UpsertPreference(ctx context.Context, pref *menu.UserPreference) error {
	f.prefs[pref.SessionID] = pref
	return nil
}

// fakeSearcher: 고정된 후보 목록을 돌려주는 검색 스텁
type fakeSearcher struct {
	candidates []domain.PlaceCandidate
}

func (f *fakeSearcher) Search(ctx context.Context, req search.Request) []domain.PlaceCandidate {
	return f.candidates
}

type noopPlaceCrawler struct{}

func (noopPlaceCrawler) GetMenus(ctx context.Context, placeID string) []domain.MenuItem { return nil }
func (noopPlaceCrawler) FindPlaceID(ctx context.Context, restaurantName, address string) string {
	return ""
}

type noopDeliveryCrawler struct{}

func (noopDeliveryCrawler) GetMenus(ctx context.Context, restaurantName, address string) []domain.MenuItem {
	return nil
}

func newTestHandler(repo *fakeRepo) *APIHandler {
	return newSearchTestHandler(repo, nil)
}

func newSearchTestHandler(repo *fakeRepo, searcher RestaurantSearcher) *APIHandler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	menuSvc := menu.NewService(repo, noopPlaceCrawler{}, noopDeliveryCrawler{}, nil, logger)
	return NewAPIHandler(searcher, nil, menuSvc, repo, logger)
}

func newTestRouter(handler *APIHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/restaurants/search", handler.SearchRestaurants)
	router.GET("/api/restaurants/:place_id/menus", handler.GetRestaurantMenus)
	router.POST("/api/restaurants/:place_id/menus/contribute", handler.ContributeMenu)
	router.POST("/api/restaurants/:place_id/delivery", handler.UpdateDeliveryInfo)
	router.GET("/api/preferences/:session_id", handler.GetPreferences)
	router.PUT("/api/preferences", handler.SavePreferences)
	return router
}

func TestGetRestaurantMenusRepairsDisplayNames(t *testing.T) {
	repo := newFakeRepo()
	repo.restaurants["place-1"] = &menu.Restaurant{ID: 1, PlaceID: "place-1", Name: "김치찌개집"}
	price := 9000
	repo.menus[1] = []menu.MenuRecord{
		{ID: 10, RestaurantID: 1, Name: "ê¹€ì¹˜ì°Œê°œ", Price: &price, Source: "naver", UpdatedAt: time.Now()},
	}

	router := newTestRouter(newTestHandler(repo))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/restaurants/place-1/menus", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}

	var resp struct {
		RestaurantName string `json:"restaurant_name"`
		Menus          []struct {
			Name  string `json:"name"`
			Price *int   `json:"price"`
		} `json:"menus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(resp.Menus) != 1 {
		t.Fatalf("menus = %d, expected 1", len(resp.Menus))
	}
	// 저장 당시 깨진 이름은 응답 시점에 복원된다
	if resp.Menus[0].Name != "김치찌개" {
		t.Errorf("menu name = %q, expected 김치찌개", resp.Menus[0].Name)
	}
}

func TestGetRestaurantMenusNotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(newFakeRepo()))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/restaurants/missing/menus", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", w.Code)
	}
}

func TestContributeMenu(t *testing.T) {
	repo := newFakeRepo()
	repo.restaurants["place-1"] = &menu.Restaurant{ID: 1, PlaceID: "place-1", Name: "분식집"}
	router := newTestRouter(newTestHandler(repo))

	t.Run("Valid contribution", func(t *testing.T) {
		body := bytes.NewBufferString(`{"menu_name": "라볶이", "price": 6500}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/place-1/menus/contribute", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d, expected 201, body=%s", w.Code, w.Body.String())
		}
		if len(repo.menus[1]) != 1 || repo.menus[1][0].Source != "user" {
			t.Errorf("expected one user-sourced menu row, got %+v", repo.menus[1])
		}
	})

	t.Run("Missing menu name rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"price": 6500}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/place-1/menus/contribute", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, expected 400", w.Code)
		}
	})

	t.Run("Unknown restaurant rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"menu_name": "김밥"}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/restaurants/missing/menus/contribute", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, expected 404", w.Code)
		}
	})
}

func TestUpdateDeliveryInfoCreatesRow(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(newTestHandler(repo))

	body := bytes.NewBufferString(`{"name": "치킨집", "delivery_fee": 3000, "minimum_order": 15000}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/new-place/delivery", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body=%s", w.Code, w.Body.String())
	}

	saved, ok := repo.restaurants["new-place"]
	if !ok {
		t.Fatalf("expected restaurant row to be created")
	}
	if !saved.DeliveryAvailable || saved.DeliveryFee == nil || *saved.DeliveryFee != 3000 {
		t.Errorf("delivery info not applied: %+v", saved)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(newTestHandler(repo))

	t.Run("Missing session returns 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/preferences/nobody", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, expected 404", w.Code)
		}
	})

	t.Run("Save then read back", func(t *testing.T) {
		body := bytes.NewBufferString(`{"session_id": "sess-1", "favorite_categories": ["한식", "중식"], "max_price_per_person": 12000}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/preferences", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("save status = %d, expected 200, body=%s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/api/preferences/sess-1", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("read status = %d, expected 200", w.Code)
		}

		var resp struct {
			SessionID          string   `json:"session_id"`
			FavoriteCategories []string `json:"favorite_categories"`
			MaxDistance        int      `json:"max_distance"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal error: %v", err)
		}
		if len(resp.FavoriteCategories) != 2 || resp.FavoriteCategories[0] != "한식" {
			t.Errorf("categories = %v, expected [한식 중식]", resp.FavoriteCategories)
		}
		// 거리를 지정하지 않으면 기본 반경이 저장된다
		if resp.MaxDistance != 1000 {
			t.Errorf("max_distance = %d, expected 1000", resp.MaxDistance)
		}
	})

	t.Run("Missing session_id rejected", func(t *testing.T) {
		body := bytes.NewBufferString(`{"max_distance": 500}`)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/preferences", body)
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, expected 400", w.Code)
		}
	})
}

func searchCandidate(title, category string, distance *int) domain.PlaceCandidate {
	lat, lng := 37.5665, 126.978
	return domain.PlaceCandidate{
		Title:          title,
		Category:       category,
		Address:        "서울시 중구 " + title,
		Link:           "https://map.naver.com/p/" + title,
		Latitude:       &lat,
		Longitude:      &lng,
		DistanceMeters: distance,
	}
}

// seedSearchRestaurant: 후보에 해당하는 음식점 행과 신선한 메뉴를 미리 심는다.
func seedSearchRestaurant(repo *fakeRepo, candidate *domain.PlaceCandidate, id uint, prices ...int) {
	placeID := string(domain.IdentityOfCandidate(candidate))
	repo.restaurants[placeID] = &menu.Restaurant{ID: id, PlaceID: placeID, Name: candidate.Title}
	for i, p := range prices {
		price := p
		repo.menus[id] = append(repo.menus[id], menu.MenuRecord{
			ID:           id*100 + uint(i),
			RestaurantID: id,
			Name:         fmt.Sprintf("메뉴%d", i+1),
			Price:        &price,
			Source:       "naver",
			UpdatedAt:    time.Now(),
		})
	}
	if repo.nextID <= id {
		repo.nextID = id + 1
	}
}

func postSearch(t *testing.T, router *gin.Engine, body string) (int, []restaurantResult) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp struct {
		Results []restaurantResult `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal error: %v, body=%s", err, w.Body.String())
	}
	return w.Code, resp.Results
}

func TestSearchRestaurantsBudgetMenuType(t *testing.T) {
	near := 300
	cheap := searchCandidate("분식집", "음식점>분식", &near)
	pricey := searchCandidate("스시집", "음식점>일식", &near)

	repo := newFakeRepo()
	seedSearchRestaurant(repo, &cheap, 1, 8000, 15000)
	seedSearchRestaurant(repo, &pricey, 2, 20000, 30000)

	searcher := &fakeSearcher{candidates: []domain.PlaceCandidate{cheap, pricey}}
	router := newTestRouter(newSearchTestHandler(repo, searcher))

	code, results := postSearch(t, router,
		`{"lat": 37.5665, "lng": 126.978, "budget": 10000, "budget_type": "menu"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", code)
	}
	if len(results) != 1 || results[0].Name != "분식집" {
		t.Errorf("expected only 분식집 within a 10000won menu budget, got %+v", results)
	}
}

func TestSearchRestaurantsBudgetAverageType(t *testing.T) {
	near := 300
	modest := searchCandidate("백반집", "음식점>한식", &near)
	borderline := searchCandidate("경계집", "음식점>한식", &near)

	repo := newFakeRepo()
	seedSearchRestaurant(repo, &modest, 1, 12000, 12000)
	// 평균 12499.5원: 12499원 예산을 넘어야 한다
	seedSearchRestaurant(repo, &borderline, 2, 12499, 12500)

	searcher := &fakeSearcher{candidates: []domain.PlaceCandidate{modest, borderline}}
	router := newTestRouter(newSearchTestHandler(repo, searcher))

	code, results := postSearch(t, router,
		`{"lat": 37.5665, "lng": 126.978, "budget": 12499, "budget_type": "average"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", code)
	}
	if len(results) != 1 || results[0].Name != "백반집" {
		t.Errorf("average budget should reject the 12499.5won average, got %+v", results)
	}
}

func TestSearchRestaurantsCategoryFilter(t *testing.T) {
	near := 300
	korean := searchCandidate("찌개집", "음식점>한식>찌개,전골", &near)
	japanese := searchCandidate("라멘집", "음식점>일식>라면", &near)

	repo := newFakeRepo()
	seedSearchRestaurant(repo, &korean, 1, 9000)
	seedSearchRestaurant(repo, &japanese, 2, 9000)

	searcher := &fakeSearcher{candidates: []domain.PlaceCandidate{korean, japanese}}
	router := newTestRouter(newSearchTestHandler(repo, searcher))

	code, results := postSearch(t, router,
		`{"lat": 37.5665, "lng": 126.978, "categories": ["한식"]}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", code)
	}
	if len(results) != 1 || results[0].Name != "찌개집" {
		t.Errorf("category filter should keep only 한식 entries, got %+v", results)
	}
}

func TestSearchRestaurantsEnforcesRadius(t *testing.T) {
	near, far := 500, 2000
	inside := searchCandidate("가까운집", "음식점>한식", &near)
	outside := searchCandidate("먼집", "음식점>한식", &far)

	repo := newFakeRepo()
	seedSearchRestaurant(repo, &inside, 1, 9000)
	seedSearchRestaurant(repo, &outside, 2, 9000)

	searcher := &fakeSearcher{candidates: []domain.PlaceCandidate{inside, outside}}
	router := newTestRouter(newSearchTestHandler(repo, searcher))

	code, results := postSearch(t, router,
		`{"lat": 37.5665, "lng": 126.978, "radius": 1000}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", code)
	}
	if len(results) != 1 || results[0].Name != "가까운집" {
		t.Errorf("candidates beyond the radius should be dropped, got %+v", results)
	}
}

func TestSearchRestaurantsRequiresLocation(t *testing.T) {
	router := newTestRouter(newSearchTestHandler(newFakeRepo(), &fakeSearcher{}))
	code, _ := postSearch(t, router, `{"query": "김치찌개"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400 without coordinates", code)
	}
}
