package menu

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ralskwo/FoodFinder/internal/domain"
	"github.com/ralskwo/FoodFinder/internal/service/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo: 메모리 기반 Repository 구현
type fakeRepo struct {
	restaurants map[string]*Restaurant
	menus       []MenuRecord
	nextID      uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{restaurants: make(map[string]*Restaurant), nextID: 1}
}

func (f *fakeRepo) GetOrCreateRestaurant(_ context.Context, candidate *domain.PlaceCandidate) (*Restaurant, error) {
	placeID := string(domain.IdentityOfCandidate(candidate))
	if r, ok := f.restaurants[placeID]; ok {
		return r, nil
	}
	r := &Restaurant{ID: f.nextID, PlaceID: placeID, Name: candidate.Title, Address: candidate.Address}
	f.nextID++
	f.restaurants[placeID] = r
	return r, nil
}

func (f *fakeRepo) FindRestaurant(_ context.Context, placeID string) (*Restaurant, error) {
	if r, ok := f.restaurants[placeID]; ok {
		return r, nil
	}
	return nil, ErrRestaurantNotFound
}

func (f *fakeRepo) UpdateDeliveryInfo(_ context.Context, restaurant *Restaurant) error {
	f.restaurants[restaurant.PlaceID] = restaurant
	return nil
}

func (f *fakeRepo) FindFreshMenus(_ context.Context, restaurantID uint, since time.Time) ([]MenuRecord, error) {
	var out []MenuRecord
	for _, m := range f.menus {
		if m.RestaurantID == restaurantID && !m.UpdatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindAllMenus(_ context.Context, restaurantID uint) ([]MenuRecord, error) {
	var out []MenuRecord
	for _, m := range f.menus {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceCrawledMenus(_ context.Context, restaurantID uint, items []domain.MenuItem, source domain.MenuSource) error {
	kept := f.menus[:0]
	for _, m := range f.menus {
		if m.RestaurantID != restaurantID || m.Source == string(domain.MenuSourceUser) {
			kept = append(kept, m)
		}
	}
	f.menus = kept

	for _, item := range items {
		f.menus = append(f.menus, MenuRecord{
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
	return nil
}

func (f *fakeRepo) InsertUserMenu(_ context.Context, restaurantID uint, name string, price *int) (*MenuRecord, error) {
	record := MenuRecord{
		ID:           f.nextID,
		RestaurantID: restaurantID,
		Name:         name,
		Price:        price,
		Source:       string(domain.MenuSourceUser),
		UpdatedAt:    time.Now(),
	}
	f.nextID++
	f.menus = append(f.menus, record)
	return &record, nil
}

func (f *fakeRepo) ListRecentMenus(_ context.Context, limit int) ([]MenuRecord, error) {
	if limit > len(f.menus) {
		limit = len(f.menus)
	}
	return append([]MenuRecord(nil), f.menus[:limit]...), nil
}

func (f *fakeRepo) UpdateMenuName(_ context.Context, menuID uint, name string) error {
	for i := range f.menus {
		if f.menus[i].ID == menuID {
			f.menus[i].Name = name
		}
	}
	return nil
}

func (f *fakeRepo) FindPreference(_ context.Context, _ string) (*UserPreference, error) {
	return nil, nil
}

func (f *fakeRepo) UpsertPreference(_ context.Context, _ *UserPreference) error { return nil }

type fakePlaceCrawler struct {
	menus     []domain.MenuItem
	placeID   string
	getCalls  int
	findCalls int
}

func (f *fakePlaceCrawler) GetMenus(_ context.Context, _ string) []domain.MenuItem {
	f.getCalls++
	return f.menus
}

func (f *fakePlaceCrawler) FindPlaceID(_ context.Context, _, _ string) string {
	f.findCalls++
	return f.placeID
}

type fakeDeliveryCrawler struct {
	menus []domain.MenuItem
	calls int
}

func (f *fakeDeliveryCrawler) GetMenus(_ context.Context, _, _ string) []domain.MenuItem {
	f.calls++
	return f.menus
}

func intPtr(v int) *int { return &v }

func TestGetMenusCrawlsAndStores(t *testing.T) {
	repo := newFakeRepo()
	naver := &fakePlaceCrawler{menus: []domain.MenuItem{
		{Name: "김치찌개", Price: intPtr(9000), IsRepresentative: true},
		{Name: "된장찌개", Price: intPtr(8500)},
	}}
	svc := NewService(repo, naver, &fakeDeliveryCrawler{}, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc", Name: "맛있는집"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "https://pcmap.place.naver.com/restaurant/123/home", true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 2 {
		t.Fatalf("len(menus) = %d, want 2", len(menus))
	}
	if menus[0].Source != "naver" {
		t.Errorf("Source = %q, want naver", menus[0].Source)
	}
	// 링크에서 ID를 바로 얻었으므로 역조회는 불필요
	if naver.findCalls != 0 {
		t.Errorf("FindPlaceID calls = %d, want 0", naver.findCalls)
	}
}

func TestGetMenusFreshCacheSkipsCrawl(t *testing.T) {
	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "비빔밥", Source: "naver", UpdatedAt: time.Now()},
	}
	naver := &fakePlaceCrawler{menus: []domain.MenuItem{{Name: "새메뉴"}}}
	svc := NewService(repo, naver, &fakeDeliveryCrawler{}, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "https://pcmap.place.naver.com/restaurant/123/home", true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 1 || menus[0].Name != "비빔밥" {
		t.Fatalf("got %v, want cached 비빔밥", menus)
	}
	if naver.getCalls != 0 {
		t.Errorf("crawler called despite fresh cache")
	}
}

func TestGetMenusStaleCacheRecrawls(t *testing.T) {
	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "옛날메뉴", Source: "naver", UpdatedAt: time.Now().Add(-25 * time.Hour)},
	}
	naver := &fakePlaceCrawler{menus: []domain.MenuItem{{Name: "새메뉴", Price: intPtr(10000)}}}
	svc := NewService(repo, naver, &fakeDeliveryCrawler{}, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "https://pcmap.place.naver.com/restaurant/123/home", true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 1 || menus[0].Name != "새메뉴" {
		t.Fatalf("got %v, want recrawled 새메뉴", menus)
	}
}

func TestGetMenusUserRowsSurviveRecrawl(t *testing.T) {
	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "옛날메뉴", Source: "naver", UpdatedAt: time.Now().Add(-48 * time.Hour)},
		{ID: 2, RestaurantID: 1, Name: "사용자메뉴", Source: "user", UpdatedAt: time.Now().Add(-48 * time.Hour)},
	}
	naver := &fakePlaceCrawler{menus: []domain.MenuItem{{Name: "새메뉴"}}}
	svc := NewService(repo, naver, &fakeDeliveryCrawler{}, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "https://pcmap.place.naver.com/restaurant/123/menu", true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}

	names := make(map[string]bool)
	for _, m := range menus {
		names[m.Name] = true
	}
	if !names["사용자메뉴"] {
		t.Error("user-contributed row deleted by recrawl")
	}
	if !names["새메뉴"] {
		t.Error("recrawled row missing")
	}
	if names["옛날메뉴"] {
		t.Error("stale crawled row not replaced")
	}
}

func TestGetMenusDeliveryFallback(t *testing.T) {
	repo := newFakeRepo()
	naver := &fakePlaceCrawler{placeID: "456"} // 메뉴 없음
	delivery := &fakeDeliveryCrawler{menus: []domain.MenuItem{{Name: "배달메뉴", Price: intPtr(15000)}}}
	svc := NewService(repo, naver, delivery, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc", Name: "맛있는집", Address: "서울"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "", true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 1 || menus[0].Source != "delivery" {
		t.Fatalf("got %v, want delivery-sourced menu", menus)
	}
	if naver.findCalls != 1 {
		t.Errorf("FindPlaceID calls = %d, want 1 (no link given)", naver.findCalls)
	}
}

func TestGetMenusNoCrawlReturnsStored(t *testing.T) {
	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "오래된메뉴", Source: "naver", UpdatedAt: time.Now().Add(-48 * time.Hour)},
	}
	naver := &fakePlaceCrawler{menus: []domain.MenuItem{{Name: "새메뉴"}}}
	svc := NewService(repo, naver, &fakeDeliveryCrawler{}, nil, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc"}
	menus, err := svc.GetMenus(context.Background(), restaurant, "", false)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 1 || menus[0].Name != "오래된메뉴" {
		t.Fatalf("got %v, want stored stale row", menus)
	}
	if naver.getCalls != 0 || naver.findCalls != 0 {
		t.Error("crawler called with allowCrawl=false")
	}
}

func TestAddUserContributionValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakePlaceCrawler{}, &fakeDeliveryCrawler{}, nil, testLogger())

	if _, err := svc.AddUserContribution(context.Background(), 1, "   ", nil); err == nil {
		t.Error("expected validation error for blank name")
	}
	if _, err := svc.AddUserContribution(context.Background(), 1, "김밥", intPtr(-100)); err == nil {
		t.Error("expected validation error for negative price")
	}

	record, err := svc.AddUserContribution(context.Background(), 1, "김밥", intPtr(3000))
	if err != nil {
		t.Fatalf("AddUserContribution() error = %v", err)
	}
	if record.Source != "user" {
		t.Errorf("Source = %q, want user", record.Source)
	}
}

func TestRepresentativeMenusFallbackToCheapest(t *testing.T) {
	records := []MenuRecord{
		{Name: "A", Price: intPtr(12000)},
		{Name: "B", Price: intPtr(8000)},
		{Name: "C", Price: nil},
		{Name: "D", Price: intPtr(9000)},
	}

	picked := RepresentativeMenus(records, 2)
	if len(picked) != 2 {
		t.Fatalf("len = %d, want 2", len(picked))
	}
	if picked[0].Name != "B" || picked[1].Name != "D" {
		t.Errorf("got %v, want cheapest two (B, D)", picked)
	}
}

func TestRepresentativeMenusPrefersFlagged(t *testing.T) {
	records := []MenuRecord{
		{Name: "A", Price: intPtr(12000)},
		{Name: "B", Price: intPtr(8000), IsRepresentative: true},
	}

	picked := RepresentativeMenus(records, 2)
	if len(picked) != 1 || picked[0].Name != "B" {
		t.Errorf("got %v, want flagged B only", picked)
	}
}

func TestRepairStoredNames(t *testing.T) {
	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "ê¹€ì¹˜ì°Œê°œ", Source: "naver"}, // "김치찌개"의 이중 디코딩
		{ID: 2, RestaurantID: 1, Name: "된장찌개", Source: "naver"},
	}
	svc := NewService(repo, &fakePlaceCrawler{}, &fakeDeliveryCrawler{}, nil, testLogger())

	repaired, err := svc.RepairStoredNames(context.Background(), 10)
	if err != nil {
		t.Fatalf("RepairStoredNames() error = %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}
	if repo.menus[0].Name != "김치찌개" {
		t.Errorf("Name = %q, want 김치찌개", repo.menus[0].Name)
	}
	if repo.menus[1].Name != "된장찌개" {
		t.Errorf("intact name changed: %q", repo.menus[1].Name)
	}
}

func newCooldownCache(t *testing.T) (*cache.Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	hostPort := strings.Split(mr.Addr(), ":")
	port, err := strconv.Atoi(hostPort[1])
	if err != nil {
		t.Fatalf("failed to parse miniredis port: %v", err)
	}

	svc, err := cache.NewCacheService(cache.Config{Host: hostPort[0], Port: port}, testLogger())
	if err != nil {
		t.Fatalf("NewCacheService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mr
}

func TestGetMenusCrawlCooldown(t *testing.T) {
	cacheSvc, mr := newCooldownCache(t)

	repo := newFakeRepo()
	repo.menus = []MenuRecord{
		{ID: 1, RestaurantID: 1, Name: "옛날메뉴", Source: "naver", UpdatedAt: time.Now().Add(-48 * time.Hour)},
	}
	naver := &fakePlaceCrawler{} // 크롤링이 빈손으로 끝나 캐시가 갱신되지 않는 상황
	delivery := &fakeDeliveryCrawler{}
	svc := NewService(repo, naver, delivery, cacheSvc, testLogger())

	restaurant := &Restaurant{ID: 1, PlaceID: "abc", Name: "맛있는집", Address: "서울"}
	link := "https://pcmap.place.naver.com/restaurant/123/home"

	menus, err := svc.GetMenus(context.Background(), restaurant, link, true)
	if err != nil {
		t.Fatalf("GetMenus() error = %v", err)
	}
	if len(menus) != 1 || menus[0].Name != "옛날메뉴" {
		t.Fatalf("got %v, want stored stale row", menus)
	}
	if naver.getCalls != 1 {
		t.Fatalf("naver crawl calls = %d, want 1", naver.getCalls)
	}
	if !mr.Exists("menu:cooldown:abc") {
		t.Fatal("cooldown key not set after crawl attempt")
	}

	// 쿨다운이 살아 있는 동안의 재조회는 크롤링 없이 저장분만 돌려준다
	menus, err = svc.GetMenus(context.Background(), restaurant, link, true)
	if err != nil {
		t.Fatalf("GetMenus() second call error = %v", err)
	}
	if len(menus) != 1 || menus[0].Name != "옛날메뉴" {
		t.Fatalf("got %v, want stored stale row", menus)
	}
	if naver.getCalls != 1 || delivery.calls != 1 {
		t.Errorf("crawler re-invoked during cooldown: naver=%d delivery=%d, want 1/1",
			naver.getCalls, delivery.calls)
	}

	// 쿨다운이 만료되면 다시 시도할 수 있다
	mr.FastForward(2 * time.Hour)
	if _, err := svc.GetMenus(context.Background(), restaurant, link, true); err != nil {
		t.Fatalf("GetMenus() third call error = %v", err)
	}
	if naver.getCalls != 2 {
		t.Errorf("naver crawl calls after cooldown expiry = %d, want 2", naver.getCalls)
	}
}
