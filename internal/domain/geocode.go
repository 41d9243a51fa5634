package domain

// GeocodeResult: 정방향 지오코딩 결과 (주소 문자열 + WGS-84 좌표)
// 해석 실패는 nil로 전달된다. 0,0 좌표와 혼동하지 않도록 포인터로만 주고받는다.
type GeocodeResult struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
