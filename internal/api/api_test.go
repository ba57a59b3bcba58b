package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/store"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

func newTestServer(t *testing.T, recs ...waste.Record) (*store.Store, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return fixedNow }
	s := store.New()
	s.AppendAll(recs)
	agg := stats.New(s, stats.WithClock(clock))
	srv := New(s, agg, analyzer.New(agg), ingest.New(s, ingest.WithClock(clock), ingest.WithMinConfidence(0.5)))
	return s, srv.Router()
}

func daysAgo(food string, grams float64, days int) waste.Record {
	return waste.Record{
		FoodType:    food,
		WeightGrams: grams,
		Timestamp:   waste.FormatTimestamp(fixedNow.AddDate(0, 0, -days)),
		Confidence:  0.9,
		MealPeriod:  waste.Lunch,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, daysAgo("apple", 10, 0))

	w := do(t, h, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
	}
	decode(t, w, &body)
	if body.Status != "healthy" || body.Records != 1 {
		t.Errorf("health = %+v", body)
	}
}

func TestAddRecord(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantLen    int
	}{
		{
			name:       "valid",
			body:       map[string]any{"foodType": "rice", "weight": 120, "timestamp": "2024-03-15 19:00:00"},
			wantStatus: http.StatusCreated,
			wantLen:    1,
		},
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing food type",
			body:       map[string]any{"weight": 120},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative weight",
			body:       map[string]any{"foodType": "rice", "weight": -3, "timestamp": "2024-03-15 19:00:00"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := newTestServer(t)
			w := do(t, h, http.MethodPost, "/api/v1/records", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if s.Len() != tt.wantLen {
				t.Errorf("store Len() = %d, want %d", s.Len(), tt.wantLen)
			}
		})
	}
}

func TestAddRecord_ClassifiesMeal(t *testing.T) {
	_, h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/records",
		map[string]any{"foodType": "rice", "weight": 120, "timestamp": "2024-03-15 19:00:00"})
	var rec waste.Record
	decode(t, w, &rec)
	if rec.MealPeriod != waste.Dinner || rec.Confidence != 1 {
		t.Errorf("record = %+v, want Dinner with confidence 1", rec)
	}
}

func TestAddDetections(t *testing.T) {
	s, h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/detections", []ingest.Detection{
		{FoodType: "apple", EstimatedWeight: 50, Confidence: 0.9, Timestamp: "2024-03-15 12:00:00", IsWaste: true},
		{FoodType: "plate", EstimatedWeight: 300, Confidence: 0.9, Timestamp: "2024-03-15 12:00:00"},
		{FoodType: "pear", EstimatedWeight: 20, Confidence: 0.1, Timestamp: "2024-03-15 12:00:00", IsWaste: true},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var res ingest.Result
	decode(t, w, &res)
	want := ingest.Result{Accepted: 1, NotWaste: 1, LowConfidence: 1}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
	if s.Len() != 1 {
		t.Errorf("store Len() = %d, want 1", s.Len())
	}
}

func TestListRecords_Filters(t *testing.T) {
	_, h := newTestServer(t,
		daysAgo("apple", 10, 0),
		daysAgo("banana", 20, 0),
		daysAgo("apple", 30, 10),
	)

	var body struct {
		Count   int            `json:"count"`
		Records []waste.Record `json:"records"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/records?food=apple&start=2024-03-10", nil), &body)
	if body.Count != 1 || body.Records[0].WeightGrams != 10 {
		t.Errorf("filtered records = %+v", body)
	}

	w := do(t, h, http.MethodGet, "/api/v1/records?food=kiwi", nil)
	var empty map[string]json.RawMessage
	decode(t, w, &empty)
	if string(empty["records"]) != "[]" {
		t.Errorf("empty result should be an empty array, got %s", w.Body.String())
	}
}

func TestGetStats(t *testing.T) {
	_, h := newTestServer(t,
		daysAgo("apple", 100, 0),
		daysAgo("apple", 50, 20),
		daysAgo("banana", 30, 1),
	)

	var all stats.Snapshot
	decode(t, do(t, h, http.MethodGet, "/api/v1/stats", nil), &all)
	if all.TotalWeight != 180 || all.TotalItems != 3 {
		t.Errorf("all-time snapshot = %+v", all)
	}

	var week struct {
		Period      string  `json:"period"`
		TotalWeight float64 `json:"totalWeight"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/stats?period=week", nil), &week)
	if week.Period != "week" || week.TotalWeight != 130 {
		t.Errorf("week snapshot = %+v", week)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/stats?period=fortnight", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown period status = %d, want 400", w.Code)
	}
}

func TestTrends(t *testing.T) {
	_, h := newTestServer(t,
		daysAgo("apple", 10, 3),
		daysAgo("apple", 20, 1),
	)

	var daily analyzer.TrendSeries
	decode(t, do(t, h, http.MethodGet, "/api/v1/trends/daily?days=7", nil), &daily)
	if len(daily.Values) != 7 {
		t.Errorf("daily trend length = %d, want 7", len(daily.Values))
	}

	var food analyzer.TrendSeries
	decode(t, do(t, h, http.MethodGet, "/api/v1/trends/food/apple", nil), &food)
	if len(food.Values) != 2 || !food.Increasing {
		t.Errorf("food trend = %+v", food)
	}

	var meal analyzer.TrendSeries
	decode(t, do(t, h, http.MethodGet, "/api/v1/trends/meal/lunch", nil), &meal)
	if len(meal.Values) != 2 {
		t.Errorf("meal trend = %+v", meal)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/trends/daily?days=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("malformed days status = %d, want 400", w.Code)
	}
}

func TestPredict(t *testing.T) {
	_, h := newTestServer(t)

	var body struct {
		DaysAhead      int     `json:"daysAhead"`
		PredictedWaste float64 `json:"predictedWaste"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/predict", nil), &body)
	if body.DaysAhead != DefaultPredictDays || body.PredictedWaste != 0 {
		t.Errorf("predict = %+v", body)
	}
}

func TestAnalysisEndpoints(t *testing.T) {
	_, h := newTestServer(t,
		daysAgo("apple", 2000, 0),
		daysAgo("rice", 1000, 2),
	)

	var ins struct {
		Insights []string `json:"insights"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/insights", nil), &ins)
	if len(ins.Insights) == 0 {
		t.Error("insights should never be empty")
	}

	var recs struct {
		Recommendations []analyzer.Recommendation `json:"recommendations"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/recommendations?limit=1", nil), &recs)
	if len(recs.Recommendations) != 1 || recs.Recommendations[0].FoodType != "apple" {
		t.Errorf("recommendations = %+v", recs)
	}

	w := do(t, h, http.MethodGet, "/api/v1/correlations", nil)
	var corr map[string]json.RawMessage
	decode(t, w, &corr)
	if string(corr["correlations"]) == "null" {
		t.Errorf("correlations should be an array, got %s", w.Body.String())
	}

	var impact struct {
		TotalWeight float64 `json:"totalWeight"`
		Cost        string  `json:"cost"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/impact", nil), &impact)
	if impact.TotalWeight != 3000 || impact.Cost != "15" {
		t.Errorf("impact = %+v", impact)
	}
}

func TestPatterns(t *testing.T) {
	_, h := newTestServer(t, daysAgo("apple", 10, 0))

	var body map[string]map[string]float64
	decode(t, do(t, h, http.MethodGet, "/api/v1/patterns", nil), &body)
	if body["dayOfWeek"]["Friday"] != 10 {
		t.Errorf("dayOfWeek pattern = %v", body["dayOfWeek"])
	}
	if body["mealPeriod"]["Lunch"] != 10 {
		t.Errorf("mealPeriod pattern = %v", body["mealPeriod"])
	}
}
