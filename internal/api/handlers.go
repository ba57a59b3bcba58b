package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/store"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// DefaultPredictDays is the forecast offset when /predict has no days.
const DefaultPredictDays = 7

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "wastewatch",
		"records": s.store.Len(),
		"version": s.store.Version(),
	})
}

func (s *Server) listRecords(c *gin.Context) {
	recs := s.store.Query(store.Filter{
		FoodType:  c.Query("food"),
		StartDate: c.Query("start"),
		EndDate:   c.Query("end"),
	})
	if recs == nil {
		recs = []waste.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(recs), "records": recs})
}

// recordRequest is a hand-entered record. Timestamp and meal are optional.
type recordRequest struct {
	FoodType   string  `json:"foodType" binding:"required"`
	Weight     float64 `json:"weight"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	MealPeriod string  `json:"mealPeriod"`
	ImageRef   string  `json:"imageFilename"`
}

func (s *Server) addRecord(c *gin.Context) {
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("could not read record: %w", err))
		return
	}

	rec, err := s.ingester.AddManual(ingest.Detection{
		FoodType:        req.FoodType,
		EstimatedWeight: req.Weight,
		Timestamp:       req.Timestamp,
		Confidence:      req.Confidence,
		MealPeriod:      waste.MealPeriod(req.MealPeriod),
		ImageRef:        req.ImageRef,
		IsWaste:         true,
	})
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) addDetections(c *gin.Context) {
	var ds []ingest.Detection
	if err := c.ShouldBindJSON(&ds); err != nil {
		badRequest(c, fmt.Errorf("could not read detections: %w", err))
		return
	}
	res := s.ingester.AddDetections(ds)
	c.JSON(http.StatusOK, res)
}

func (s *Server) getStats(c *gin.Context) {
	p, err := stats.ParsePeriod(c.Query("period"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if p == stats.AllTime {
		c.JSON(http.StatusOK, s.agg.Snapshot())
		return
	}
	c.JSON(http.StatusOK, s.agg.SnapshotFor(p))
}

func (s *Server) getPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dayOfWeek":  s.agg.DayOfWeekPattern(),
		"month":      s.agg.MonthlyPattern(),
		"mealPeriod": s.agg.MealPeriodPattern(),
	})
}

func (s *Server) dailyTrend(c *gin.Context) {
	days, ok := intQuery(c, "days", analyzer.DefaultTrendDays)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.analyzer.DailyTrend(days))
}

func (s *Server) foodTrend(c *gin.Context) {
	days, ok := intQuery(c, "days", analyzer.DefaultTrendDays)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.analyzer.FoodTypeTrend(c.Param("food"), days))
}

func (s *Server) mealTrend(c *gin.Context) {
	days, ok := intQuery(c, "days", analyzer.DefaultTrendDays)
	if !ok {
		return
	}
	meal := waste.ParseMealPeriod(c.Param("meal"))
	c.JSON(http.StatusOK, s.analyzer.MealPeriodTrend(meal, days))
}

func (s *Server) predict(c *gin.Context) {
	days, ok := intQuery(c, "days", DefaultPredictDays)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"daysAhead":      days,
		"predictedWaste": s.analyzer.PredictFutureWaste(days),
		"model":          s.analyzer.Model(),
	})
}

func (s *Server) insights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"insights": s.analyzer.Insights()})
}

func (s *Server) recommendations(c *gin.Context) {
	limit, ok := intQuery(c, "limit", analyzer.DefaultRecommendationLimit)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": s.analyzer.Recommendations(limit)})
}

func (s *Server) correlations(c *gin.Context) {
	found := s.analyzer.Correlations()
	if found == nil {
		found = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"correlations": found})
}

func (s *Server) impact(c *gin.Context) {
	c.JSON(http.StatusOK, s.analyzer.Impact(s.factors))
}

// intQuery reads an integer query parameter. On a malformed value it writes
// a 400 and returns false.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid %s %q: must be an integer", name, raw))
		return 0, false
	}
	return n, true
}

func badRequest(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, waste.ErrInvalidRecord) {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
