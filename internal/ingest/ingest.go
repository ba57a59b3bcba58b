package ingest

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// Appender receives accepted records.
type Appender interface {
	Append(rec waste.Record)
}

// Resolver maps a detector class name to a canonical food type.
type Resolver interface {
	Resolve(name string) string
}

// Result counts what happened to a batch of detections.
type Result struct {
	Accepted      int `json:"accepted"`
	NotWaste      int `json:"notWaste"`
	LowConfidence int `json:"lowConfidence"`
	Invalid       int `json:"invalid"`
}

// Add folds other into r.
func (r *Result) Add(other Result) {
	r.Accepted += other.Accepted
	r.NotWaste += other.NotWaste
	r.LowConfidence += other.LowConfidence
	r.Invalid += other.Invalid
}

// Ingester validates detections and appends them as records.
type Ingester struct {
	dst           Appender
	aliases       Resolver
	schedule      waste.MealSchedule
	minConfidence float64
	now           func() time.Time
	log           *zap.SugaredLogger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithAliases normalises food types through r.
func WithAliases(r Resolver) Option {
	return func(in *Ingester) { in.aliases = r }
}

// WithSchedule sets the meal schedule used when a detection has no meal
// period.
func WithSchedule(s waste.MealSchedule) Option {
	return func(in *Ingester) { in.schedule = s }
}

// WithMinConfidence drops detections below c.
func WithMinConfidence(c float64) Option {
	return func(in *Ingester) { in.minConfidence = c }
}

// WithClock overrides time.Now for detections without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(in *Ingester) { in.now = now }
}

// WithLogger sets the ingester logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(in *Ingester) { in.log = l }
}

// New creates an Ingester appending to dst.
func New(dst Appender, opts ...Option) *Ingester {
	in := &Ingester{
		dst:      dst,
		schedule: waste.DefaultMealSchedule(),
		now:      time.Now,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// ToRecord converts d into a validated record without appending it.
func (in *Ingester) ToRecord(d Detection) (waste.Record, error) {
	food := d.FoodType
	if in.aliases != nil {
		food = in.aliases.Resolve(food)
	}

	ts := d.Timestamp
	if ts == "" {
		ts = waste.FormatTimestamp(in.now())
	}

	meal := in.schedule.Classify(ts)
	if d.MealPeriod != "" {
		meal = waste.ParseMealPeriod(string(d.MealPeriod))
	}

	rec := waste.Record{
		FoodType:    food,
		WeightGrams: d.EstimatedWeight,
		Timestamp:   ts,
		Confidence:  d.Confidence,
		MealPeriod:  meal,
		ImageRef:    d.ImageRef,
	}
	if err := rec.Validate(); err != nil {
		return waste.Record{}, err
	}
	return rec, nil
}

// AddDetection appends d if it is waste, confident enough and valid.
func (in *Ingester) AddDetection(d Detection) (Result, error) {
	var res Result
	switch {
	case !d.IsWaste:
		res.NotWaste++
		return res, nil
	case d.Confidence < in.minConfidence:
		res.LowConfidence++
		return res, nil
	}

	rec, err := in.ToRecord(d)
	if err != nil {
		res.Invalid++
		return res, fmt.Errorf("detection %q: %w", d.FoodType, err)
	}

	in.dst.Append(rec)
	res.Accepted++
	in.log.Debugw("waste recorded",
		"food", rec.FoodType,
		"grams", rec.WeightGrams,
		"meal", rec.MealPeriod,
	)
	return res, nil
}

// AddManual records a hand-entered item. It bypasses the waste and
// confidence gates; a zero confidence is taken as certain.
func (in *Ingester) AddManual(d Detection) (waste.Record, error) {
	if d.Confidence == 0 {
		d.Confidence = 1
	}
	rec, err := in.ToRecord(d)
	if err != nil {
		return waste.Record{}, err
	}
	in.dst.Append(rec)
	in.log.Debugw("manual record added", "food", rec.FoodType, "grams", rec.WeightGrams)
	return rec, nil
}

// AddDetections ingests a batch. Invalid detections are logged and
// counted; they do not stop the batch.
func (in *Ingester) AddDetections(ds []Detection) Result {
	var total Result
	for _, d := range ds {
		res, err := in.AddDetection(d)
		if err != nil {
			in.log.Warnw("skipping invalid detection", "error", err)
		}
		total.Add(res)
	}
	return total
}
