package ml

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Predictor adapts a loaded classifier to encoded rows. It is created once at
// startup and is safe for concurrent use; the classifier is never mutated.
type Predictor struct {
	model   Classifier
	columns []string
	cache   *lru.Cache[string, Prediction]
	logger  *zap.Logger
}

type Option func(*Predictor) error

// WithCacheSize memoizes up to size predictions in memory. Zero or a negative size disables the cache.
func WithCacheSize(size int) Option {
	return func(p *Predictor) error {
		if size <= 0 {
			p.cache = nil
			return nil
		}
		cache, err := lru.New[string, Prediction](size)
		if err != nil {
			return err
		}
		p.cache = cache
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewPredictor checks the classifier against the encoder layout and fails
// with ErrSchemaMismatch if they differ.
func NewPredictor(model Classifier, opts ...Option) (*Predictor, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: no classifier", ErrModelLoad)
	}
	p := &Predictor{
		model:   model,
		columns: model.FeatureNames(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := checkSchema(p.columns, Columns()); err != nil {
		return nil, err
	}
	return p, nil
}

// Classify returns the subscription label for row.
func (p *Predictor) Classify(row Row) (Label, error) {
	prediction, err := p.Predict(row)
	if err != nil {
		return NotSubscribed, err
	}
	return prediction.Label, nil
}

// Predict returns the label and positive-class probability for row.
func (p *Predictor) Predict(row Row) (Prediction, error) {
	if len(row.Values) != len(row.Columns) {
		return Prediction{}, fmt.Errorf("%w: %d columns but %d values", ErrSchemaMismatch, len(row.Columns), len(row.Values))
	}
	if err := checkSchema(p.columns, row.Columns); err != nil {
		return Prediction{}, err
	}

	key := cacheKey(row.Values)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}

	label, probability, err := p.model.Predict(row.Values)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	prediction := Prediction{Label: NotSubscribed, Probability: probability}
	if label == 1 {
		prediction.Label = Subscribed
	}

	if p.cache != nil {
		p.cache.Add(key, prediction)
	}
	p.logger.Debug("classified row",
		zap.Stringer("label", prediction.Label),
		zap.Float64("probability", probability))
	return prediction, nil
}

// Columns returns the classifier's expected columns.
func (p *Predictor) Columns() []string {
	return append([]string(nil), p.columns...)
}

func checkSchema(expected, got []string) error {
	var errs error
	want := make(map[string]struct{}, len(expected))
	for _, column := range expected {
		want[column] = struct{}{}
	}
	have := make(map[string]struct{}, len(got))
	for _, column := range got {
		have[column] = struct{}{}
		if _, ok := want[column]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("unexpected column %q", column))
		}
	}
	for _, column := range expected {
		if _, ok := have[column]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("missing column %q", column))
		}
	}
	if errs == nil && len(expected) != len(got) {
		errs = fmt.Errorf("expected %d columns, got %d", len(expected), len(got))
	}
	if errs == nil {
		for i := range expected {
			if expected[i] != got[i] {
				errs = fmt.Errorf("column %d is %q, expected %q", i, got[i], expected[i])
				break
			}
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, errs)
	}
	return nil
}

func cacheKey(values []float64) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
