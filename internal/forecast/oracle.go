// internal/forecast/oracle.go
package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

// Oracle produces a demand forecast for a SKU and target date. The engine
// treats the model behind it as opaque; implementations return
// domain.ErrForecastUnavailable when no value exists for the date.
type Oracle interface {
	Forecast(ctx context.Context, sku string, target time.Time) (domain.ForecastSample, error)
}

// Store is an in-memory Oracle backed by a sample table. It is fed by the
// forecast ingest service and by simulation drivers.
type Store struct {
	mu      sync.RWMutex
	samples map[string]map[string]domain.ForecastSample
}

func NewStore() *Store {
	return &Store{samples: make(map[string]map[string]domain.ForecastSample)}
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Put stores one sample, replacing any prior sample for the same SKU+date.
func (s *Store) Put(sample domain.ForecastSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bySKU, ok := s.samples[sample.SKU]
	if !ok {
		bySKU = make(map[string]domain.ForecastSample)
		s.samples[sample.SKU] = bySKU
	}
	bySKU[dateKey(sample.TargetDate)] = sample
}

// PutAll stores a batch of samples.
func (s *Store) PutAll(samples []domain.ForecastSample) {
	for _, sample := range samples {
		s.Put(sample)
	}
}

// UpsertSamples lets the Store double as a sink for the forecast ingest
// service and the API's forecast upload endpoint.
func (s *Store) UpsertSamples(_ context.Context, samples []domain.ForecastSample) error {
	s.PutAll(samples)
	return nil
}

// Forecast implements Oracle.
func (s *Store) Forecast(_ context.Context, sku string, target time.Time) (domain.ForecastSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bySKU, ok := s.samples[sku]
	if !ok {
		return domain.ForecastSample{}, domain.ErrForecastUnavailable
	}
	sample, ok := bySKU[dateKey(target)]
	if !ok {
		return domain.ForecastSample{}, domain.ErrForecastUnavailable
	}
	return sample, nil
}

// SampleSource is the read side of a persisted forecast table.
type SampleSource interface {
	GetSample(ctx context.Context, sku string, target time.Time) (domain.ForecastSample, error)
}

// RepositoryOracle adapts a persisted forecast table into an Oracle.
type RepositoryOracle struct {
	src SampleSource
}

func NewRepositoryOracle(src SampleSource) *RepositoryOracle {
	return &RepositoryOracle{src: src}
}

func (o *RepositoryOracle) Forecast(ctx context.Context, sku string, target time.Time) (domain.ForecastSample, error) {
	return o.src.GetSample(ctx, sku, target)
}
