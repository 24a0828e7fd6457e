// internal/forecastingest/ingest.go
package forecastingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/rs/zerolog/log"
)

// SampleSink receives parsed forecast samples. Both the in-memory forecast
// store and the postgres forecast repository satisfy it.
type SampleSink interface {
	UpsertSamples(ctx context.Context, samples []domain.ForecastSample) error
}

// Ingestor pulls forecast CSV drops from Drive into a sample sink.
// Expected columns: sku, date (YYYY-MM-DD), expected, lower, upper.
type Ingestor struct {
	drv  *DriveService
	sink SampleSink
}

func NewIngestor(drv *DriveService, sink SampleSink) *Ingestor {
	return &Ingestor{drv: drv, sink: sink}
}

// Result summarizes one ingest run.
type Result struct {
	Files    int `json:"files"`
	Samples  int `json:"samples"`
	Rejected int `json:"rejected"`
}

// Run ingests every CSV in the watched folder.
func (in *Ingestor) Run(ctx context.Context, folderPath string) (Result, error) {
	var result Result

	folderID, err := in.drv.ResolveFolder(folderPath)
	if err != nil {
		return result, err
	}

	files, err := in.drv.ListForecastFiles(folderID)
	if err != nil {
		return result, err
	}

	for _, file := range files {
		var buf bytes.Buffer
		if err := in.drv.Download(file.ID, &buf); err != nil {
			return result, fmt.Errorf("download %s: %w", file.Name, err)
		}

		samples, rejected, err := ParseForecastCSV(&buf)
		if err != nil {
			return result, fmt.Errorf("parse %s: %w", file.Name, err)
		}
		result.Rejected += rejected

		if err := in.sink.UpsertSamples(ctx, samples); err != nil {
			return result, fmt.Errorf("store samples from %s: %w", file.Name, err)
		}

		result.Files++
		result.Samples += len(samples)
		log.Info().
			Str("file", file.Name).
			Int("samples", len(samples)).
			Int("rejected", rejected).
			Msg("forecast file ingested")
	}

	return result, nil
}

// ParseForecastCSV parses forecast rows, repairing bound ordering and
// counting rows it had to drop entirely.
func ParseForecastCSV(r io.Reader) ([]domain.ForecastSample, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var (
		samples  []domain.ForecastSample
		rejected int
		line     int
	)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rejected, fmt.Errorf("read csv: %w", err)
		}
		line++

		// Skip a header row if present.
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "sku") {
			continue
		}
		if len(record) < 5 {
			rejected++
			continue
		}

		date, err := time.Parse(time.DateOnly, strings.TrimSpace(record[1]))
		if err != nil {
			rejected++
			continue
		}
		expected, err1 := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		lower, err2 := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		upper, err3 := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			rejected++
			continue
		}

		sample := domain.ForecastSample{
			SKU:        strings.TrimSpace(record[0]),
			TargetDate: date,
			Expected:   expected,
			Lower:      lower,
			Upper:      upper,
		}
		if sample.SKU == "" {
			rejected++
			continue
		}
		if !sample.Valid() {
			sample = sample.Repair()
		}
		samples = append(samples, sample)
	}

	return samples, rejected, nil
}
