// Package source loads country snapshots and global timelines.
//
// CSVFile reads the country snapshot from disk, Historical fetches the
// global timeline from a disease.sh compatible API, and SyntheticTimeline
// builds the placeholder series used when the API is unreachable.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/normalize"
	"github.com/okian/covidboard/pkg/logger"
	"github.com/okian/covidboard/pkg/metrics"
)

const csvSourceLabel = "file"

// CSVFile loads a country snapshot CSV.
type CSVFile struct {
	path string
	log  logger.Logger
}

// NewCSVFile returns a loader for the CSV at path.
func NewCSVFile(path string, log logger.Logger) *CSVFile {
	if log == nil {
		log = logger.Nop()
	}
	return &CSVFile{path: path, log: log.Named("csvfile")}
}

// Path returns the file the loader reads.
func (f *CSVFile) Path() string { return f.path }

// Load reads and normalizes the whole file.
func (f *CSVFile) Load(ctx context.Context) (*model.Dataset, error) {
	start := time.Now()
	d, err := f.load(ctx)
	metrics.RecordDatasetLoadLatency(csvSourceLabel, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordDatasetLoad(csvSourceLabel, "error")
		f.log.Error(ctx, "snapshot load failed", logger.String("path", f.path), logger.Error(err))
		return nil, err
	}
	metrics.RecordDatasetLoad(csvSourceLabel, "ok")
	metrics.UpdateDatasetRecords(csvSourceLabel, d.Len())
	f.log.Info(ctx, "snapshot loaded",
		logger.String("path", f.path),
		logger.Int("records", d.Len()),
		logger.String("dataset_id", d.ID().String()))
	return d, nil
}

func (f *CSVFile) load(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, &LoadError{Source: f.path, Err: err}
	}
	defer func() { _ = fh.Close() }()

	return ReadDataset(ctx, f.path, fh, f.log)
}

// ReadDataset parses a snapshot from r. Every column is read as text and
// converted by the normalizer, so numeric formatting quirks surface as
// row errors rather than silent type coercion.
func ReadDataset(ctx context.Context, src string, r io.Reader, log logger.Logger) (*model.Dataset, error) {
	if log == nil {
		log = logger.Nop()
	}
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, &LoadError{Source: src, Err: df.Err}
	}

	rows := df.Records()
	if len(rows) < 2 {
		return nil, &LoadError{Source: src, Err: ErrEmptySource}
	}
	header := rows[0]

	rep := normalize.CheckHeader(header)
	if !rep.Clean() {
		metrics.RecordSchemaDrift("missing", len(rep.Missing))
		metrics.RecordSchemaDrift("unknown", len(rep.Unknown))
		missing := make([]string, len(rep.Missing))
		for i, m := range rep.Missing {
			missing[i] = m.String()
		}
		log.Warn(ctx, "snapshot header differs from canonical schema",
			logger.String("source", src),
			logger.Strings("missing", missing),
			logger.Strings("unknown", rep.Unknown))
	}

	records := make([]model.Record, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := make(map[string]string, len(header))
		for j, h := range header {
			row[h] = cells[j]
		}
		rec, _, err := normalize.Normalize(row)
		if err != nil {
			return nil, &LoadError{Source: src, Row: i + 1, Err: err}
		}
		records = append(records, rec)
	}

	d, err := model.NewDataset(src, model.ProvenanceFile, records)
	if err != nil {
		return nil, &LoadError{Source: src, Err: fmt.Errorf("build dataset: %w", err)}
	}
	return d, nil
}
