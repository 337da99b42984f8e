package dataset

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// Fixed file names of the two sandpiper source tables under the data directory.
const (
	MetadataFileName  = "sandpiper1.0.0.condensed.biorun-metadata.csv.gz"
	AbundanceFileName = "sandpiper1.0.0.condensed.summary.phylum.csv.gz"
)

// ErrSourceNotFound indicates the data directory or one of the source files
// is missing.
var ErrSourceNotFound = errors.New("source not found")

// MalformedSourceError indicates a source file exists but cannot be parsed
// as tabular data.
type MalformedSourceError struct {
	File string
	Err  error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed source %s: %v", e.File, e.Err)
}

func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}

// Loader reads the two compressed tabular sources from a data directory.
type Loader struct {
	dir    string
	logger *zap.Logger
}

// NewLoader creates a loader for the given data directory.
func NewLoader(dir string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{dir: dir, logger: logger}
}

// Load reads both source tables. Loading is idempotent; callers replace any
// prior in-memory state with the returned tables.
func (l *Loader) Load() (*MetadataTable, *AbundanceTable, error) {
	if info, err := os.Stat(l.dir); err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: data directory %s", ErrSourceNotFound, l.dir)
	}

	meta, err := l.LoadMetadata()
	if err != nil {
		return nil, nil, err
	}
	abundance, err := l.LoadAbundance()
	if err != nil {
		return nil, nil, err
	}
	return meta, abundance, nil
}

// LoadMetadata reads the biorun metadata table, retaining only the columns
// the pipeline uses.
func (l *Loader) LoadMetadata() (*MetadataTable, error) {
	path := filepath.Join(l.dir, MetadataFileName)
	records, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &MalformedSourceError{File: path, Err: errors.New("empty file")}
	}

	header := records[0]
	runIdx := columnIndex(header, "run_accession")
	orgIdx := columnIndex(header, "organism_name")
	bioIdx := columnIndex(header, "biosample")
	if runIdx < 0 || orgIdx < 0 || bioIdx < 0 {
		return nil, &MalformedSourceError{File: path, Err: errors.New("missing required metadata columns")}
	}

	table := &MetadataTable{Rows: make([]SampleMetadataRow, 0, len(records)-1)}
	for _, rec := range records[1:] {
		table.Rows = append(table.Rows, SampleMetadataRow{
			RunAccession: rec[runIdx],
			OrganismName: rec[orgIdx],
			Biosample:    rec[bioIdx],
		})
	}

	l.logger.Info("metadata loaded",
		zap.String("file", MetadataFileName),
		zap.Int("rows", table.Len()))
	return table, nil
}

// LoadAbundance reads the phylum composition table. Every column whose name
// starts with d__ or equals "unassigned" is treated as a taxon column; all
// other columns except biorun are ignored.
func (l *Loader) LoadAbundance() (*AbundanceTable, error) {
	path := filepath.Join(l.dir, AbundanceFileName)
	records, err := l.readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &MalformedSourceError{File: path, Err: errors.New("empty file")}
	}

	header := records[0]
	biorunIdx := columnIndex(header, "biorun")
	if biorunIdx < 0 {
		return nil, &MalformedSourceError{File: path, Err: errors.New("missing biorun column")}
	}

	var taxonCols []string
	var taxonIdx []int
	for i, name := range header {
		if IsTaxonColumn(name) {
			taxonCols = append(taxonCols, name)
			taxonIdx = append(taxonIdx, i)
		}
	}
	if len(taxonCols) == 0 {
		return nil, &MalformedSourceError{File: path, Err: errors.New("no taxon columns detected")}
	}

	table := &AbundanceTable{
		TaxonColumns: taxonCols,
		Rows:         make([]AbundanceRow, 0, len(records)-1),
	}
	for rowNum, rec := range records[1:] {
		values := make([]float64, len(taxonIdx))
		for j, col := range taxonIdx {
			cell := rec[col]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &MalformedSourceError{
					File: path,
					Err:  fmt.Errorf("row %d column %s: %w", rowNum+2, header[col], err),
				}
			}
			values[j] = v
		}
		table.Rows = append(table.Rows, AbundanceRow{Biorun: rec[biorunIdx], Values: values})
	}

	l.logger.Info("abundance data loaded",
		zap.String("file", AbundanceFileName),
		zap.Int("rows", table.Len()),
		zap.Int("taxa", len(taxonCols)))
	return table, nil
}

// readCSV opens a gzip-compressed CSV file and reads all records.
func (l *Loader) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, &MalformedSourceError{File: path, Err: err}
	}
	defer gz.Close()

	records, err := csv.NewReader(gz).ReadAll()
	if err != nil {
		return nil, &MalformedSourceError{File: path, Err: err}
	}
	return records, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
