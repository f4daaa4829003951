package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/salesdesk/internal/logging"
	"github.com/JonMunkholm/salesdesk/internal/metrics"
)

// DefaultMaxFileSize bounds how many bytes a load reads.
const DefaultMaxFileSize int64 = 50 << 20

// DefaultExtensions are the file extensions accepted by default.
var DefaultExtensions = []string{".csv", ".tsv", ".txt", ".xlsx"}

// Options configures a Service.
type Options struct {
	MaxFileSize       int64
	AllowedExtensions []string // lower-case, with leading dot
	Decode            DecodeOptions
	Suggest           SuggestConfig
	Locale            string // collation tag for filter option values
	Synonyms          Synonyms
	Now               func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = DefaultExtensions
	}
	o.Decode = o.Decode.withDefaults()
	o.Suggest = o.Suggest.withDefaults()
	if o.Locale == "" {
		o.Locale = DefaultLocale
	}
	if o.Synonyms == nil {
		o.Synonyms = DefaultSynonyms()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service owns the current dataset and answers queries against it.
//
// There is a single writer: Load swaps the dataset pointer in one assignment
// and the gate keeps loads from overlapping. Readers take the pointer under
// the read lock and work on the immutable snapshot without holding it.
type Service struct {
	opts Options
	gate *LoadGate

	mu      sync.RWMutex
	dataset *Dataset
}

// NewService creates a Service with no dataset loaded.
func NewService(opts Options) *Service {
	return &Service{
		opts: opts.withDefaults(),
		gate: NewLoadGate(),
	}
}

// LoadRequest is one file to load.
type LoadRequest struct {
	FileName string
	Body     io.Reader
	Encoding string // overrides the configured encoding when set
}

// Load reads, parses and installs a file as the current dataset.
//
// The extension is checked before anything is read. A load started while
// another is running fails with ErrLoadInProgress. A cancelled ctx abandons
// the load before parsing starts. On any failure the previous dataset stays
// in place.
func (s *Service) Load(ctx context.Context, req LoadRequest) (*LoadResult, error) {
	log := logging.WithFields(ctx, "file", req.FileName)

	if !s.Allowed(req.FileName) {
		metrics.ObserveLoad(metrics.Load{Outcome: metrics.OutcomeRejected})
		log.Warn("rejected file type", "ext", filepath.Ext(req.FileName))
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Ext(req.FileName))
	}

	if !s.gate.TryAcquire() {
		metrics.ObserveLoad(metrics.Load{Outcome: metrics.OutcomeRejected})
		log.Warn("load already in progress")
		return nil, ErrLoadInProgress
	}
	defer s.gate.Release()

	kind := KindOf(req.FileName)
	start := time.Now()

	data, err := s.read(req.Body)
	if err != nil {
		metrics.ObserveLoad(metrics.Load{Outcome: metrics.OutcomeFailed, Kind: string(kind)})
		log.Error("read failed", "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		metrics.ObserveLoad(metrics.Load{Outcome: metrics.OutcomeFailed, Kind: string(kind)})
		log.Info("load abandoned", "error", err)
		return nil, fmt.Errorf("load %s: %w", req.FileName, err)
	}

	popts := ParseOptions{Decode: s.opts.Decode, Synonyms: s.opts.Synonyms}
	if req.Encoding != "" {
		popts.Decode.Encoding = req.Encoding
	}

	ds, err := s.parse(ctx, kind, data, popts)
	if err != nil {
		metrics.ObserveLoad(metrics.Load{Outcome: metrics.OutcomeFailed, Kind: string(kind)})
		log.Error("parse failed", "error", err)
		return nil, err
	}

	ds.ID = uuid.New()
	ds.FileName = filepath.Base(req.FileName)
	ds.LoadedAt = s.opts.Now()

	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	missing := ds.Missing()
	elapsed := time.Since(start)
	result := &LoadResult{
		ID:        ds.ID,
		FileName:  ds.FileName,
		Kind:      ds.Kind,
		Delimiter: ds.Delimiter,
		Encoding:  ds.Encoding,
		Headers:   ds.Headers,
		Mapping:   ds.Mapping,
		Missing:   missing,
		Rows:      ds.Len(),
		Options:   FilterOptionsFor(ds.Records, s.opts.Locale),
		Duration:  elapsed,
	}
	if w := MissingColumnsWarning(missing); w != "" {
		result.Warnings = append(result.Warnings, w)
	}

	metrics.ObserveLoad(metrics.Load{
		Outcome:  metrics.OutcomeOK,
		Kind:     string(kind),
		Duration: elapsed,
		Records:  ds.Len(),
		Missing:  fieldNames(missing),
		FellBack: ds.Encoding.FellBack,
	})
	log.Info("dataset loaded",
		"load_id", ds.ID,
		"rows", ds.Len(),
		"delimiter", ds.Delimiter,
		"encoding", ds.Encoding.Used,
		"missing", fieldNames(missing),
		"duration", elapsed,
	)

	return result, nil
}

// read drains r up to the size limit. A zero-byte body is not an error: it
// parses to an empty dataset whose load result warns about the missing
// columns.
func (s *Service) read(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, ErrNoFile
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.opts.MaxFileSize)
	}
	return data, nil
}

// parse runs Parse and turns a panic into ErrParseFailed.
func (s *Service) parse(ctx context.Context, kind FileKind, data []byte, opts ParseOptions) (ds *Dataset, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("panic while parsing file", "panic", r)
			ds, err = nil, fmt.Errorf("%w: %v", ErrParseFailed, r)
		}
	}()
	return Parse(kind, data, opts)
}

// Allowed reports whether fileName has an accepted extension.
func (s *Service) Allowed(fileName string) bool {
	return slices.Contains(s.opts.AllowedExtensions, strings.ToLower(filepath.Ext(fileName)))
}

// Extensions returns the accepted extensions.
func (s *Service) Extensions() []string {
	return slices.Clone(s.opts.AllowedExtensions)
}

// Snapshot returns the current dataset, or nil before the first load.
func (s *Service) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Summary aggregates the records matching c.
func (s *Service) Summary(c FilterCriteria) Summary {
	ds := s.Snapshot()
	if ds == nil {
		return Summarize(nil)
	}
	sum := Summarize(ApplyFilters(ds.Records, c))
	sum.TotalRows = ds.Len()
	return sum
}

// Records returns the records matching c in file order.
func (s *Service) Records(c FilterCriteria) []Record {
	ds := s.Snapshot()
	if ds == nil {
		return []Record{}
	}
	return ApplyFilters(ds.Records, c)
}

// Suggestions computes fast movers and issues over the whole dataset.
func (s *Service) Suggestions() Suggestions {
	var records []Record
	if ds := s.Snapshot(); ds != nil {
		records = ds.Records
	}
	return Suggest(records, s.opts.Suggest, s.opts.Now())
}

// Issues returns every de-duplicated issue without the display cap.
func (s *Service) Issues() []Issue {
	ds := s.Snapshot()
	if ds == nil {
		return []Issue{}
	}
	return DedupeIssues(DetectIssues(ds.Records, s.opts.Now()))
}

// FilterOptions returns the group and class values of the current dataset.
func (s *Service) FilterOptions() FilterOptions {
	ds := s.Snapshot()
	if ds == nil {
		return FilterOptions{Groups: []string{}, Classes: []string{}}
	}
	return FilterOptionsFor(ds.Records, s.opts.Locale)
}

// GateStatus reports whether a load is running.
func (s *Service) GateStatus() LoadGateStatus {
	return s.gate.Status()
}

// WaitForDrain blocks until a running load finishes or ctx is done.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
