package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"
)

const salesCSV = "Продукт,Количество,Дата,Група,Клас\n" +
	"Ябълки,12,2024-03-05,Плодове,A\n" +
	"Круши,3,2024-03-06,Плодове,B\n" +
	"Моркови,7,2024-03-07,Зеленчуци,A\n" +
	"Ябълки,1,2024-03-08,Плодове,A\n"

func newTestService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return NewService(opts)
}

func load(t *testing.T, s *Service, name, body string) *LoadResult {
	t.Helper()
	res, err := s.Load(context.Background(), LoadRequest{FileName: name, Body: strings.NewReader(body)})
	if err != nil {
		t.Fatalf("Load(%s) error = %v", name, err)
	}
	return res
}

func TestService_Load(t *testing.T) {
	s := newTestService(Options{})

	if s.Snapshot() != nil {
		t.Fatal("new service should have no dataset")
	}

	res := load(t, s, "uploads/march.csv", salesCSV)

	if res.FileName != "march.csv" {
		t.Errorf("FileName = %q, want base name", res.FileName)
	}
	if res.Rows != 4 {
		t.Errorf("Rows = %d, want 4", res.Rows)
	}
	if res.Delimiter != "comma" {
		t.Errorf("Delimiter = %q, want comma", res.Delimiter)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
	if len(res.Options.Groups) != 2 || res.Options.Groups[0] != "Зеленчуци" {
		t.Errorf("Options.Groups = %v, want [Зеленчуци Плодове]", res.Options.Groups)
	}

	ds := s.Snapshot()
	if ds == nil || ds.ID != res.ID {
		t.Fatal("Snapshot() should return the loaded dataset")
	}
	if !ds.LoadedAt.Equal(testNow) {
		t.Errorf("LoadedAt = %v, want %v", ds.LoadedAt, testNow)
	}
}

func TestService_LoadEmptyFile(t *testing.T) {
	s := newTestService(Options{})
	res := load(t, s, "empty.csv", "")

	if res.Rows != 0 {
		t.Errorf("Rows = %d, want 0", res.Rows)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "VAL004") {
		t.Errorf("Warnings = %v, want one VAL004 warning", res.Warnings)
	}
	if s.Snapshot() == nil || s.Snapshot().Len() != 0 {
		t.Error("an empty file should install an empty dataset")
	}
}

func TestService_LoadMissingColumns(t *testing.T) {
	s := newTestService(Options{})
	res := load(t, s, "notes.csv", "Описание,Дата\nнещо,2024-03-01\n")

	if len(res.Missing) != 2 {
		t.Errorf("Missing = %v, want product and quantity", res.Missing)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "VAL004") {
		t.Errorf("Warnings = %v, want one VAL004 warning", res.Warnings)
	}
	if res.Rows != 1 {
		t.Errorf("Rows = %d, want 1", res.Rows)
	}
}

func TestService_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		req     LoadRequest
		wantErr error
	}{
		{
			name:    "unsupported extension",
			req:     LoadRequest{FileName: "sales.pdf", Body: strings.NewReader(salesCSV)},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name:    "no body",
			req:     LoadRequest{FileName: "sales.csv"},
			wantErr: ErrNoFile,
		},
		{
			name:    "too large",
			opts:    Options{MaxFileSize: 20},
			req:     LoadRequest{FileName: "sales.csv", Body: strings.NewReader(salesCSV)},
			wantErr: ErrFileTooLarge,
		},
		{
			name:    "read failure",
			req:     LoadRequest{FileName: "sales.csv", Body: iotest.ErrReader(errors.New("disk gone"))},
			wantErr: ErrReadFailed,
		},
		{
			name:    "broken workbook",
			req:     LoadRequest{FileName: "sales.xlsx", Body: strings.NewReader("not a workbook")},
			wantErr: ErrParseFailed,
		},
		{
			name: "unknown encodings",
			opts: Options{Decode: DecodeOptions{Fallback: "vulcan"}},
			req: LoadRequest{
				FileName: "sales.csv",
				Body:     strings.NewReader(salesCSV),
				Encoding: "klingon",
			},
			wantErr: ErrUnknownEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(tt.opts)
			load(t, s, "previous.csv", "product,qty\nA,1")
			before := s.Snapshot()

			_, err := s.Load(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if s.Snapshot() != before {
				t.Error("failed load should keep the previous dataset")
			}
		})
	}
}

func TestService_LoadCancelled(t *testing.T) {
	s := newTestService(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, LoadRequest{FileName: "sales.csv", Body: strings.NewReader(salesCSV)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
	if s.Snapshot() != nil {
		t.Error("cancelled load should not install a dataset")
	}
}

func TestService_LoadInProgress(t *testing.T) {
	s := newTestService(Options{})

	if !s.gate.TryAcquire() {
		t.Fatal("gate should be free")
	}
	_, err := s.Load(context.Background(), LoadRequest{FileName: "sales.csv", Body: strings.NewReader(salesCSV)})
	if !errors.Is(err, ErrLoadInProgress) {
		t.Errorf("Load() error = %v, want ErrLoadInProgress", err)
	}
	if !s.GateStatus().Busy {
		t.Error("GateStatus().Busy = false, want true")
	}
	s.gate.Release()

	load(t, s, "sales.csv", salesCSV)
}

func TestService_LoadEncodingOverride(t *testing.T) {
	s := newTestService(Options{})
	res, err := s.Load(context.Background(), LoadRequest{
		FileName: "sales.csv",
		Body:     strings.NewReader(string(encode1251(t, salesCSV))),
		Encoding: "windows-1251",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Encoding.Used != "windows-1251" || res.Encoding.FellBack {
		t.Errorf("Encoding = %+v, want windows-1251 without fallback", res.Encoding)
	}
}

func TestService_Views(t *testing.T) {
	s := newTestService(Options{})

	// Before any load every view is empty.
	if sum := s.Summary(FilterCriteria{}); sum.RowCount != 0 || sum.Rows == nil {
		t.Errorf("empty Summary() = %+v", sum)
	}
	if got := s.Records(FilterCriteria{}); got == nil || len(got) != 0 {
		t.Errorf("empty Records() = %v", got)
	}
	if got := s.Issues(); got == nil || len(got) != 0 {
		t.Errorf("empty Issues() = %v", got)
	}
	if opts := s.FilterOptions(); opts.Groups == nil || opts.Classes == nil {
		t.Errorf("empty FilterOptions() = %+v", opts)
	}

	load(t, s, "sales.csv", salesCSV)

	sum := s.Summary(FilterCriteria{Group: "Плодове"})
	if sum.TotalRows != 4 || sum.RowCount != 3 || sum.TotalQuantity != 16 {
		t.Errorf("Summary() = %+v, want 3 of 4 rows totalling 16", sum)
	}
	if sum.Rows[0].Product != "Ябълки" || sum.Rows[0].TotalQuantity != 13 {
		t.Errorf("top row = %+v, want Ябълки 13", sum.Rows[0])
	}

	if got := s.Records(FilterCriteria{Class: "A"}); len(got) != 3 {
		t.Errorf("len(Records(class A)) = %d, want 3", len(got))
	}

	// Suggestions ignore filters and use the whole dataset.
	sug := s.Suggestions()
	if FormatDate(sug.ReferenceDate) != "2024-03-08" {
		t.Errorf("ReferenceDate = %s, want 2024-03-08", FormatDate(sug.ReferenceDate))
	}
	if len(sug.FastMovers) != 2 {
		t.Errorf("FastMovers = %+v, want Ябълки and Моркови", sug.FastMovers)
	}
	if sug.Issues.Total != 0 {
		t.Errorf("Issues.Total = %d, want 0", sug.Issues.Total)
	}
}

func TestService_Extensions(t *testing.T) {
	s := newTestService(Options{AllowedExtensions: []string{".csv"}})
	if !s.Allowed("A.CSV") {
		t.Error("Allowed() should ignore extension case")
	}
	if s.Allowed("a.xlsx") {
		t.Error("Allowed(.xlsx) = true, want false")
	}

	exts := s.Extensions()
	exts[0] = ".exe"
	if s.Allowed("a.exe") {
		t.Error("Extensions() should return a copy")
	}
}

func TestService_ConcurrentReaders(t *testing.T) {
	s := newTestService(Options{})
	load(t, s, "sales.csv", salesCSV)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				sum := s.Summary(FilterCriteria{})
				if sum.RowCount != sum.TotalRows {
					t.Errorf("unfiltered summary saw %d of %d rows", sum.RowCount, sum.TotalRows)
					return
				}
				_ = s.Suggestions()
			}
		}()
	}

	for i := 0; i < 20; i++ {
		load(t, s, "sales.csv", salesCSV+strings.Repeat("Сливи,1,2024-03-09,Плодове,C\n", i))
	}
	close(stop)
	wg.Wait()

	if got := s.Snapshot().Len(); got != 4+19 {
		t.Errorf("final Len() = %d, want 23", got)
	}
}

func TestService_WaitForDrain(t *testing.T) {
	s := newTestService(Options{})
	pr, pw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		_, err := s.Load(context.Background(), LoadRequest{FileName: "slow.csv", Body: pr})
		done <- err
	}()

	// Wait until the load holds the gate.
	deadline := time.Now().Add(time.Second)
	for !s.GateStatus().Busy {
		if time.Now().After(deadline) {
			t.Fatal("load never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	go func() {
		_, _ = pw.Write([]byte(salesCSV))
		_ = pw.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Snapshot().Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Snapshot().Len())
	}
}
