package web

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/JonMunkholm/salesdesk/internal/core"
	"github.com/JonMunkholm/salesdesk/internal/logging"
	"github.com/JonMunkholm/salesdesk/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and the other fields.
const multipartOverhead = 1 << 20

// handleLoad loads an uploaded file as the current dataset.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxMemory); err != nil {
		if isBodyTooLarge(err) {
			respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: multipart form: %v", errInvalidParam, err), http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := s.parseLoadParams(r)
	if err != nil {
		respondErrorDetail(w, r, err, http.StatusBadRequest, detailOf(err))
		return
	}

	result, err := s.service.Load(r.Context(), core.LoadRequest{
		FileName: header.Filename,
		Body:     file,
		Encoding: params.Encoding,
	})
	if err != nil {
		var detail string
		if errors.Is(err, core.ErrUnsupportedFileType) {
			detail = "allowed extensions: " + strings.Join(s.service.Extensions(), ", ")
		}
		respondErrorDetail(w, r, err, statusFor(err), detail)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("HX-Trigger", "dataset-loaded")
		_ = templates.LoadBanner(result).Render(r.Context(), w)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// DatasetResponse describes the current dataset.
type DatasetResponse struct {
	*core.Dataset
	Rows    int          `json:"rows"`
	Missing []core.Field `json:"missing,omitempty"`
}

// handleDataset returns metadata of the current dataset.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	ds := s.service.Snapshot()
	if ds == nil {
		respondError(w, r, core.ErrNoDataset, http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, DatasetResponse{
		Dataset: ds,
		Rows:    ds.Len(),
		Missing: ds.Missing(),
	})
}

// handleOptions returns the group and class filter values. HTMX requests
// name one field and get <option> elements for it.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.service.FilterOptions()

	if !isHTMX(r) {
		writeJSON(w, r, http.StatusOK, opts)
		return
	}

	field := r.URL.Query().Get("field")
	if err := s.validate.Var(field, "oneof=group class"); err != nil {
		respondErrorDetail(w, r, errInvalidParam, http.StatusBadRequest, "field must be group or class")
		return
	}
	values := opts.Groups
	if field == "class" {
		values = opts.Classes
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = templates.OptionsSelect(values, r.URL.Query().Get("selected")).Render(r.Context(), w)
}

// handleSummary returns the per-product totals for the filter in the query.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.parseFilterParams(r)
	if err != nil {
		respondErrorDetail(w, r, err, http.StatusBadRequest, detailOf(err))
		return
	}

	sum := s.service.Summary(criteria)
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.SummaryTable(sum).Render(r.Context(), w)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}

// handleSummaryCSV downloads the filtered per-product totals.
func (s *Server) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.parseFilterParams(r)
	if err != nil {
		respondErrorDetail(w, r, err, http.StatusBadRequest, detailOf(err))
		return
	}

	sum := s.service.Summary(criteria)
	writeCSV(w, r, s.exportName("summary"), sum.Rows)
}

// handleSuggestions returns fast movers and issues for the whole dataset.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	sug := s.service.Suggestions()
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.SuggestionsPanel(sug).Render(r.Context(), w)
		return
	}
	writeJSON(w, r, http.StatusOK, sug)
}

// recordsHeader is the header row of the records export.
var recordsHeader = []string{"row", "product", "quantity", "date", "group", "class"}

// handleRecordsCSV downloads the filtered normalized records in file order.
func (s *Server) handleRecordsCSV(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.parseFilterParams(r)
	if err != nil {
		respondErrorDetail(w, r, err, http.StatusBadRequest, detailOf(err))
		return
	}

	records := s.service.Records(criteria)
	fileName := s.exportName("records")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	bw := bufio.NewWriter(w)
	_, _ = bw.Write(utf8BOM)
	_, _ = bw.WriteString(core.JoinRow(recordsHeader, ',') + "\n")
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Row),
			rec.Product,
			strconv.FormatInt(rec.Quantity, 10),
			core.FormatDate(rec.Date),
			rec.Group,
			rec.Class,
		}
		if _, err := bw.WriteString(core.JoinRow(row, ',') + "\n"); err != nil {
			logging.FromContext(r.Context()).Error("records export failed", "file", fileName, "error", err)
			return
		}
	}
	if err := bw.Flush(); err != nil {
		logging.FromContext(r.Context()).Error("records export failed", "file", fileName, "error", err)
	}
}

// issueCSVRow is one line of the issues export.
type issueCSVRow struct {
	Row      int    `csv:"row"`
	Reason   string `csv:"reason"`
	Label    string `csv:"description"`
	Product  string `csv:"product"`
	Quantity int64  `csv:"quantity"`
	Date     string `csv:"date"`
}

// handleIssuesCSV downloads every de-duplicated issue, without the display cap.
func (s *Server) handleIssuesCSV(w http.ResponseWriter, r *http.Request) {
	issues := s.service.Issues()
	rows := make([]issueCSVRow, len(issues))
	for i, is := range issues {
		rows[i] = issueCSVRow{
			Row:      is.Row,
			Reason:   string(is.Reason),
			Label:    is.Reason.Label(),
			Product:  is.Product,
			Quantity: is.Quantity,
			Date:     core.FormatDate(is.Date),
		}
	}
	writeCSV(w, r, s.exportName("issues"), rows)
}

// exportName builds a download file name from the loaded file.
func (s *Server) exportName(kind string) string {
	base := "sales"
	if ds := s.service.Snapshot(); ds != nil {
		base = strings.TrimSuffix(ds.FileName, fileExt(ds.FileName))
	}
	return fmt.Sprintf("%s-%s.csv", sanitizeFileName(base), kind)
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}

// sanitizeFileName keeps a name safe for a Content-Disposition header.
func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20:
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" {
		return "sales"
	}
	return name
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// writeCSV streams rows as a CSV download. A UTF-8 byte order mark is
// written first so spreadsheet tools detect the encoding.
func writeCSV(w http.ResponseWriter, r *http.Request, fileName string, rows any) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := w.Write(utf8BOM); err != nil {
		return
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "file", fileName, "error", err)
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string              `json:"status"`
	Uptime  string              `json:"uptime"`
	Loading core.LoadGateStatus `json:"loading"`
	Rows    int                 `json:"rows"`
}

// handleHealth reports liveness and the load gate state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(startedAt).Round(time.Second).String(),
		Loading: s.service.GateStatus(),
		Rows:    s.service.Snapshot().Len(),
	})
}
