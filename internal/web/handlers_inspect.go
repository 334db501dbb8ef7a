package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/JonMunkholm/sheetinspect/internal/logging"
)

// handlePreview accepts a multipart workbook upload and returns a preview
// of every sheet plus the token for follow-up requests.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	sampleRows, err := intParam(r, "sample_rows", s.cfg.Inspect.SampleRowsDefault, 1, s.cfg.Inspect.SampleRowsMax)
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			fail(w, r, err)
			return
		}
		fail(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		fail(w, r, errNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		fail(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Preview(ctx, header.Filename, data, sampleRows)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// handleSheet returns one page of a cached sheet.
func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	token, sheet, err := tokenAndSheet(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	offset, err := intParam(r, "offset", 0, 0, -1)
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := intParam(r, "limit", s.cfg.Inspect.PageLimitDefault, 1, s.cfg.Inspect.PageLimitMax)
	if err != nil {
		fail(w, r, err)
		return
	}

	page, err := s.service.Page(r.Context(), token, sheet, offset, limit)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, page)
}

// handleExportCSV streams a sheet as CSV, flushing after each row.
// Once the first byte is out an error can only be logged; the client sees a
// truncated body.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	token, sheet, err := tokenAndSheet(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	export, err := s.service.OpenExport(r.Context(), token, sheet)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer export.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(sheet+".csv"))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	rows, err := export.WriteCSV(r.Context(), &flushWriter{w: w, rc: http.NewResponseController(w)})
	if err != nil {
		logging.FromContext(r.Context()).Error("csv export aborted",
			"token", logging.Redact(token),
			"sheet", sheet,
			"rows_written", rows,
			"error", err,
		)
		return
	}

	logging.FromContext(r.Context()).Debug("csv export complete",
		"token", logging.Redact(token),
		"sheet", sheet,
		"rows", rows,
	)
}

// handleExportJSON returns the whole sheet, header included, as a JSON
// array of arrays.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	token, sheet, err := tokenAndSheet(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	export, err := s.service.OpenExport(r.Context(), token, sheet)
	if err != nil {
		fail(w, r, err)
		return
	}
	defer export.Close()

	rows, err := export.Rows(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rows)
}

// flushWriter pushes every CSV row to the client as it is written.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (f *flushWriter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f *flushWriter) Flush() error {
	return f.rc.Flush()
}

func tokenAndSheet(r *http.Request) (string, string, error) {
	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		return "", "", &paramError{name: "token"}
	}
	sheet := q.Get("sheet")
	if sheet == "" {
		return "", "", &paramError{name: "sheet"}
	}
	return token, sheet, nil
}

// intParam parses an integer query parameter. An absent value yields def.
// max < 0 means no upper bound.
func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, problem: "not an integer"}
	}
	if v < min {
		return 0, &paramError{name: name, problem: fmt.Sprintf("must be >= %d", min)}
	}
	if max >= 0 && v > max {
		return 0, &paramError{name: name, problem: fmt.Sprintf("must be <= %d", max)}
	}
	return v, nil
}

// attachment builds a Content-Disposition header for filename. Path
// separators, quotes and control characters are replaced. Non-ASCII names
// get an ASCII fallback plus the RFC 2231 filename* form.
func attachment(filename string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == '"', unicode.IsControl(r):
			return '_'
		}
		return r
	}, filename)

	ascii := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '_'
		}
		return r
	}, clean)

	header := fmt.Sprintf(`attachment; filename="%s"`, ascii)
	if ascii == clean {
		return header
	}
	if ext := mime.FormatMediaType("attachment", map[string]string{"filename": clean}); ext != "" {
		header += "; " + strings.TrimPrefix(ext, "attachment; ")
	}
	return header
}
