package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/csvclean/internal/batch"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/history"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	// multipartMemory is how much of a multipart upload is held in memory
	// before spilling to disk.
	multipartMemory = 32 << 20
)

// DatasetInfo describes one configured dataset.
type DatasetInfo struct {
	Name            string              `json:"name"`
	Source          string              `json:"source"`
	Header          string              `json:"header"`
	SkipRows        []int               `json:"skip_rows,omitempty"`
	Rename          map[string]string   `json:"rename,omitempty"`
	Validation      map[string][]string `json:"validation_rules"`
	Standardisation map[string][]string `json:"standardisation_rules"`
	UnknownRules    []string            `json:"unknown_rules,omitempty"`
}

// DefaultColumn keys the default chain in DatasetInfo rule maps.
const DefaultColumn = "*"

func datasetInfo(s *schema.Schema) DatasetInfo {
	info := DatasetInfo{
		Name:            s.Name,
		Source:          s.Source,
		Header:          s.Header.String(),
		SkipRows:        s.SkipRows,
		Rename:          s.Rename,
		Validation:      chainNames(s.Validation),
		Standardisation: chainNames(s.Standardisation),
	}
	for _, u := range s.Unknown {
		info.UnknownRules = append(info.UnknownRules, u.String())
	}
	return info
}

func chainNames[R fmt.Stringer](c schema.Chains[R]) map[string][]string {
	out := make(map[string][]string, len(c.Columns)+1)
	for _, cc := range c.Columns {
		out[cc.Column] = ruleNames(cc.Rules)
	}
	if c.Default != nil {
		out[DefaultColumn] = ruleNames(c.Default)
	}
	return out
}

func ruleNames[R fmt.Stringer](chain []R) []string {
	names := make([]string, len(chain))
	for i, r := range chain {
		names[i] = r.String()
	}
	return names
}

// handleListDatasets returns every configured dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	all := s.catalog.All()
	out := make([]DatasetInfo, len(all))
	for i, sc := range all {
		out[i] = datasetInfo(sc)
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleListRules returns both rule vocabularies.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string][]string{
		"validation":      rules.ValidationNames(),
		"standardisation": rules.StandardisationNames(),
	})
}

// handleStatus reports clean slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"cleans":   s.limiter.Status(),
		"datasets": len(s.catalog.All()),
	})
}

// handleClean cleans an uploaded CSV with the named dataset's schema and
// returns the report. The upload is either the raw request body or the
// "file" field of a multipart form.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	sc, err := s.catalog.Lookup(dataset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	limit, err := s.limitParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := logging.WithDataset(r.Context(), sc.Name)
	r = r.WithContext(ctx)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)
	input, cleanup, err := spoolUpload(r, sc.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	unlock, err := batch.SharedLock(s.cfg.Paths.OutputDir)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer unlock()

	started := s.now()
	report, err := core.Clean(ctx, input, sc, core.Options{
		OutputDir:    s.cfg.Paths.OutputDir,
		Limit:        limit,
		Quantitative: s.quantitative,
		Now:          s.now,
		Logger:       logging.FromContext(ctx),
	})
	run := history.NewRun(sc.Name, report, err, started, s.now())
	if recErr := s.history.Record(ctx, run); recErr != nil {
		logging.FromContext(ctx).Warn("failed to record run", "run_id", run.ID, "error", recErr)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("X-Run-ID", run.ID.String())
	writeJSON(w, r, http.StatusOK, report)
}

// limitParam reads ?limit=N, falling back to the configured limit.
func (s *Server) limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.cfg.Engine.Limit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit %q is not an integer", errBadRequest, raw)
	}
	return n, nil
}

// spoolUpload copies the upload to a temporary file named after the
// dataset. The returned cleanup removes it.
func spoolUpload(r *http.Request, name string) (string, func(), error) {
	src := io.Reader(r.Body)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return "", nil, fmt.Errorf("read form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("%w: no file provided", errBadRequest)
		}
		defer file.Close()
		src = file
	}

	dir, err := os.MkdirTemp("", "csvclean-upload-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	_, err = io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return path, cleanup, nil
}

// handleHistory lists recent runs, optionally for one dataset.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, r, fmt.Errorf("%w: limit %q must be a positive integer", errBadRequest, raw))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	runs, err := s.history.Recent(r.Context(), chi.URLParam(r, "dataset"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

// handleGetRun returns one recorded run as JSON.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// handleRunPage renders one recorded run as HTML.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.lookupRun(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, runPage(run))
}

// handleDashboard renders the datasets and the newest runs.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	runs, err := s.history.Recent(r.Context(), "", defaultHistoryLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.render(w, r, dashboardPage(s.catalog.All(), runs))
}

func (s *Server) lookupRun(r *http.Request) (history.Run, error) {
	raw := chi.URLParam(r, "runID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return history.Run{}, fmt.Errorf("%w: run id %q", errBadRequest, raw)
	}
	return s.history.Get(r.Context(), id)
}
