package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/coolbeans/exhibit/pkg/cms"
	"github.com/coolbeans/exhibit/pkg/extract"
	"github.com/coolbeans/exhibit/pkg/intake"
	"github.com/coolbeans/exhibit/pkg/ruleset"
)

// RulesetHeader names the ruleset a parse response was produced with.
const RulesetHeader = "X-Ruleset-ID"

// RulesetInfo describes a registered ruleset.
type RulesetInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	rec, rs, err := s.parseRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.Header().Set(RulesetHeader, rs.ID)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCMS(w http.ResponseWriter, r *http.Request) {
	gender, err := extract.ParseGender(r.URL.Query().Get("gender"))
	if err != nil {
		writeError(w, r, s.logger, newError(http.StatusBadRequest, "invalid gender: must be male or female", err))
		return
	}
	rec, rs, err := s.parseRequest(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.Header().Set(RulesetHeader, rs.ID)
	writeJSON(w, http.StatusOK, cms.NewBuilder(rs).Build(rec, gender))
}

func (s *Server) handleRulesets(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	out := make([]RulesetInfo, 0, len(list))
	for _, rs := range list {
		out = append(out, RulesetInfo{ID: rs.ID, Name: rs.Name, Version: rs.Version, Description: rs.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"rulesets": len(s.registry.List()),
	})
}

// parseRequest reads the form text from r, selects a ruleset and parses.
func (s *Server) parseRequest(r *http.Request) (*extract.ExhibitionRecord, *ruleset.Ruleset, error) {
	text, err := s.readText(r)
	if err != nil {
		return nil, nil, err
	}

	var rs *ruleset.Ruleset
	if id := r.URL.Query().Get("ruleset"); id != "" {
		found, ok := s.registry.Get(id)
		if !ok {
			return nil, nil, newError(http.StatusNotFound, "ruleset not found: "+id, nil)
		}
		rs = found
	} else {
		rs = s.detector.DetectBest(text)
	}

	p, err := s.parser(rs)
	if err != nil {
		return nil, nil, err
	}
	rec := p.Parse(text)

	s.metrics.recordsParsed.WithLabelValues(rs.ID).Inc()
	s.metrics.unmatchedLines.Observe(float64(len(rec.Unmatched)))
	s.logger.Debug("parsed form",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("ruleset", rs.ID),
		zap.Int("artists", len(rec.Artists)),
		zap.Int("images", len(rec.Images)),
		zap.Int("unmatched", len(rec.Unmatched)),
	)
	return rec, rs, nil
}

// readText returns the request's form text: a multipart "file" upload goes
// through the document reader, any other body is taken as UTF-8 text.
func (s *Server) readText(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxBody); err != nil {
			return "", bodyError(err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", newError(http.StatusBadRequest, `multipart field "file" is required`, err)
		}
		defer file.Close()

		doc, err := s.reader.Read(r.Context(), header.Filename, file)
		if err != nil {
			return "", bodyError(err)
		}
		return doc.Text, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", bodyError(err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", newError(http.StatusBadRequest, "request body is required", nil)
	}
	return text, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), errors.Is(err, intake.ErrTooLarge):
		return newError(http.StatusRequestEntityTooLarge, "request body too large", err)
	case errors.Is(err, intake.ErrUnsupportedFormat):
		return newError(http.StatusUnsupportedMediaType, "unsupported document format", err)
	case errors.Is(err, intake.ErrMissingPart):
		return newError(http.StatusUnprocessableEntity, "invalid document", err)
	default:
		return newError(http.StatusBadRequest, "invalid request body", err)
	}
}
