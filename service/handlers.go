package service

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/retrieval"
)

// knownFilterKeys are the metadata keys the query contract accepts. The
// text_len key additionally supports >= and <= range prefixes.
var knownFilterKeys = map[string]bool{
	"document_id": true,
	"unit_id":     true,
	"type":        true,
	"topic":       true,
	"title":       true,
	"language":    true,
	"text_len":    true,
}

type queryRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters"`
	Mode     string            `json:"mode"`
	Debug    bool              `json:"debug"`
}

type queryResponse struct {
	Answer string        `json:"answer"`
	Debug  *debugPayload `json:"debug,omitempty"`
}

type debugPayload struct {
	RetrievedChunks []debugChunk `json:"retrieved_chunks"`
	PromptUsed      string       `json:"prompt_used"`
}

type debugChunk struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float32 `json:"score"`
	Hops       int     `json:"hops"`
	Provenance string  `json:"provenance"`
}

type ingestResponse struct {
	DocumentID string `json:"document_id"`
	Units      int    `json:"units"`
	Chunks     int    `json:"chunks"`
	Relations  int    `json:"relations"`
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, &ValidationError{Field: "body", Reason: "malformed request body"})
	}

	query, err := parseQuery(&req)
	if err != nil {
		return s.fail(c, err)
	}

	ctx := c.Request().Context()

	var monitor retrieval.Monitor
	var recording *retrieval.RecordingMonitor
	if query.Debug {
		recording = &retrieval.RecordingMonitor{}
		monitor = recording
	}

	results, err := s.pipeline.Retrieve(ctx, query, monitor)
	if err != nil {
		return s.fail(c, err)
	}
	if recording != nil {
		s.logger.Debug("retrieval trace",
			"seeds", len(recording.Seeds),
			"expanded", len(recording.Expanded),
			"results", len(recording.Results))
	}

	answer, err := s.router.Answer(ctx, query, results)
	if err != nil {
		return s.fail(c, err)
	}

	resp := queryResponse{Answer: answer.Text}
	if query.Debug {
		resp.Debug = buildDebugPayload(answer.Prompt, results)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleIngest(c echo.Context) error {
	replace := true
	if v := c.FormValue("replace"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return s.fail(c, &ValidationError{Field: "replace", Reason: "must be a boolean"})
		}
		replace = parsed
	}

	fh, err := c.FormFile("package")
	if err != nil {
		return s.fail(c, &ValidationError{Field: "package", Reason: "multipart file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return s.fail(c, &ValidationError{Field: "package", Reason: "unreadable upload"})
	}
	defer f.Close()

	blob, err := io.ReadAll(f)
	if err != nil {
		return s.fail(c, &ValidationError{Field: "package", Reason: "unreadable upload"})
	}

	doc, err := s.extractor.Extract(blob)
	if err != nil {
		return s.fail(c, err)
	}

	result, err := s.pipeline.Ingest(c.Request().Context(), doc, replace)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, ingestResponse{
		DocumentID: result.DocumentID,
		Units:      result.Units,
		Chunks:     result.Chunks,
		Relations:  result.Relations,
	})
}

// fail renders the structured error body for a classified failure.
func (s *Server) fail(c echo.Context, err error) error {
	kind, status := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request error", "kind", kind, "err", err)
	}
	return c.JSON(status, errorResponse{ErrorKind: kind, Message: err.Error()})
}

func parseQuery(req *queryRequest) (*core.Query, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, &ValidationError{Field: "question", Reason: "must not be empty"}
	}

	for key := range req.Filters {
		if !knownFilterKeys[key] {
			return nil, &ValidationError{Field: "filters", Reason: "unknown filter key " + strconv.Quote(key)}
		}
	}

	mode := core.ModeLocal
	if req.Mode != "" {
		parsed, err := core.ParseMode(req.Mode)
		if err != nil {
			return nil, &ValidationError{Field: "mode", Reason: "must be local or remote"}
		}
		mode = parsed
	}

	return &core.Query{
		Question: req.Question,
		Filters:  req.Filters,
		Mode:     mode,
		Debug:    req.Debug,
	}, nil
}

func buildDebugPayload(prompt string, results []*core.RetrievalResult) *debugPayload {
	chunks := make([]debugChunk, len(results))
	for i, r := range results {
		chunks[i] = debugChunk{
			ChunkID:    strconv.FormatUint(uint64(r.Chunk.Id), 10),
			DocumentID: r.Chunk.DocumentID,
			Score:      r.Score,
			Hops:       r.Hops,
			Provenance: r.Provenance.String(),
		}
	}
	return &debugPayload{RetrievedChunks: chunks, PromptUsed: prompt}
}
