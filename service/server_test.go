package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/docgraph/ai/mock"
	"github.com/poiesic/docgraph/core"
	"github.com/poiesic/docgraph/iirds"
	"github.com/poiesic/docgraph/retrieval"
	"github.com/poiesic/docgraph/router"
	"github.com/poiesic/docgraph/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetadata = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:iirds="http://iirds.tekom.de/iirds#"
         xmlns:dcterms="http://purl.org/dc/terms/">
  <iirds:Package rdf:about="urn:pkg:pump-manual">
    <dcterms:title>Pump Manual</dcterms:title>
  </iirds:Package>
  <iirds:Topic rdf:about="urn:topic:install">
    <rdfs:label>Installation</rdfs:label>
    <iirds:language>en</iirds:language>
    <iirds:has-rendition>
      <iirds:Rendition>
        <iirds:source>CONTENT/install.xhtml</iirds:source>
        <iirds:format>application/xhtml+xml</iirds:format>
      </iirds:Rendition>
    </iirds:has-rendition>
  </iirds:Topic>
</rdf:RDF>`

const installXHTML = `<html><body><h1>Installation</h1><p>Mount the pump on a level surface.</p></body></html>`

type testServer struct {
	server   *Server
	pipeline *retrieval.Pipeline
	local    *mock.MockGenerator
}

func setupServer(t *testing.T) *testServer {
	vs, gs, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pipeline, err := retrieval.NewPipeline(vs, gs, mock.NewMockEmbedder(), retrieval.Config{}, retrieval.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	local := mock.NewMockGenerator("grounded answer")
	rt := router.NewRouter(local, nil, router.WithLogger(logger))

	srv := NewServer(iirds.NewExtractor(), pipeline, rt, WithLogger(logger))

	return &testServer{server: srv, pipeline: pipeline, local: local}
}

func (ts *testServer) ingestDocument(t *testing.T) {
	t.Helper()
	doc := &core.Document{
		ID:    "urn:doc:manual",
		Title: "Manual",
		Units: []core.ContentUnit{
			{
				ID:         "urn:unit:install",
				DocumentID: "urn:doc:manual",
				Text:       "Mount the pump on a level surface.",
				Language:   "en",
			},
		},
	}
	_, err := ts.pipeline.Ingest(context.Background(), doc, true)
	require.NoError(t, err)
}

func (ts *testServer) postJSON(t *testing.T, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func buildPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func multipartPackage(t *testing.T, blob []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("package", "manual.iirds")
	require.NoError(t, err)
	_, err = part.Write(blob)
	require.NoError(t, err)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestQueryReturnsAnswer(t *testing.T) {
	ts := setupServer(t)
	ts.ingestDocument(t)

	rec := ts.postJSON(t, "/query", `{"question": "How do I install the pump?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "grounded answer", resp.Answer)
	assert.Nil(t, resp.Debug)
	assert.Equal(t, 1, ts.local.CallCount())
}

func TestQueryDebugPayload(t *testing.T) {
	ts := setupServer(t)
	ts.ingestDocument(t)

	rec := ts.postJSON(t, "/query", `{"question": "How do I install the pump?", "debug": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Debug)
	require.NotEmpty(t, resp.Debug.RetrievedChunks)

	ch := resp.Debug.RetrievedChunks[0]
	assert.Equal(t, "urn:doc:manual", ch.DocumentID)
	assert.Equal(t, "vector", ch.Provenance)
	assert.Equal(t, 0, ch.Hops)
	assert.NotEmpty(t, ch.ChunkID)

	assert.Contains(t, resp.Debug.PromptUsed, "How do I install the pump?")
	assert.Contains(t, resp.Debug.PromptUsed, "[urn:doc:manual | urn:unit:install]")
}

func TestQueryValidation(t *testing.T) {
	ts := setupServer(t)

	for name, body := range map[string]string{
		"empty question":     `{"question": "  "}`,
		"unknown filter key": `{"question": "q", "filters": {"color": "red"}}`,
		"bad mode":           `{"question": "q", "mode": "cloud"}`,
		"malformed body":     `{"question": `,
	} {
		rec := ts.postJSON(t, "/query", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Equal(t, KindQueryValidation, decodeError(t, rec).ErrorKind, name)
	}
}

func TestQueryUnconfiguredRemoteBackend(t *testing.T) {
	ts := setupServer(t)
	ts.ingestDocument(t)

	rec := ts.postJSON(t, "/query", `{"question": "q", "mode": "remote"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, KindModelBackend, decodeError(t, rec).ErrorKind)
}

func TestQueryGenerationFailure(t *testing.T) {
	ts := setupServer(t)
	ts.ingestDocument(t)
	ts.local.GenerateFunc = func(context.Context, string, string) (string, error) {
		return "", errors.New("backend exploded")
	}

	rec := ts.postJSON(t, "/query", `{"question": "q"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, KindModelBackend, decodeError(t, rec).ErrorKind)
}

func TestIngestPackage(t *testing.T) {
	ts := setupServer(t)

	blob := buildPackage(t, map[string]string{
		"mimetype":              "application/iirds+zip",
		"META-INF/metadata.rdf": testMetadata,
		"CONTENT/install.xhtml": installXHTML,
	})
	body, contentType := multipartPackage(t, blob, nil)

	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "urn:pkg:pump-manual", resp.DocumentID)
	assert.Equal(t, 1, resp.Units)
	assert.Equal(t, 1, resp.Chunks)
	assert.Equal(t, 0, resp.Relations)
}

func TestIngestBadPackage(t *testing.T) {
	ts := setupServer(t)

	body, contentType := multipartPackage(t, []byte("not a zip"), nil)

	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindIngestionFormat, decodeError(t, rec).ErrorKind)
}

func TestIngestMissingFile(t *testing.T) {
	ts := setupServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("replace", "true"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/ingest", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindQueryValidation, decodeError(t, rec).ErrorKind)
}

func TestIngestBadReplaceFlag(t *testing.T) {
	ts := setupServer(t)

	blob := buildPackage(t, map[string]string{"mimetype": "application/iirds+zip"})
	body, contentType := multipartPackage(t, blob, map[string]string{"replace": "maybe"})

	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindQueryValidation, decodeError(t, rec).ErrorKind)
}

func TestRequestIDHeader(t *testing.T) {
	ts := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}
