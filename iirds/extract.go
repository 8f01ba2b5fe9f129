// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package iirds

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/docgraph/core"
)

// Package layout markers required by the iiRDS container format.
const (
	Mimetype     = "application/iirds+zip"
	mimetypePath = "mimetype"
	metadataPath = "META-INF/metadata.rdf"
)

// Extractor parses iiRDS packages into in-memory document graphs.
// It is a pure transform: persistence happens downstream.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{logger: slog.Default().With("component", "iirds-extractor")}
}

// Extract parses a zip package into a Document with content units and
// relations. It fails with a *FormatError naming the offending artifact on a
// missing mimetype marker, unparsable metadata, duplicate unit identifiers,
// or a relation referencing an unknown content unit.
func (e *Extractor) Extract(blob []byte) (*core.Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, formatErrWrap("package", "not a zip archive", err)
	}

	if err := checkMimetype(zr); err != nil {
		return nil, err
	}

	rdfBytes, err := readZipFile(zr, metadataPath)
	if err != nil {
		return nil, formatErr(metadataPath, "metadata descriptor not found in package")
	}
	meta, err := parseMetadata(rdfBytes)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		ID:         meta.IRI,
		Title:      meta.Title,
		IngestedAt: time.Now().UTC(),
	}

	for _, um := range meta.Units {
		text, err := e.renditionText(zr, &um)
		if err != nil {
			return nil, err
		}
		if text == "" {
			e.logger.Debug("content unit has no extractable text", "unit", um.IRI)
		}
		doc.Units = append(doc.Units, core.ContentUnit{
			ID:         um.IRI,
			DocumentID: doc.ID,
			Title:      um.Label,
			Text:       text,
			Type:       um.Kind,
			Topic:      um.TopicType,
			Language:   um.Language,
		})
	}

	for _, rm := range meta.Relations {
		doc.Relations = append(doc.Relations, core.Relation{
			SourceID: rm.SourceIRI,
			TargetID: rm.TargetIRI,
			Type:     rm.Type,
			Directed: directedRelationTypes[rm.Type],
		})
	}

	if err := doc.Validate(); err != nil {
		return nil, formatErrWrap(metadataPath, "inconsistent metadata", err)
	}

	e.logger.Info("extracted package",
		"document", doc.ID, "units", len(doc.Units), "relations", len(doc.Relations))
	return doc, nil
}

// renditionText reads the first usable rendition of a unit and extracts its
// visible text. Units without a usable rendition yield empty text; a
// rendition that is declared but unreadable is a format error.
func (e *Extractor) renditionText(zr *zip.Reader, um *unitMeta) (string, error) {
	for _, r := range um.Renditions {
		if !hasTextExtension(r.Source) {
			e.logger.Debug("skipping unsupported rendition", "unit", um.IRI, "source", r.Source)
			continue
		}
		resolved := resolvePath(zr, r.Source)
		if resolved == "" {
			return "", formatErr(r.Source, "rendition file not found in package")
		}
		content, err := readZipFile(zr, resolved)
		if err != nil {
			return "", formatErrWrap(resolved, "unreadable rendition", err)
		}
		if strings.HasSuffix(strings.ToLower(resolved), ".txt") {
			return strings.TrimSpace(string(content)), nil
		}
		text, err := extractText(content)
		if err != nil {
			return "", formatErrWrap(resolved, "unparsable XHTML", err)
		}
		return text, nil
	}
	return "", nil
}

// resolvePath finds the zip entry for a declared source path: exact match
// first, then case-insensitive, then basename match preferring CONTENT/
// entries. Authoring tools are sloppy about path casing.
func resolvePath(zr *zip.Reader, src string) string {
	src = strings.TrimPrefix(src, "/")
	lowered := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.Name == src {
			return f.Name
		}
		lowered[strings.ToLower(f.Name)] = f.Name
	}
	if name, ok := lowered[strings.ToLower(src)]; ok {
		return name
	}

	tail := strings.ToLower(path.Base(src))
	var candidates []string
	for low, name := range lowered {
		if strings.HasSuffix(low, "/"+tail) || low == tail {
			candidates = append(candidates, name)
		}
	}
	slices.Sort(candidates)
	for _, name := range candidates {
		if strings.HasPrefix(strings.ToLower(name), "content/") {
			return name
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

func checkMimetype(zr *zip.Reader) error {
	content, err := readZipFile(zr, mimetypePath)
	if err != nil {
		return formatErr(mimetypePath, "mimetype marker not found in package")
	}
	if got := strings.TrimSpace(string(content)); got != Mimetype {
		return formatErr(mimetypePath,
			fmt.Sprintf("mimetype is %q, want %q", got, Mimetype))
	}
	return nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
