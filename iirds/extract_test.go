package iirds

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"
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
    <iirds:has-topic-type rdf:resource="http://iirds.tekom.de/iirds#task"/>
    <iirds:has-rendition>
      <iirds:Rendition>
        <iirds:source>CONTENT/install.xhtml</iirds:source>
        <iirds:format>application/xhtml+xml</iirds:format>
      </iirds:Rendition>
    </iirds:has-rendition>
    <iirds:references rdf:resource="urn:topic:safety"/>
  </iirds:Topic>
  <iirds:Topic rdf:about="urn:topic:safety">
    <rdfs:label>Safety</rdfs:label>
    <iirds:has-rendition rdf:resource="CONTENT/safety.xhtml"/>
    <iirds:is-part-of-information-unit rdf:resource="urn:topic:install"/>
  </iirds:Topic>
</rdf:RDF>`

const installXHTML = `<html><head><title>ignored</title><script>ignored()</script></head>
<body><h1>Installation</h1><p>Mount the  pump on a
level surface.</p></body></html>`

const safetyXHTML = `<html><body><p>Disconnect power before servicing.</p></body></html>`

// buildPackage assembles an in-memory zip in iiRDS layout.
func buildPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func validPackage(t *testing.T) []byte {
	return buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": testMetadata,
		"CONTENT/install.xhtml": installXHTML,
		"CONTENT/safety.xhtml":  safetyXHTML,
	})
}

func TestExtractValidPackage(t *testing.T) {
	doc, err := NewExtractor().Extract(validPackage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if doc.ID != "urn:pkg:pump-manual" {
		t.Fatalf("Expected package IRI as document ID, got %q", doc.ID)
	}
	if doc.Title != "Pump Manual" {
		t.Fatalf("Expected title 'Pump Manual', got %q", doc.Title)
	}
	if len(doc.Units) != 2 {
		t.Fatalf("Expected 2 units, got %d", len(doc.Units))
	}

	install := doc.Unit("urn:topic:install")
	if install == nil {
		t.Fatal("Missing install unit")
	}
	if install.Title != "Installation" || install.Language != "en" {
		t.Fatalf("Wrong unit metadata: %+v", install)
	}
	if install.Topic != "task" {
		t.Fatalf("Expected topic type 'task', got %q", install.Topic)
	}
	if install.Type != "topic" {
		t.Fatalf("Expected unit type 'topic', got %q", install.Type)
	}
	want := "Installation Mount the pump on a level surface."
	if install.Text != want {
		t.Fatalf("Extracted text mismatch:\n got %q\nwant %q", install.Text, want)
	}

	if len(doc.Relations) != 2 {
		t.Fatalf("Expected 2 relations, got %d", len(doc.Relations))
	}
	var sawReferences, sawPartOf bool
	for _, rel := range doc.Relations {
		switch rel.Type {
		case "references":
			sawReferences = true
			if !rel.Directed {
				t.Fatal("references relation must be directed")
			}
			if rel.SourceID != "urn:topic:install" || rel.TargetID != "urn:topic:safety" {
				t.Fatalf("Wrong references endpoints: %+v", rel)
			}
		case "part-of":
			sawPartOf = true
			if rel.Directed {
				t.Fatal("part-of relation must be undirected")
			}
		}
	}
	if !sawReferences || !sawPartOf {
		t.Fatalf("Missing relations: %+v", doc.Relations)
	}
}

func TestExtractMissingMimetype(t *testing.T) {
	blob := buildPackage(t, map[string]string{
		"META-INF/metadata.rdf": testMetadata,
	})
	_, err := NewExtractor().Extract(blob)
	assertFormatError(t, err, "mimetype")
}

func TestExtractWrongMimetype(t *testing.T) {
	blob := buildPackage(t, map[string]string{
		"mimetype":              "application/zip",
		"META-INF/metadata.rdf": testMetadata,
	})
	_, err := NewExtractor().Extract(blob)
	assertFormatError(t, err, "mimetype")
}

func TestExtractNotAZip(t *testing.T) {
	_, err := NewExtractor().Extract([]byte("definitely not a zip"))
	assertFormatError(t, err, "package")
}

func TestExtractUnparsableMetadata(t *testing.T) {
	blob := buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": "<rdf:RDF><unclosed",
	})
	_, err := NewExtractor().Extract(blob)
	assertFormatError(t, err, "META-INF/metadata.rdf")
}

func TestExtractDanglingRelation(t *testing.T) {
	metadata := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:iirds="http://iirds.tekom.de/iirds#">
  <iirds:Package rdf:about="urn:pkg:p"/>
  <iirds:Topic rdf:about="urn:topic:a">
    <iirds:references rdf:resource="urn:topic:ghost"/>
  </iirds:Topic>
</rdf:RDF>`
	blob := buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": metadata,
	})
	_, err := NewExtractor().Extract(blob)
	assertFormatError(t, err, "META-INF/metadata.rdf")
	if !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("Error does not name the dangling target: %v", err)
	}
}

func TestExtractMissingRendition(t *testing.T) {
	blob := buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": testMetadata,
		"CONTENT/safety.xhtml":  safetyXHTML,
		// install.xhtml declared but absent
	})
	_, err := NewExtractor().Extract(blob)
	assertFormatError(t, err, "CONTENT/install.xhtml")
}

func TestExtractCaseInsensitiveRendition(t *testing.T) {
	blob := buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": testMetadata,
		"Content/Install.XHTML": installXHTML,
		"CONTENT/safety.xhtml":  safetyXHTML,
	})
	doc, err := NewExtractor().Extract(blob)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Unit("urn:topic:install").Text == "" {
		t.Fatal("Case-insensitive rendition lookup failed")
	}
}

func TestExtractTextRendition(t *testing.T) {
	metadata := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:iirds="http://iirds.tekom.de/iirds#">
  <iirds:Package rdf:about="urn:pkg:p"/>
  <iirds:Document rdf:about="urn:doc:readme">
    <iirds:has-rendition rdf:resource="CONTENT/readme.txt"/>
  </iirds:Document>
</rdf:RDF>`
	blob := buildPackage(t, map[string]string{
		"mimetype":              Mimetype,
		"META-INF/metadata.rdf": metadata,
		"CONTENT/readme.txt":    "  plain text content\n",
	})
	doc, err := NewExtractor().Extract(blob)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	unit := doc.Unit("urn:doc:readme")
	if unit.Text != "plain text content" {
		t.Fatalf("Expected trimmed text content, got %q", unit.Text)
	}
	if unit.Type != "document" {
		t.Fatalf("Expected unit type 'document', got %q", unit.Type)
	}
}

func assertFormatError(t *testing.T, err error, artifact string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected a format error, got nil")
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FormatError, got %T: %v", err, err)
	}
	if fe.Artifact != artifact {
		t.Fatalf("Expected artifact %q, got %q (%v)", artifact, fe.Artifact, err)
	}
}
