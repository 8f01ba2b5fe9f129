package iirds

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// RDF/XML namespaces used by iiRDS metadata.
const (
	rdfNS     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfsNS    = "http://www.w3.org/2000/01/rdf-schema#"
	iirdsNS   = "http://iirds.tekom.de/iirds#"
	dctermsNS = "http://purl.org/dc/terms/"
)

// relationTypes maps iiRDS predicates that link two information units to the
// relation type they are stored under. Predicates pointing at non-unit
// resources (components, subjects, ...) are unit metadata, not relations.
var relationTypes = map[string]string{
	"part-of":                        "part-of",
	"references":                     "references",
	"variant-of":                     "variant-of",
	"relates-to-information-unit":    "relates-to",
	"is-part-of-information-unit":    "part-of",
	"references-information-unit":    "references",
	"is-variant-of-information-unit": "variant-of",
}

// directedRelationTypes lists relation types traversed source→target only
// during graph expansion. Everything else is traversed undirected.
var directedRelationTypes = map[string]bool{
	"references": true,
}

// rendition is one content-file reference declared for an information unit.
type rendition struct {
	Source string
	Format string
}

// unitMeta is the metadata extracted for one information unit.
type unitMeta struct {
	IRI        string
	Kind       string // "document" or "topic"
	Label      string
	Language   string
	TopicType  string
	Renditions []rendition
}

// relationMeta is one declared unit-to-unit relation.
type relationMeta struct {
	SourceIRI string
	TargetIRI string
	Type      string
}

// packageMeta is everything parseMetadata pulls out of metadata.rdf.
type packageMeta struct {
	IRI       string
	Title     string
	Units     []unitMeta
	Relations []relationMeta
}

// rdfNode is a generic RDF/XML element. iiRDS metadata is shallow enough
// that walking the raw element tree beats committing to a fixed schema.
type rdfNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []rdfNode  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (n *rdfNode) attr(space, local string) string {
	for _, a := range n.Attrs {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func (n *rdfNode) is(space, local string) bool {
	return n.XMLName.Space == space && n.XMLName.Local == local
}

// child returns the first child with the given name, or nil.
func (n *rdfNode) child(space, local string) *rdfNode {
	for i := range n.Children {
		if n.Children[i].is(space, local) {
			return &n.Children[i]
		}
	}
	return nil
}

// value resolves a property node to its object: an rdf:resource reference if
// present, otherwise the trimmed element text.
func (n *rdfNode) value() string {
	if res := n.attr(rdfNS, "resource"); res != "" {
		return res
	}
	return strings.TrimSpace(n.Text)
}

// firstValue returns the first non-empty object among the named properties.
func (n *rdfNode) firstValue(names ...xml.Name) string {
	for _, name := range names {
		if c := n.child(name.Space, name.Local); c != nil {
			if v := c.value(); v != "" {
				return v
			}
		}
	}
	return ""
}

// parseMetadata parses the META-INF/metadata.rdf descriptor of a package.
func parseMetadata(rdfBytes []byte) (*packageMeta, error) {
	var root rdfNode
	dec := xml.NewDecoder(bytes.NewReader(rdfBytes))
	if err := dec.Decode(&root); err != nil {
		return nil, formatErrWrap(metadataPath, "unparsable RDF/XML", err)
	}
	if !root.is(rdfNS, "RDF") {
		return nil, formatErr(metadataPath, "root element is not rdf:RDF")
	}

	meta := &packageMeta{}
	for i := range root.Children {
		node := &root.Children[i]
		if node.XMLName.Space != iirdsNS {
			continue
		}
		switch node.XMLName.Local {
		case "Package":
			meta.IRI = node.attr(rdfNS, "about")
			meta.Title = node.firstValue(
				xml.Name{Space: dctermsNS, Local: "title"},
				xml.Name{Space: rdfsNS, Local: "label"},
			)
		case "Document", "Topic":
			unit, rels, err := parseUnit(node)
			if err != nil {
				return nil, err
			}
			meta.Units = append(meta.Units, unit)
			meta.Relations = append(meta.Relations, rels...)
		}
	}

	if meta.IRI == "" {
		return nil, formatErr(metadataPath, "no iirds:Package declaration")
	}
	if len(meta.Units) == 0 {
		return nil, formatErr(metadataPath, "no information units declared")
	}
	return meta, nil
}

func parseUnit(node *rdfNode) (unitMeta, []relationMeta, error) {
	iri := node.attr(rdfNS, "about")
	if iri == "" {
		return unitMeta{}, nil, formatErr(metadataPath,
			"information unit without rdf:about identifier")
	}

	unit := unitMeta{
		IRI:  iri,
		Kind: strings.ToLower(node.XMLName.Local),
		Label: node.firstValue(
			xml.Name{Space: rdfsNS, Local: "label"},
			xml.Name{Space: dctermsNS, Local: "title"},
		),
		Language: node.firstValue(
			xml.Name{Space: iirdsNS, Local: "language"},
			xml.Name{Space: dctermsNS, Local: "language"},
		),
		TopicType: localFragment(node.firstValue(
			xml.Name{Space: iirdsNS, Local: "has-topic-type"},
		)),
	}

	var relations []relationMeta
	for i := range node.Children {
		prop := &node.Children[i]
		if prop.XMLName.Space != iirdsNS {
			continue
		}
		switch {
		case prop.XMLName.Local == "has-rendition":
			if r, ok := parseRendition(prop); ok {
				unit.Renditions = append(unit.Renditions, r)
			}
		default:
			if relType, ok := relationTypes[prop.XMLName.Local]; ok {
				target := prop.value()
				if target == "" {
					return unitMeta{}, nil, formatErr(metadataPath,
						"relation "+prop.XMLName.Local+" on "+iri+" has no target")
				}
				relations = append(relations, relationMeta{
					SourceIRI: iri,
					TargetIRI: target,
					Type:      relType,
				})
			}
		}
	}
	return unit, relations, nil
}

// parseRendition handles both the nested node form
// (<iirds:has-rendition><iirds:Rendition>...</iirds:Rendition></...>) and the
// direct resource form (<iirds:has-rendition rdf:resource="CONTENT/x.xhtml"/>).
func parseRendition(prop *rdfNode) (rendition, bool) {
	if node := prop.child(iirdsNS, "Rendition"); node != nil {
		src := node.firstValue(
			xml.Name{Space: iirdsNS, Local: "source"},
			xml.Name{Space: dctermsNS, Local: "source"},
		)
		if src == "" {
			return rendition{}, false
		}
		return rendition{
			Source: src,
			Format: node.firstValue(
				xml.Name{Space: iirdsNS, Local: "format"},
				xml.Name{Space: dctermsNS, Local: "format"},
			),
		}, true
	}
	if src := prop.value(); src != "" {
		return rendition{Source: src}, true
	}
	return rendition{}, false
}

// localFragment trims an IRI down to its fragment or last path segment, so
// topic types read as "task" rather than a full IRI.
func localFragment(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}
