package roadnet

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// keyDef is a GraphML <key> declaration.
type keyDef struct {
	id       string
	domain   string // node, edge, graph or all
	name     string
	attrType string
	def      *string
}

func (k keyDef) appliesTo(domain string) bool {
	return k.domain == domain || k.domain == "all" || k.domain == ""
}

// LoadGraphML reads a GraphML file from disk.
func LoadGraphML(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open graph file: %w", err)
	}
	defer f.Close()

	g, err := ReadGraphML(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

// ReadGraphML decodes a GraphML document. Data values of keys declared as
// boolean, int, long, float or double are converted; all others stay strings.
// Key defaults apply to elements that omit the data value.
func ReadGraphML(r io.Reader) (*Graph, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGraph, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "graphml" {
		return nil, fmt.Errorf("%w: missing graphml root element", ErrMalformedGraph)
	}

	keys := make(map[string]keyDef)
	for _, el := range root.SelectElements("key") {
		k := keyDef{
			id:       el.SelectAttrValue("id", ""),
			domain:   el.SelectAttrValue("for", "all"),
			name:     el.SelectAttrValue("attr.name", ""),
			attrType: el.SelectAttrValue("attr.type", "string"),
		}
		if k.id == "" {
			return nil, fmt.Errorf("%w: key without id", ErrMalformedGraph)
		}
		if k.name == "" {
			k.name = k.id
		}
		if d := el.SelectElement("default"); d != nil {
			text := d.Text()
			k.def = &text
		}
		keys[k.id] = k
	}

	graphEl := root.SelectElement("graph")
	if graphEl == nil {
		return nil, fmt.Errorf("%w: missing graph element", ErrMalformedGraph)
	}

	g := New()
	g.Directed = graphEl.SelectAttrValue("edgedefault", "directed") != "undirected"

	for _, el := range graphEl.ChildElements() {
		switch el.Tag {
		case "node":
			id := el.SelectAttrValue("id", "")
			if id == "" {
				return nil, fmt.Errorf("%w: node without id", ErrMalformedGraph)
			}
			attrs, err := readData(el, keys, "node")
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", id, err)
			}
			g.AddNode(id, attrs)

		case "edge":
			source := el.SelectAttrValue("source", "")
			target := el.SelectAttrValue("target", "")
			if source == "" || target == "" {
				return nil, fmt.Errorf("%w: edge without source or target", ErrMalformedGraph)
			}
			attrs, err := readData(el, keys, "edge")
			if err != nil {
				return nil, fmt.Errorf("edge %s->%s: %w", source, target, err)
			}
			e := g.AddEdge(source, target, attrs)
			e.Key = el.SelectAttrValue("id", "")
		}
	}

	return g, nil
}

func readData(el *etree.Element, keys map[string]keyDef, domain string) (Attributes, error) {
	attrs := Attributes{}
	for _, d := range el.SelectElements("data") {
		keyID := d.SelectAttrValue("key", "")
		k, ok := keys[keyID]
		if !ok {
			return nil, fmt.Errorf("%w: undeclared key %q", ErrMalformedGraph, keyID)
		}
		v, err := convertValue(d.Text(), k.attrType)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformedGraph, k.name, err)
		}
		attrs[k.name] = v
	}

	for _, k := range keys {
		if k.def == nil || !k.appliesTo(domain) {
			continue
		}
		if _, set := attrs[k.name]; set {
			continue
		}
		v, err := convertValue(*k.def, k.attrType)
		if err != nil {
			return nil, fmt.Errorf("%w: default of key %q: %v", ErrMalformedGraph, k.name, err)
		}
		attrs[k.name] = v
	}
	return attrs, nil
}

func convertValue(text, attrType string) (any, error) {
	switch attrType {
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", text)
	case "int", "long":
		return strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	case "float", "double":
		return strconv.ParseFloat(strings.TrimSpace(text), 64)
	default:
		return text, nil
	}
}
