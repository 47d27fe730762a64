// Package export accumulates RDF statements in an in-memory store and
// serializes the whole store to Turtle or N-Triples.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/knakk/rdf"
)

// Serializer writes a statement store in one format with a fixed prefix table.
type Serializer struct {
	format   Format
	prefixes map[string]string // prefix -> namespace IRI
}

// NewSerializer creates a serializer. prefixes maps prefix to namespace IRI
// and is only used by Turtle.
func NewSerializer(format Format, prefixes map[string]string) (*Serializer, error) {
	if _, ok := GetFormatInfo(format); !ok {
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	p := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		p[k] = v
	}
	return &Serializer{format: format, prefixes: p}, nil
}

// Format returns the serializer's output format.
func (s *Serializer) Format() Format {
	return s.format
}

// Serialize writes every statement of store to w. Turtle output groups
// statements by subject.
func (s *Serializer) Serialize(w io.Writer, store *Store) error {
	info, _ := GetFormatInfo(s.format)
	enc := rdf.NewTripleEncoder(w, info.encoding)

	if s.format == FormatTurtle {
		namespaces := make(map[string]string, len(s.prefixes))
		for prefix, iri := range s.prefixes {
			namespaces[iri] = prefix
		}
		enc.Namespaces = namespaces
		// Only bound namespaces are abbreviated; instance IRIs stay in <...> form
		// since ids are not always valid Turtle local names.
		enc.GenerateNamespaces = false

		for _, group := range store.BySubject() {
			if err := enc.EncodeAll(group.Triples); err != nil {
				return fmt.Errorf("encode %s: %w", group.Subject, err)
			}
		}
	} else {
		if err := enc.EncodeAll(store.Triples()); err != nil {
			return fmt.Errorf("encode statements: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush %s output: %w", s.format, err)
	}
	return nil
}

// WriteFile serializes store to path. The output is written to a temporary
// file in the same directory and renamed into place, so a failed run never
// leaves a partial file behind.
func (s *Serializer) WriteFile(path string, store *Store) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = s.Serialize(tmp, store); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod output file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}
