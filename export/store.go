package export

import (
	"github.com/knakk/rdf"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Store is an append-only set of statements that remembers insertion order.
// Adding a statement that is already present is a no-op.
type Store struct {
	triples *orderedmap.OrderedMap[string, rdf.Triple]
}

// NewStore creates an empty statement store.
func NewStore() *Store {
	return &Store{triples: orderedmap.New[string, rdf.Triple]()}
}

// Add inserts t and reports whether it was new.
func (s *Store) Add(t rdf.Triple) bool {
	key := t.Serialize(rdf.NTriples)
	if _, present := s.triples.Get(key); present {
		return false
	}
	s.triples.Set(key, t)
	return true
}

// AddAll inserts every triple and returns how many were new.
func (s *Store) AddAll(ts []rdf.Triple) int {
	added := 0
	for _, t := range ts {
		if s.Add(t) {
			added++
		}
	}
	return added
}

// Contains reports whether t is in the store.
func (s *Store) Contains(t rdf.Triple) bool {
	_, present := s.triples.Get(t.Serialize(rdf.NTriples))
	return present
}

// Len returns the number of distinct statements.
func (s *Store) Len() int {
	return s.triples.Len()
}

// Triples returns the statements in insertion order.
func (s *Store) Triples() []rdf.Triple {
	out := make([]rdf.Triple, 0, s.triples.Len())
	for pair := s.triples.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// SubjectGroup is every statement about one subject.
type SubjectGroup struct {
	Subject string
	Triples []rdf.Triple
}

// BySubject groups the statements by subject, ordering subjects by their
// first statement and keeping insertion order within a subject.
func (s *Store) BySubject() []SubjectGroup {
	index := make(map[string]int)
	var groups []SubjectGroup
	for pair := s.triples.Oldest(); pair != nil; pair = pair.Next() {
		subj := pair.Value.Subj.String()
		i, ok := index[subj]
		if !ok {
			i = len(groups)
			index[subj] = i
			groups = append(groups, SubjectGroup{Subject: subj})
		}
		groups[i].Triples = append(groups[i].Triples, pair.Value)
	}
	return groups
}
