package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnresolved is returned when an entity reference cannot be grounded.
var ErrUnresolved = errors.New("entity could not be resolved")

// Entity is a grounded knowledge-graph node reference.
type Entity struct {
	Namespace string
	ID        string
	Name      string
}

// CURIE returns "NAMESPACE:ID".
func (e Entity) CURIE() string {
	return e.Namespace + ":" + e.ID
}

// Pair is the [namespace, id] tuple the backend expects.
func (e Entity) Pair() []string {
	return []string{e.Namespace, e.ID}
}

// Resolver grounds the entity text a client sent.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Entity, error)
}

var curiePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.]*):(\S+)$`)

// CURIEResolver accepts "namespace:identifier" references only. The
// namespace is upper-cased to match the graph's db_ns values; free text is
// rejected.
type CURIEResolver struct{}

func (CURIEResolver) Resolve(_ context.Context, ref string) (Entity, error) {
	ref = strings.TrimSpace(ref)
	m := curiePattern.FindStringSubmatch(ref)
	if m == nil {
		return Entity{}, errors.Wrapf(ErrUnresolved, "%q is not a namespace:identifier CURIE", ref)
	}
	ns := strings.ToUpper(m[1])
	id := m[2]
	// identifiers like GO:0006915 keep the prefix repeated in the id
	if strings.HasPrefix(strings.ToUpper(id), ns+":") {
		id = id[len(ns)+1:]
	}
	return Entity{Namespace: ns, ID: id}, nil
}
