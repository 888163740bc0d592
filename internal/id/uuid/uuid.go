// Package uuid generates profile ids.
package uuid

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Generator creates UUID v7 strings, which sort by creation time.
type Generator struct {
	rand io.Reader
}

// New creates a Generator backed by crypto/rand.
func New() *Generator {
	return &Generator{}
}

// NewFromReader creates a Generator drawing its random bits from r.
func NewFromReader(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// NewID returns a UUID7 string.
func (g *Generator) NewID() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	if g.rand != nil {
		id, err = uuid.NewV7FromReader(g.rand)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
