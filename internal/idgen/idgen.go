// Package idgen allocates globally unique task identifiers.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator produces unique, monotonically trending 64-bit task ids.
// Each coordinator instance must run with a distinct node id.
type Generator struct {
	node *snowflake.Node
}

// New creates a generator for the given node id (0..1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next returns a fresh task id. Ids are never reused.
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}
