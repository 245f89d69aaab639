package uid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates int64 ids from a single snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator bound to node. Valid nodes are 0-1023.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node %d: %w", node, err)
	}

	return &Snowflake{node: n}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
