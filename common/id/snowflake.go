package id

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Each binary uses its own node ID so cycle and discussion IDs never collide.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new time-ordered int64 ID.
// Falls back to node 0 when Init was never called (tests, one-off tools).
func New() int64 {
	_ = Init(0) // no-op after the first Init
	return node.Generate().Int64()
}

// NewString returns New formatted in base 10, for log fields and span attributes.
func NewString() string {
	return strconv.FormatInt(New(), 10)
}
