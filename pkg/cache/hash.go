package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/taskplan/pkg/taskgraph"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashGraph returns a content hash of g. It covers task IDs, weights, edges
// and communication costs in index order, so graphs that parse to the same
// tasks in the same order hash equally regardless of formatting.
func HashGraph(g *taskgraph.Graph) string {
	h := sha256.New()
	for _, t := range g.Tasks() {
		writeField(h, "t", t.ID(), t.Weight())
	}
	for _, e := range g.Edges() {
		writeField(h, "e", e.Parent.ID(), e.Child.ID(), e.Comm)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, kind string, fields ...any) {
	data, _ := json.Marshal(fields)
	fmt.Fprintf(w, "%s%s\n", kind, data)
}
