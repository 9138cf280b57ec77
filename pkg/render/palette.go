package render

import "github.com/matzehuels/loggraph/pkg/graph"

// Palette is the sequence of branch colors. Branches cycle through it by ID.
var Palette = []string{
	"#E06C75", // red
	"#61AFEF", // blue
	"#98C379", // green
	"#E5C07B", // yellow
	"#C678DD", // purple
	"#56B6C2", // cyan
	"#D19A66", // orange
	"#BE5046", // dark red
}

// BranchColor returns the color of a branch.
func BranchColor(id graph.BranchID) string {
	if id < 0 {
		return "#808080"
	}
	return Palette[int(id)%len(Palette)]
}

// ShortHash abbreviates a hash to n characters. Hashes shorter than n and
// non-positive n are returned unchanged.
func ShortHash(h graph.Hash, n int) string {
	if n <= 0 || len(h) <= n {
		return string(h)
	}
	return string(h[:n])
}
