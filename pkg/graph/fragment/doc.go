// Package fragment hides uninteresting runs of commits.
//
// A fragment is a maximal chain of commits I1..In where each commit has
// exactly one child line and one parent line and is not pinned by the
// visibility [Predicate]. The chain hangs between an upper endpoint U (the
// child of I1) and a lower endpoint D (the parent of In), both of which stay
// visible. Hiding a fragment replaces the chain with a single HIDE_FRAGMENT
// edge from U to D.
//
// # Hidden Set
//
// When a fragment is hidden the following nodes are hidden with it:
//
//   - the interior commits
//   - placeholders carrying the interior hashes
//   - placeholders carrying D's hash, if D has no other child lines
//
// Rows whose commit is hidden disappear from the print-cell view. Rows of
// unrelated commits interleaved with the chain stay visible and show the
// fragment as a pass-through lane.
//
// # Identity
//
// Fragments are identified by their topmost interior node. The hidden state
// survives [Manager.Refresh] for fragments whose top node is unchanged, so a
// fragment hidden before an append remains hidden afterwards even if the
// append extends it downwards.
//
// # Change Ranges
//
// Every operation returns the [graph.UpdateRequest] covering the rows whose
// visibility changed, which pkg/printcell uses for incremental recomputation.
package fragment
