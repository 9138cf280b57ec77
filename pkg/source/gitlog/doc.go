// Package gitlog reads commit records from a git repository.
//
// A [Source] walks every commit reachable from the repository's branches,
// remote-tracking branches, tags and HEAD and emits them in topological
// order: a commit always precedes its parents. Among the commits whose
// children have all been emitted, the one with the latest committer time
// goes first, which matches `git log --date-order`.
//
// Records can be requested in windows ([Source.Records] with skip and
// limit). The order is stable for a given set of references, so appending
// consecutive windows to a graph yields the same result as building from
// the whole log at once.
//
// [Source.Refs] returns the set of referenced commits, suitable as the
// references model of the fragment manager.
package gitlog
