// Package text renders print cells as lane graphs for terminals.
//
// Each visible row becomes a node line followed by a connector line that
// carries the row's outgoing segments to the lanes of the next row:
//
//	* 3f2a91c (HEAD, main)
//	|\
//	| * 77be0d4
//	|/
//	* 01c4aa2
//
// Commits are drawn as "*", end nodes as "o" and placeholders as "|".
// Concealed fragments are drawn with ":" and carry arrow markers naming
// the commit at the other end.
package text
