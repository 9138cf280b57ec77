package server

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/loggraph/pkg/buildinfo"
	apperrors "github.com/matzehuels/loggraph/pkg/errors"
	"github.com/matzehuels/loggraph/pkg/graph"
	"github.com/matzehuels/loggraph/pkg/graph/fragment"
	gio "github.com/matzehuels/loggraph/pkg/io"
	"github.com/matzehuels/loggraph/pkg/printcell"
	"github.com/matzehuels/loggraph/pkg/session"
	"github.com/matzehuels/loggraph/pkg/source/gitlog"
)

// defaultPage is the number of rows returned when a range has no end.
const defaultPage = 100

// PingResponse reports liveness and the server build.
type PingResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// CreateSessionRequest creates a session from exactly one of a text log
// or a repository path relative to the server's repository root.
type CreateSessionRequest struct {
	Records string `json:"records,omitempty"`
	Repo    string `json:"repo,omitempty"`

	// Limit bounds the first block read from a repository.
	Limit int `json:"limit,omitempty"`

	// Conceal overrides the configured concealment.
	Conceal *bool `json:"conceal,omitempty"`
}

// AppendRequest carries records in the text log format.
type AppendRequest struct {
	Records string `json:"records"`
}

// UpdateResponse reports the rows a mutation changed.
type UpdateResponse struct {
	Update graph.UpdateRequest `json:"update"`
	Loaded int                 `json:"loaded,omitempty"`
	Info   session.Info        `json:"session"`
}

// RowResponse is a print cell with the reference names of its commit.
type RowResponse struct {
	*printcell.GraphPrintCell
	Refs []string `json:"refs,omitempty"`
}

// ArrowResponse locates the node an arrow jumps to.
type ArrowResponse struct {
	Node graph.NodeID `json:"node"`
	Hash graph.Hash   `json:"hash"`
	Row  int          `json:"row"`
}

// NodeResponse describes one node.
type NodeResponse struct {
	ID       graph.NodeID   `json:"id"`
	Hash     graph.Hash     `json:"hash"`
	Row      int            `json:"row"`
	Type     graph.NodeType `json:"type"`
	Branch   string         `json:"branch"`
	Parents  []graph.Hash   `json:"parents,omitempty"`
	LogIndex *int           `json:"log_index,omitempty"`
	Hidden   bool           `json:"hidden"`
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PingResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.reg.List()
	if infos == nil {
		infos = []session.Info{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if (req.Records == "") == (req.Repo == "") {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "exactly one of records and repo is required"))
		return
	}

	opts := s.cfg.SessionOptions(s.logger)
	if req.Conceal != nil {
		opts.Conceal = *req.Conceal
	}

	var (
		sess *session.Session
		err  error
	)
	if req.Records != "" {
		sess, err = s.sessionFromRecords(r.Context(), req.Records, opts)
	} else {
		sess, err = s.sessionFromRepo(r.Context(), req.Repo, req.Limit, opts)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	s.pruneSources()
	s.reg.Add(sess)
	s.logger.Info("created session", "session", sess.ID, "rows", sess.RowCount())
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) sessionFromRecords(ctx context.Context, text string, opts session.Options) (*session.Session, error) {
	recs, err := s.parseRecords(text, 0)
	if err != nil {
		return nil, err
	}
	return session.Open(ctx, recs, opts)
}

func (s *Server) sessionFromRepo(ctx context.Context, rel string, limit int, opts session.Options) (*session.Session, error) {
	if err := apperrors.ValidateLimit(limit, s.cfg.Server.MaxRecords); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = s.cfg.Source.BlockSize
	}
	src, err := s.openRepo(rel)
	if err != nil {
		return nil, err
	}
	refs, err := src.Refs(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read references")
	}
	labels, err := src.Labels()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "read references")
	}
	opts.Refs = refs

	sess := session.New(opts)
	if _, _, err := sess.LoadMore(ctx, src, s.rc, limit); err != nil {
		return nil, err
	}
	s.setSource(sess.ID, source{src: src, labels: labels})
	return sess, nil
}

func (s *Server) openRepo(rel string) (*gitlog.Source, error) {
	if s.cfg.Server.RepoRoot == "" {
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "repository access is disabled")
	}
	if err := apperrors.ValidatePath(rel); err != nil {
		return nil, err
	}
	src, err := gitlog.Open(filepath.Join(s.cfg.Server.RepoRoot, filepath.FromSlash(rel)))
	if errors.Is(err, gitlog.ErrNotRepository) {
		return nil, apperrors.Wrap(apperrors.ErrCodeRepositoryNotFound, err, "repository %q not found", rel)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "open repository %q", rel)
	}
	return src, nil
}

// parseRecords reads a text log whose first record gets log index start.
func (s *Server) parseRecords(text string, start int) ([]graph.CommitRecord, error) {
	recs, err := gio.ReadRecords(strings.NewReader(text), start)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRecord, err, "parse records")
	}
	if limit := s.cfg.Server.MaxRecords; limit > 0 && len(recs) > limit {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "too many records: %d (max %d)", len(recs), limit)
	}
	for _, rec := range recs {
		if err := apperrors.ValidateHash(string(rec.Hash)); err != nil {
			return nil, err
		}
		for _, p := range rec.Parents {
			if err := apperrors.ValidateHash(string(p)); err != nil {
				return nil, err
			}
		}
	}
	return recs, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r).Info())
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.reg.Delete(sess.ID)
	s.dropSource(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	from, err := intQuery(r, "from", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := intQuery(r, "to", min(from+defaultPage, sess.RowCount()))
	if err != nil {
		writeError(w, err)
		return
	}
	if from < 0 || to < from {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid row range [%d, %d)", from, to))
		return
	}
	cells, err := sess.PrintCells(from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	labels := s.labels(sess)
	out := make([]RowResponse, len(cells))
	for i, c := range cells {
		out[i] = rowResponse(c, labels)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	row, err := intParam(r, "row")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := sess.PrintCell(row)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowResponse(c, s.labels(sess)))
}

func rowResponse(c *printcell.GraphPrintCell, labels map[graph.Hash][]string) RowResponse {
	resp := RowResponse{GraphPrintCell: c}
	if head, ok := c.Head(); ok {
		if names := labels[head.Hash]; len(names) > 0 {
			resp.Refs = slices.Clone(names)
		}
	}
	return resp
}

func (s *Server) labels(sess *session.Session) map[graph.Hash][]string {
	src, ok := s.sourceOf(sess.ID)
	if !ok {
		return nil
	}
	return src.labels
}

func (s *Server) followArrow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	row, err := intParam(r, "row")
	if err != nil {
		writeError(w, err)
		return
	}
	idx, err := intParam(r, "arrow")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := sess.PrintCell(row)
	if err != nil {
		writeError(w, err)
		return
	}
	if idx < 0 || idx >= len(c.Specials) {
		writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "row %d has no arrow %d", row, idx))
		return
	}
	node, target, ok := sess.ArrowToNode(c.Specials[idx])
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodeNotFound, "arrow target is not visible"))
		return
	}
	n, err := sess.Node(node)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ArrowResponse{Node: node, Hash: n.Hash, Row: target})
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, err := intParam(r, "node")
	if err != nil {
		writeError(w, err)
		return
	}
	var (
		resp    NodeResponse
		lookErr error
	)
	sess.View(func(g *graph.Graph, frags *fragment.Manager, _ *printcell.Model) {
		n := g.Node(graph.NodeID(id))
		if n == nil {
			lookErr = apperrors.New(apperrors.ErrCodeNodeNotFound, "node %d not found", id)
			return
		}
		resp = NodeResponse{
			ID:     n.ID,
			Hash:   n.Hash,
			Row:    n.Row,
			Type:   n.Type,
			Branch: g.Branch(n.Branch).Label(),
			Hidden: frags.IsNodeHidden(n.ID),
		}
		if n.Commit != nil {
			resp.Parents = slices.Clone(n.Commit.Parents)
			idx := n.Commit.LogIndex
			resp.LogIndex = &idx
		}
	})
	if lookErr != nil {
		writeError(w, lookErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDump(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(sessionFrom(r).Dump()))
}

func (s *Server) appendRecords(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req AppendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	start := 0
	sess.View(func(g *graph.Graph, _ *fragment.Manager, _ *printcell.Model) {
		if last, ok := g.LastLogIndex(); ok {
			start = last + 1
		}
	})
	recs, err := s.parseRecords(req.Records, start)
	if err != nil {
		writeError(w, err)
		return
	}
	upd, err := sess.Append(r.Context(), recs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{Update: upd, Loaded: len(recs), Info: sess.Info()})
}

func (s *Server) loadMore(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	src, ok := s.sourceOf(sess.ID)
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodeUnsupported, "session has no record source"))
		return
	}
	limit, err := intQuery(r, "limit", s.cfg.Source.BlockSize)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := apperrors.ValidateLimit(limit, s.cfg.Server.MaxRecords); err != nil {
		writeError(w, err)
		return
	}
	upd, n, err := sess.LoadMore(r.Context(), src.src, s.rc, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateResponse{Update: upd, Loaded: n, Info: sess.Info()})
}

func (s *Server) conceal(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.writeUpdate(w, sess, sess.Conceal(r.Context()))
}

func (s *Server) expandAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.writeUpdate(w, sess, sess.ExpandAll(r.Context()))
}

func (s *Server) collapseAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.writeUpdate(w, sess, sess.CollapseAll(r.Context()))
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	s.nodeMutation(w, r, (*session.Session).Expand)
}

func (s *Server) collapse(w http.ResponseWriter, r *http.Request) {
	s.nodeMutation(w, r, (*session.Session).Collapse)
}

func (s *Server) nodeMutation(w http.ResponseWriter, r *http.Request, fn func(*session.Session, context.Context, graph.NodeID) (graph.UpdateRequest, error)) {
	sess := sessionFrom(r)
	id, err := intParam(r, "node")
	if err != nil {
		writeError(w, err)
		return
	}
	upd, err := fn(sess, r.Context(), graph.NodeID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeUpdate(w, sess, upd)
}

func (s *Server) writeUpdate(w http.ResponseWriter, sess *session.Session, upd graph.UpdateRequest) {
	writeJSON(w, http.StatusOK, UpdateResponse{Update: upd, Info: sess.Info()})
}
