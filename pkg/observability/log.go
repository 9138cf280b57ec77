package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charm logger.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to l under the "hooks" prefix.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnBuildStart(_ context.Context, records int) {
	h.logger.Debug("build start", "records", records)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, rows int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("build failed", "took", d, "err", err)
		return
	}
	h.logger.Debug("build done", "rows", rows, "took", d)
}

func (h *LogHooks) OnAppend(_ context.Context, records, from, to int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("append failed", "records", records, "took", d, "err", err)
		return
	}
	h.logger.Debug("append done", "records", records, "from", from, "to", to, "took", d)
}

func (h *LogHooks) OnRecalculate(_ context.Context, from, to, rows int, d time.Duration) {
	h.logger.Debug("recalculate", "from", from, "to", to, "rows", rows, "took", d)
}

func (h *LogHooks) OnConceal(_ context.Context, hidden int) {
	h.logger.Debug("conceal", "hidden", hidden)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

var (
	_ BuildHooks  = (*LogHooks)(nil)
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
)
