package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/taskplan/pkg/observability"
)

// logHooks writes observability events to a logger at debug level, with
// HTTP responses at info so the server shows an access log.
type logHooks struct {
	logger *log.Logger
}

// RegisterHooks routes search, cache and HTTP events to logger.
func RegisterHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetSearchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnSearchStart(_ context.Context, algorithm string, tasks, processors int) {
	h.logger.Debug("search started", "algorithm", algorithm, "tasks", tasks, "processors", processors)
}

func (h logHooks) OnSearchComplete(_ context.Context, algorithm, status string, expanded int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("search stopped", "algorithm", algorithm, "status", status, "expanded", expanded, "duration", d, "error", err)
		return
	}
	h.logger.Debug("search complete", "algorithm", algorithm, "status", status, "expanded", expanded, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, path string) {
	h.logger.Debug("request", "method", method, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	h.logger.Info("response", "method", method, "path", path, "status", status, "duration", d.Round(time.Microsecond))
}
