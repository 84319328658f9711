package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fwojciec/mira"
)

// ExtractRequest asks the host to extract the page at URL.
type ExtractRequest struct {
	URL    string `json:"url"`
	APIKey string `json:"apiKey,omitempty"`
}

// ExtractResponse is the host's reply to an ExtractRequest.
// Content is null when the run was aborted or produced nothing.
type ExtractResponse struct {
	Content *string `json:"content"`
	Error   string  `json:"error,omitempty"`
}

// Host runs pipelines on behalf of pages. Each page has its own
// coordinator and result slot; a new request for a page supersedes the
// page's running request.
type Host struct {
	Pipeline *Pipeline
	Loader   mira.PageLoader
	Store    mira.ContentStore
	Logger   *slog.Logger

	mu    sync.Mutex
	pages map[string]*Coordinator
}

// NewHost creates a new Host.
func NewHost(p *Pipeline, loader mira.PageLoader, store mira.ContentStore, logger *slog.Logger) *Host {
	return &Host{
		Pipeline: p,
		Loader:   loader,
		Store:    store,
		Logger:   logger,
		pages:    make(map[string]*Coordinator),
	}
}

func (h *Host) coordinator(pageID string) *Coordinator {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pages == nil {
		h.pages = make(map[string]*Coordinator)
	}
	c, ok := h.pages[pageID]
	if !ok {
		c = NewCoordinator()
		h.pages[pageID] = c
	}
	return c
}

// ExtractContent clears the page's slot, cancels the page's previous
// run, loads req.URL and runs the pipeline on it. Non-null content is
// saved to the slot unless the run was superseded meanwhile.
// Errors are reported in the response, never returned or raised.
func (h *Host) ExtractContent(ctx context.Context, pageID string, req ExtractRequest) (resp ExtractResponse) {
	logger := loggerOrDiscard(h.Logger).With("page", pageID)

	token := h.coordinator(pageID).Begin(ctx)
	defer token.Release()
	logger = logger.With("run", token.ID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("extract panicked", "panic", r)
			resp = ExtractResponse{Error: fmt.Sprint(r)}
		}
	}()

	if err := h.Store.Clear(ctx, pageID); err != nil {
		logger.Error("clear slot failed", "err", err)
		return ExtractResponse{Error: err.Error()}
	}

	if req.URL == "" {
		return ExtractResponse{Error: mira.Errorf(mira.EINVALID, "url required").Error()}
	}

	page, err := h.Loader.Load(token.Context(), req.URL)
	if token.Cancelled() {
		return ExtractResponse{}
	}
	if err != nil {
		logger.Warn("page load failed", "url", req.URL, "err", err)
		return ExtractResponse{Error: err.Error()}
	}

	result := h.Pipeline.Run(token.Context(), RunRequest{Page: page, APIKey: req.APIKey})
	if result.State == StateAborted || result.Content == nil {
		return responseFor(result)
	}

	err = token.Commit(func() error {
		return h.Store.Save(ctx, pageID, *result.Content)
	})
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("run superseded before commit")
		return ExtractResponse{}
	case err != nil:
		logger.Error("save slot failed", "err", err)
	}
	return responseFor(result)
}

func responseFor(result Result) ExtractResponse {
	resp := ExtractResponse{Content: result.Content}
	if result.State == StateFailed && result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp
}

// Stop cancels the page's running request, if any.
func (h *Host) Stop(pageID string) {
	h.mu.Lock()
	c, ok := h.pages[pageID]
	h.mu.Unlock()
	if ok {
		c.Stop()
	}
}

// Content returns the page's last saved document.
// Returns ENOTFOUND if the slot is empty.
func (h *Host) Content(ctx context.Context, pageID string) (string, error) {
	return h.Store.Find(ctx, pageID)
}
