package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/mira/fs"
	"github.com/fwojciec/mira/pipeline"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	ctx := deps.Ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	pageID := c.PageID
	if pageID == "" {
		pageID = c.URL
	}

	// A new run invalidates the previous document before anything else.
	if c.Save {
		if err := deps.Store.Clear(ctx, pageID); err != nil {
			return fmt.Errorf("clearing %s: %w", pageID, err)
		}
	}

	page, err := deps.Loader.Load(ctx, c.URL)
	if err != nil {
		return fmt.Errorf("loading %s: %w", c.URL, err)
	}

	result := deps.Pipeline.Run(ctx, pipeline.RunRequest{
		Page:   page,
		APIKey: deps.Config.APIKey,
	})
	switch result.State {
	case pipeline.StateAborted:
		if errors.Is(result.Err, context.DeadlineExceeded) {
			return fmt.Errorf("extraction timed out after %s", c.Timeout)
		}
		return fmt.Errorf("extraction aborted: %w", result.Err)
	case pipeline.StateFailed:
		fmt.Fprintf(deps.Stderr, "Warning: extraction failed: %v\n", result.Err)
		if result.Content == nil {
			return fmt.Errorf("extraction failed: %w", result.Err)
		}
		fmt.Fprintln(deps.Stderr, "Falling back to the page's visible text")
	}
	content := *result.Content

	if c.Output != "" {
		if err := fs.WriteFileAtomic(c.Output, []byte(content)); err != nil {
			return fmt.Errorf("writing %s: %w", c.Output, err)
		}
		fmt.Fprintf(deps.Stderr, "Wrote %s\n", c.Output)
	} else {
		fmt.Fprintln(deps.Stdout, content)
	}

	if c.Save {
		if err := deps.Store.Save(ctx, pageID, content); err != nil {
			return fmt.Errorf("saving %s: %w", pageID, err)
		}
		fmt.Fprintf(deps.Stderr, "Saved as %s\n", pageID)
	}

	if c.CountTokens && deps.Tokens != nil {
		n, err := deps.Tokens.CountTokens(ctx, content)
		if err != nil {
			return fmt.Errorf("counting tokens: %w", err)
		}
		fmt.Fprintf(deps.Stderr, "Tokens: %d\n", n)
	}

	return nil
}
