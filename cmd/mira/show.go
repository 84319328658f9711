package main

import (
	"fmt"

	"github.com/fwojciec/mira"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	content, err := deps.Store.Find(deps.Ctx, c.PageID)
	if err != nil {
		if mira.ErrorCode(err) == mira.ENOTFOUND {
			return fmt.Errorf("no saved document for %q", c.PageID)
		}
		return err
	}
	fmt.Fprintln(deps.Stdout, content)
	return nil
}
