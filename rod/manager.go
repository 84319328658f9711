// Package rod loads pages in headless Chrome, capturing the rendered DOM
// together with the measured size of every image.
package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/mira"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultMaxTabs is the number of tabs a browser process serves before it
// is replaced.
const DefaultMaxTabs = 75

// BrowserManager owns the Chrome process shared by all loads. Chrome's
// resident memory keeps growing with the number of tabs it has served, so
// after maxTabs tabs the process is replaced. Replacement waits until no
// tab is open, so an in-flight load is never cut off.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu         sync.Mutex
	browser    *rod.Browser
	launcher   *launcher.Launcher
	served     int
	open       int
	generation int
	maxTabs    int
	bin        string
	headless   bool
	closed     bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxTabs sets how many tabs a browser serves before replacement.
func WithMaxTabs(n int) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxTabs = n
	}
}

// WithBrowserBin uses the Chrome binary at path instead of looking one up.
func WithBrowserBin(path string) ManagerOption {
	return func(bm *BrowserManager) {
		bm.bin = path
	}
}

// WithHeadless toggles headless mode. Defaults to true.
func WithHeadless(headless bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.headless = headless
	}
}

// NewBrowserManager launches Chrome. Close must be called to stop it.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxTabs:  DefaultMaxTabs,
		headless: true,
	}
	for _, opt := range opts {
		opt(bm)
	}

	browser, l, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.browser, bm.launcher = browser, l
	bm.generation = 1
	return bm, nil
}

// OpenTab opens a blank tab. With hide set, the tab is patched to hide
// common automation fingerprints before any script runs.
//
// The returned release func closes the tab and must be called exactly
// once; further calls are no-ops.
func (bm *BrowserManager) OpenTab(hide bool) (*rod.Page, func(), error) {
	bm.mu.Lock()
	if bm.closed {
		bm.mu.Unlock()
		return nil, nil, mira.Errorf(mira.EUNAVAILABLE, "browser closed")
	}
	if bm.served >= bm.maxTabs && bm.open == 0 {
		bm.replace()
	}
	browser := bm.browser
	bm.served++
	bm.open++
	bm.mu.Unlock()

	var (
		page *rod.Page
		err  error
	)
	if hide {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		bm.done()
		return nil, nil, fmt.Errorf("opening tab: %w", err)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = page.Close()
			bm.done()
		})
	}
	return page, release, nil
}

func (bm *BrowserManager) done() {
	bm.mu.Lock()
	bm.open--
	bm.mu.Unlock()
}

// Generation counts browser launches, starting at 1.
func (bm *BrowserManager) Generation() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.generation
}

// Close stops Chrome. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	return shutdown(bm.browser, bm.launcher)
}

func (bm *BrowserManager) launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(bm.headless)
	if bm.bin != "" {
		l = l.Bin(bm.bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, nil, mira.Errorf(mira.EUNAVAILABLE, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, nil, mira.Errorf(mira.EUNAVAILABLE, "connecting to browser: %v", err)
	}
	return browser, l, nil
}

// replace swaps in a fresh browser. When the launch fails the current
// browser stays in service. Must be called with mu held.
func (bm *BrowserManager) replace() {
	browser, l, err := bm.launch()
	if err != nil {
		return
	}
	_ = shutdown(bm.browser, bm.launcher)
	bm.browser, bm.launcher = browser, l
	bm.served = 0
	bm.generation++
}

func shutdown(browser *rod.Browser, l *launcher.Launcher) error {
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if l != nil {
		l.Kill()
	}
	return err
}
