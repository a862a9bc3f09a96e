// Package chrome keeps one headless browser alive and hands out a bounded
// number of tabs to the chrome render engine.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"bin2pdf/internal/config"
)

var (
	ErrPoolDisabled = errors.New("chrome pool disabled")
	ErrPoolClosed   = errors.New("chrome pool closed")
)

// Tab is a browser tab checked out of the pool.
type Tab struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Engine       string    `json:"engine"`
	Enabled      bool      `json:"enabled"`
	Capacity     int       `json:"capacity"`
	Idle         int       `json:"idle"`
	InUse        int       `json:"in_use"`
	PoolSizeConf int       `json:"pool_size_conf"`
	ProfileDir   string    `json:"profile_dir"`
	TimeoutSecs  int       `json:"timeout_secs"`
	Restarts     int       `json:"restarts"`
	LastRestart  time.Time `json:"last_restart"`
}

// Pool bounds concurrent tabs with a token channel.
type Pool struct {
	cfg config.Config

	mu            sync.Mutex
	sem           chan struct{}
	profileDir    string
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	warm          bool
	closed        bool
	restarts      int
	lastRestart   time.Time
}

// NewPool prepares a browser allocator. Chrome itself starts lazily with the
// first tab that runs an action.
func NewPool(cfg config.Config) (*Pool, error) {
	size := cfg.PDF.ChromePoolSize
	if size <= 0 {
		return nil, ErrPoolDisabled
	}
	p := &Pool{cfg: cfg, sem: make(chan struct{}, size)}
	if err := p.start(); err != nil {
		return nil, err
	}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}
	return p, nil
}

// AllocatorOptions are the exec flags used for every browser this service starts.
func AllocatorOptions(cfg config.Config, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.PDF.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.PDF.ChromePath))
	}
	if cfg.PDF.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// start must be called with mu held or before the pool is shared.
func (p *Pool) start() error {
	dir, err := createProfileDir(p.cfg)
	if err != nil {
		return err
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(p.cfg, dir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p.profileDir = dir
	p.allocCancel = allocCancel
	p.browserCtx = browserCtx
	p.browserCancel = browserCancel
	p.warm = false
	return nil
}

func (p *Pool) stop() {
	if p.browserCancel != nil {
		p.browserCancel()
		p.browserCancel = nil
	}
	if p.allocCancel != nil {
		p.allocCancel()
		p.allocCancel = nil
	}
	if p.profileDir != "" {
		_ = os.RemoveAll(p.profileDir)
	}
}

// Acquire waits for a free slot and opens a new tab in the shared browser.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.sem:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.sem <- struct{}{}
		return nil, ErrPoolClosed
	}
	// The browser must exist before the first tab, otherwise every tab
	// would allocate a browser of its own.
	if !p.warm && p.allocCancel != nil {
		if err := chromedp.Run(p.browserCtx); err != nil {
			p.sem <- struct{}{}
			return nil, fmt.Errorf("chrome start: %w", err)
		}
		p.warm = true
	}
	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	return &Tab{Ctx: tabCtx, cancel: cancel}, nil
}

// Release closes the tab and returns its slot.
func (p *Pool) Release(tab *Tab, renderErr error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Restart replaces the browser and its profile directory.
func (p *Pool) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.stop()
	if err := p.start(); err != nil {
		return fmt.Errorf("chrome restart: %w", err)
	}
	p.restarts++
	p.lastRestart = time.Now()
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.stop()
}

func (p *Pool) Stats(timeoutSecs int) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	capacity := cap(p.sem)
	idle := len(p.sem)
	return Stats{
		Enabled:      !p.closed && capacity > 0,
		Capacity:     capacity,
		Idle:         idle,
		InUse:        capacity - idle,
		PoolSizeConf: p.cfg.PDF.ChromePoolSize,
		ProfileDir:   p.profileDir,
		TimeoutSecs:  timeoutSecs,
		Restarts:     p.restarts,
		LastRestart:  p.lastRestart,
	}
}

func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.PDF.UserDataDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("chrome profile base %s: %w", base, err)
	}
	dir, err := os.MkdirTemp(base, "bin2pdf-chrome-*")
	if err != nil {
		return "", fmt.Errorf("chrome profile dir: %w", err)
	}
	return dir, nil
}

// IsSessionInterrupted reports errors after which the browser should be
// considered gone.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"target closed", "session closed", "websocket", "broken pipe", "connection reset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
