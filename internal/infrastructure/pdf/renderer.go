// Package pdf turns export documents into PDF files. A headless Chromium
// driven through go-rod does the layout; pdfcpu post-processes the output.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Config holds the browser settings
type Config struct {
	// RemoteURL is the DevTools websocket of a running browser. When empty
	// a local browser is launched.
	RemoteURL string
	// BrowserBin overrides the browser lookup
	BrowserBin string
	NoSandbox  bool
	// RenderTimeout bounds one render. Zero means no limit.
	RenderTimeout time.Duration
}

// ErrBrowserNotStarted is reported by HealthCheck before the first render
var ErrBrowserNotStarted = errors.New("browser not started yet")

// liveProbeTimeout bounds the version call used to tell a dead browser from
// a failed page
const liveProbeTimeout = 2 * time.Second

// Renderer prints HTML documents with a shared headless browser. The
// browser is started on first use and reused for every render.
type Renderer struct {
	cfg    Config
	logger *zap.Logger

	// launchMu serializes browser start-up; mu only guards the fields
	launchMu sync.Mutex
	mu       sync.Mutex
	browser  *rod.Browser
	lnch     *launcher.Launcher
}

// NewRenderer creates a renderer. No browser is started until Render.
func NewRenderer(cfg Config, logger *zap.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		logger: logger.Named("pdf-renderer"),
	}
}

// Render loads html into a fresh page and prints it
func (r *Renderer) Render(ctx context.Context, html string) ([]byte, error) {
	browser, err := r.connect()
	if err != nil {
		return nil, err
	}

	if r.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RenderTimeout)
		defer cancel()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		if !r.alive(browser) {
			r.reset(browser)
		}
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.logger.Debug("Failed to close page", zap.Error(cerr))
		}
	}()

	page = page.Context(ctx)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}

	r.logger.Debug("Document rendered", zap.Int("bytes", len(data)))
	return data, nil
}

// HealthCheck reports whether the running browser answers. It never starts
// one: before the first render it returns ErrBrowserNotStarted.
func (r *Renderer) HealthCheck(ctx context.Context) error {
	browser := r.current()
	if browser == nil {
		return ErrBrowserNotStarted
	}
	if _, err := browser.Context(ctx).Version(); err != nil {
		if ctx.Err() == nil {
			r.reset(browser)
		}
		return fmt.Errorf("browser not responding: %w", err)
	}
	return nil
}

// Close shuts the browser down
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleanup()
}

func (r *Renderer) current() *rod.Browser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.browser
}

func (r *Renderer) connect() (*rod.Browser, error) {
	if browser := r.current(); browser != nil {
		return browser, nil
	}

	r.launchMu.Lock()
	defer r.launchMu.Unlock()

	if browser := r.current(); browser != nil {
		return browser, nil
	}

	var lnch *launcher.Launcher
	wsURL := r.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).NoSandbox(r.cfg.NoSandbox)
		if r.cfg.BrowserBin != "" {
			l = l.Bin(r.cfg.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		lnch = l
		wsURL = u
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		if lnch != nil {
			lnch.Kill()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	r.logger.Info("Browser connected",
		zap.Bool("remote", r.cfg.RemoteURL != ""),
		zap.String("control_url", wsURL),
	)
	r.mu.Lock()
	r.browser = browser
	r.lnch = lnch
	r.mu.Unlock()
	return browser, nil
}

// alive reports whether browser still answers protocol calls. A page that
// fails to open on a live browser does not affect other renders.
func (r *Renderer) alive(browser *rod.Browser) bool {
	ctx, cancel := context.WithTimeout(context.Background(), liveProbeTimeout)
	defer cancel()
	_, err := browser.Context(ctx).Version()
	return err == nil
}

// reset drops a browser that stopped answering so the next render starts
// a new one. It does nothing when browser has already been replaced.
func (r *Renderer) reset(browser *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != browser {
		return
	}
	r.logger.Warn("Browser stopped responding, it will be restarted on the next render")
	if err := r.cleanup(); err != nil {
		r.logger.Warn("Failed to close browser", zap.Error(err))
	}
}

func (r *Renderer) cleanup() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}

var _ outbound.PDFRenderer = (*Renderer)(nil)
