package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// elementTimeout bounds a single element interaction (click, fill, wait).
const elementTimeout = 5 * time.Second

// Config controls the chromedp executor.
type Config struct {
	Headless   bool
	NavTimeout time.Duration
}

// ChromeExecutor drives a shared headless Chrome instance. One allocator is
// held for the executor's lifetime; every workflow run gets a fresh tab.
type ChromeExecutor struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	cfg         Config
	logger      *zap.Logger
}

// NewChromeExecutor launches the browser allocator.
func NewChromeExecutor(cfg Config, logger *zap.Logger) *ChromeExecutor {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}

	return &ChromeExecutor{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      logger.Named("browser"),
	}
}

// Close tears down the browser allocator.
func (e *ChromeExecutor) Close() {
	e.allocCancel()
}

// NewPage opens a fresh tab with the standard viewport.
func (e *ChromeExecutor) NewPage(ctx context.Context) (Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(e.allocCtx)

	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(1280, 720)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}

	return &chromePage{
		ctx:    tabCtx,
		cancel: tabCancel,
		cfg:    e.cfg,
		logger: e.logger,
	}, nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	logger *zap.Logger
}

func (p *chromePage) Close() {
	p.cancel()
}

// Perform executes one action against the tab. Element lookups use the first
// match in document order so repeated runs behave identically.
func (p *chromePage) Perform(ctx context.Context, action Action) Outcome {
	timeout := elementTimeout
	if action.Kind == ActionNavigate {
		timeout = p.cfg.NavTimeout
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	// Respect the caller's deadline when it is tighter.
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			var cancel2 context.CancelFunc
			runCtx, cancel2 = context.WithDeadline(runCtx, deadline)
			defer cancel2()
		}
	}

	var artifact []byte
	var err error

	switch action.Kind {
	case ActionNavigate:
		err = chromedp.Run(runCtx,
			chromedp.Navigate(action.URL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	case ActionClick:
		if action.Text != "" {
			query := fmt.Sprintf(`//*[self::a or self::button][contains(normalize-space(.), %s)]`, xpathString(action.Text))
			err = chromedp.Run(runCtx, chromedp.Click(query, chromedp.BySearch))
		} else {
			err = chromedp.Run(runCtx, chromedp.Click(action.Selector, chromedp.ByQuery))
		}
	case ActionFill:
		err = chromedp.Run(runCtx,
			chromedp.Clear(action.Selector, chromedp.ByQuery),
			chromedp.SendKeys(action.Selector, action.Value, chromedp.ByQuery),
		)
	case ActionSetRadio:
		selector := fmt.Sprintf(`input[type="radio"][value=%q]`, action.Value)
		err = chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery))
	case ActionWaitVisible:
		err = chromedp.Run(runCtx, chromedp.WaitVisible(action.Selector, chromedp.ByQuery))
	case ActionScreenshot:
		err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var capErr error
			artifact, capErr = cdppage.CaptureScreenshot().
				WithCaptureBeyondViewport(true).
				Do(ctx)
			return capErr
		}))
	default:
		return Outcome{OK: false, Detail: fmt.Sprintf("unsupported action %q", action.Kind)}
	}

	if err != nil {
		p.logger.Debug("action failed",
			zap.String("action", string(action.Kind)),
			zap.Error(err),
		)
		return Outcome{OK: false, Detail: fmt.Sprintf("%s: %v", action.Describe(), err)}
	}

	return Outcome{OK: true, Detail: action.Describe(), Artifact: artifact}
}

// xpathString quotes s for use inside an XPath expression, handling embedded
// quotes via concat.
func xpathString(s string) string {
	if !strings.Contains(s, `'`) {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
