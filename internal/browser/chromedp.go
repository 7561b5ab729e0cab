package browser

import (
	"context"
	"fmt"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/maxvaer/nitpx/internal/capture"
)

type chromedpSession struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func openChromedp(ctx context.Context, cfg Config) (*chromedpSession, error) {
	log := cfg.Logger

	// The browser outlives any single caller context; Close tears it down.
	base := context.WithoutCancel(ctx)

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(base, cfg.RemoteURL)
		log.Info("browser: connecting to remote", "url", cfg.RemoteURL, "driver", DriverChromedp)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(base, opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	s := &chromedpSession{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}

	// The first Run allocates the browser and binds its lifetime to the
	// context it is given, so it must be browserCtx itself.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	if cfg.RemoteURL == "" {
		log.Info("browser: launched local chrome", "driver", DriverChromedp, "headless", cfg.Headless)
	}
	return s, nil
}

func (s *chromedpSession) NewTab(ctx context.Context) (Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	// As with the browser, the first Run creates the target and must use
	// tabCtx directly.
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDefaultBackgroundColorOverride().Do(ctx)
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	return &chromedpTab{ctx: tabCtx, cancel: cancel}, nil
}

func (s *chromedpSession) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

// runLinked executes actions in target, aborting when ctx is done.
func runLinked(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

type chromedpTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *chromedpTab) run(ctx context.Context, actions ...chromedp.Action) error {
	return runLinked(ctx, t.ctx, actions...)
}

func (t *chromedpTab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Navigate(url))
}

func (t *chromedpTab) SetBounds(ctx context.Context, b capture.Bounds) error {
	return t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return cdpbrowser.SetWindowBounds(id, cdpBounds(b)).Do(ctx)
	}))
}

func (t *chromedpTab) WaitForElement(ctx context.Context, selector string) (capture.Element, error) {
	var nodes []*cdp.Node
	if err := t.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no node matches %q", selector)
	}
	return &chromedpElement{tab: t, node: nodes[0]}, nil
}

func (t *chromedpTab) CaptureScreenshot(ctx context.Context, clip capture.Viewport) ([]byte, error) {
	var buf []byte
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      clip.X,
				Y:      clip.Y,
				Width:  clip.Width,
				Height: clip.Height,
				Scale:  1,
			}).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	return buf, err
}

func (t *chromedpTab) Close() error {
	t.cancel()
	return nil
}

type chromedpElement struct {
	tab  *chromedpTab
	node *cdp.Node
}

func (e *chromedpElement) BoxModel(ctx context.Context) (capture.BoxModel, error) {
	var m *dom.BoxModel
	err := e.tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		m, err = dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return capture.BoxModel{}, err
	}
	return capture.BoxModel{
		Width:  int(m.Width),
		Height: int(m.Height),
		Margin: toQuad(m.Margin),
	}, nil
}

func (e *chromedpElement) CallJSFn(ctx context.Context, source string, awaitPromise bool) error {
	return e.tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		_, exc, err := cdpruntime.CallFunctionOn(source).
			WithObjectID(obj.ObjectID).
			WithAwaitPromise(awaitPromise).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		return nil
	}))
}

func (e *chromedpElement) MoveMouseOver(ctx context.Context) error {
	return e.tab.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := dom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(ctx); err != nil {
			return err
		}
		m, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		x, y := quadCenter(toQuad(m.Content))
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
}

// cdpBounds converts b. Zero values are omitted on the wire, so an explicit
// zero is indistinguishable from nil.
func cdpBounds(b capture.Bounds) *cdpbrowser.Bounds {
	out := &cdpbrowser.Bounds{WindowState: cdpbrowser.WindowStateNormal}
	if b.Left != nil {
		out.Left = int64(*b.Left)
	}
	if b.Top != nil {
		out.Top = int64(*b.Top)
	}
	if b.Width != nil {
		out.Width = int64(*b.Width)
	}
	if b.Height != nil {
		out.Height = int64(*b.Height)
	}
	return out
}
