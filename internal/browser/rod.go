package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/maxvaer/nitpx/internal/capture"
)

type rodSession struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func openRod(ctx context.Context, cfg Config) (*rodSession, error) {
	log := cfg.Logger
	s := &rodSession{cfg: cfg}

	var wsURL string
	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL, "driver", DriverRod)
	} else {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("window-size", strconv.Itoa(cfg.WindowWidth)+","+strconv.Itoa(cfg.WindowHeight)).
			Delete("hide-scrollbars")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headless", cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.cleanupLauncher()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b

	// Test origins are commonly served with self-signed certificates.
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}
	return s, nil
}

func (s *rodSession) NewTab(ctx context.Context) (Tab, error) {
	var page *rod.Page
	var err error
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if err := (proto.EmulationSetDefaultBackgroundColorOverride{}).Call(page.Context(ctx)); err != nil {
		s.cfg.Logger.Warn("browser: reset background failed", "error", err)
	}
	return &rodTab{page: page}, nil
}

func (s *rodSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	s.cleanupLauncher()
	return err
}

func (s *rodSession) cleanupLauncher() {
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
}

type rodTab struct {
	page *rod.Page
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	p := t.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (t *rodTab) SetBounds(ctx context.Context, b capture.Bounds) error {
	return t.page.Context(ctx).SetWindow(rodBounds(b))
}

func (t *rodTab) WaitForElement(ctx context.Context, selector string) (capture.Element, error) {
	el, err := t.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, err
	}
	return &rodElement{page: t.page, el: el}, nil
}

func (t *rodTab) CaptureScreenshot(ctx context.Context, clip capture.Viewport) ([]byte, error) {
	return t.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  1,
		},
		FromSurface: true,
	})
}

func (t *rodTab) Close() error {
	return t.page.Close()
}

type rodElement struct {
	page *rod.Page
	el   *rod.Element
}

func (e *rodElement) BoxModel(ctx context.Context) (capture.BoxModel, error) {
	res, err := proto.DOMGetBoxModel{ObjectID: e.el.Object.ObjectID}.Call(e.page.Context(ctx))
	if err != nil {
		return capture.BoxModel{}, err
	}
	return capture.BoxModel{
		Width:  res.Model.Width,
		Height: res.Model.Height,
		Margin: toQuad(res.Model.Margin),
	}, nil
}

func (e *rodElement) CallJSFn(ctx context.Context, source string, awaitPromise bool) error {
	opts := rod.Eval(source)
	if awaitPromise {
		opts = opts.ByPromise()
	}
	_, err := e.el.Context(ctx).Evaluate(opts)
	return err
}

func (e *rodElement) MoveMouseOver(ctx context.Context) error {
	return e.el.Context(ctx).Hover()
}

// rodBounds converts b, leaving nil fields unset.
func rodBounds(b capture.Bounds) *proto.BrowserBounds {
	out := &proto.BrowserBounds{WindowState: proto.BrowserWindowStateNormal}
	if b.Left != nil {
		out.Left = gson.Int(*b.Left)
	}
	if b.Top != nil {
		out.Top = gson.Int(*b.Top)
	}
	if b.Width != nil {
		out.Width = gson.Int(*b.Width)
	}
	if b.Height != nil {
		out.Height = gson.Int(*b.Height)
	}
	return out
}
