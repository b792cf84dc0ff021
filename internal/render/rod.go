package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"rentscout/internal/config"
	"rentscout/internal/observability"
)

// RodDriver drives a headless Chrome via rod. One browser per crawl run,
// one page per session.
type RodDriver struct {
	cfg       config.RodConfig
	userAgent string
	logger    *observability.Logger
	lnch      *launcher.Launcher
	browser   *rod.Browser
}

func NewRodDriver(cfg config.RodConfig, userAgent string, logger *observability.Logger) *RodDriver {
	return &RodDriver{cfg: cfg, userAgent: userAgent, logger: logger}
}

// Start launches Chrome and connects. Must be called before Open.
func (d *RodDriver) Start() error {
	l := launcher.New().
		Headless(d.cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-blink-features", "AutomationControlled")

	if d.cfg.ChromePath != "" {
		l = l.Bin(d.cfg.ChromePath)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	d.lnch = l

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	d.browser = browser

	d.logger.Info("Browser started", "headless", d.cfg.Headless)
	return nil
}

func (d *RodDriver) Open(ctx context.Context) (Session, error) {
	if d.browser == nil {
		if err := d.Start(); err != nil {
			return nil, err
		}
	}

	page, err := d.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if d.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.userAgent}); err != nil {
			d.logger.Warn("Failed to set user agent", "error", err.Error())
		}
	}

	return &rodSession{page: page.Context(ctx), logger: d.logger}, nil
}

func (d *RodDriver) Close() error {
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			d.logger.Warn("Browser close failed", "error", err.Error())
		}
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	d.logger.Info("Browser closed")
	return nil
}

type rodSession struct {
	page   *rod.Page
	logger *observability.Logger
}

func (s *rodSession) Render(ctx context.Context, url string, timeout time.Duration) (string, string, error) {
	page := s.page.Context(ctx).Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		return "", "", fmt.Errorf("navigation failed: %w", wrapNavError(err))
	}

	if err := page.WaitLoad(); err != nil {
		return "", "", fmt.Errorf("wait load failed: %w", wrapNavError(err))
	}

	finalURL, err := s.CurrentURL()
	if err != nil {
		finalURL = url
	}

	html, err := s.HTML()
	if err != nil {
		return finalURL, "", fmt.Errorf("html serialization failed: %w", err)
	}

	return finalURL, html, nil
}

func (s *rodSession) ScrollToBottom() error {
	_, err := s.page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	if err != nil {
		return wrapNavError(err)
	}
	return nil
}

func (s *rodSession) ElementCount(selector string) (int, error) {
	res, err := s.page.Eval(`(sel) => document.querySelectorAll(sel).length`, selector)
	if err != nil {
		return 0, wrapNavError(err)
	}
	return res.Value.Int(), nil
}

func (s *rodSession) ClickFirstVisible(selector, text string) (bool, error) {
	el, err := s.firstVisible(selector, text)
	if err != nil || el == nil {
		return false, err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, wrapNavError(err)
	}
	return true, nil
}

func (s *rodSession) FirstVisibleHref(selector, text string) (string, error) {
	el, err := s.firstVisible(selector, text)
	if err != nil || el == nil {
		return "", err
	}
	href, err := el.Attribute("href")
	if err != nil || href == nil {
		return "", wrapNavError(err)
	}
	return *href, nil
}

func (s *rodSession) firstVisible(selector, text string) (*rod.Element, error) {
	elements, err := s.page.Elements(selector)
	if err != nil {
		return nil, wrapNavError(err)
	}

	for _, el := range elements {
		if text != "" {
			elText, err := el.Text()
			if err != nil || !strings.Contains(strings.ToLower(elText), strings.ToLower(text)) {
				continue
			}
		}
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		return el, nil
	}

	return nil, nil
}

func (s *rodSession) QueryLinks(selector string) ([]string, error) {
	if selector == "" {
		selector = "a[href]"
	}

	elements, err := s.page.Elements(selector)
	if err != nil {
		return nil, wrapNavError(err)
	}

	var hrefs []string
	for _, el := range elements {
		href, err := el.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		hrefs = append(hrefs, *href)
	}

	return hrefs, nil
}

func (s *rodSession) WaitVisible(selector string, timeout time.Duration) error {
	_, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("selector %q did not appear: %w", selector, err)
	}
	return nil
}

func (s *rodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", wrapNavError(err)
	}
	return info.URL, nil
}

func (s *rodSession) HTML() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", wrapNavError(err)
	}
	return html, nil
}

func (s *rodSession) Close() error {
	return s.page.Close()
}

// wrapNavError maps Chrome's destroyed-execution-context errors onto
// ErrPageNavigated so callers can tell mid-operation navigation apart from
// genuine failures.
func wrapNavError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "execution context was destroyed") ||
		strings.Contains(msg, "cannot find context with specified id") {
		return fmt.Errorf("%w: %s", ErrPageNavigated, err.Error())
	}
	return err
}
