// Package static backs dry runs: sessions fetch documents over plain HTTP
// and model the page with an XPath-queryable DOM instead of driving a
// browser. CSS queries and coordinate clicks have no meaning here; both
// report typed errors so callers fall back to element-addressed paths.
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
	"github.com/xkilldash9x/decoy-cli/internal/fingerprint"
)

const maxRedirects = 10

// Launcher creates static sessions. No processes are started; each session
// is an HTTP client with a cookie jar and the identity's header set.
type Launcher struct {
	logger *zap.Logger
}

// NewLauncher creates a launcher. A nil logger disables logging.
func NewLauncher(logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{logger: logger.Named("static")}
}

var _ browser.Launcher = (*Launcher)(nil)

// Launch builds a session presenting the identity's headers on every
// request it makes.
func (l *Launcher) Launch(ctx context.Context, identity fingerprint.SessionIdentity) (browser.Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	headers := make(map[string]string, len(identity.Headers)+1)
	for k, v := range identity.Headers {
		headers[k] = v
	}
	headers["User-Agent"] = identity.Archetype.UserAgent

	sessCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     identity.ID,
		logger: l.logger.With(zap.String("session_id", identity.ID)),
		client: &http.Client{
			Jar: jar,
			// Redirects are walked by hand so every hop carries the identity
			// headers and a Referer.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers: headers,
		ctx:     sessCtx,
		cancel:  cancel,
	}
	l.logger.Debug("Static session created.", zap.String("session_id", identity.ID))
	return s, nil
}

// session holds the fetched document and the state mutations clicks apply
// to it.
type session struct {
	id      string
	logger  *zap.Logger
	client  *http.Client
	headers map[string]string

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	currentURL *url.URL
	doc        *html.Node
	closed     bool

	// The engine re-polls the same expressions every tick; each session
	// keeps its own compiled set instead of sharing htmlquery's locked
	// process-wide cache.
	exprs sync.Map

	closeOnce sync.Once
}

var _ browser.Session = (*session)(nil)

func (s *session) ID() string { return s.id }

func (s *session) alive() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return browser.ErrSessionClosed
	}
	return nil
}

func (s *session) Navigate(ctx context.Context, target string) error {
	if err := s.alive(); err != nil {
		return err
	}
	navCtx, release := browser.CombineContext(s.ctx, ctx)
	defer release()

	resolved, err := s.resolveURL(target)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", target, err)
	}
	s.logger.Debug("Navigating.", zap.String("url", resolved.String()))

	req, err := http.NewRequestWithContext(navCtx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", resolved, err)
	}
	s.applyHeaders(req)

	if err := s.execute(navCtx, req); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// execute sends the request, walks redirects, and updates session state from
// the final response.
func (s *session) execute(ctx context.Context, req *http.Request) error {
	current := req
	for i := 0; i < maxRedirects; i++ {
		resp, err := s.client.Do(current)
		if err != nil {
			return fmt.Errorf("request %s: %w", current.URL, err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			next, err := s.followRedirect(ctx, resp, current)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if err != nil {
				return err
			}
			current = next
			continue
		}
		return s.processResponse(resp)
	}
	return fmt.Errorf("more than %d redirects from %s", maxRedirects, req.URL)
}

// followRedirect builds the next request. 301, 302 and 303 rewrite the
// method to GET (HEAD excepted); 307 and 308 replay the original method and
// body.
func (s *session) followRedirect(ctx context.Context, resp *http.Response, prev *http.Request) (*http.Request, error) {
	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("redirect from %s carries no Location", prev.URL)
	}
	nextURL, err := prev.URL.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse redirect location %q: %w", location, err)
	}

	method := prev.Method
	var body io.ReadCloser
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		if method != http.MethodHead {
			method = http.MethodGet
		}
	default:
		if prev.GetBody != nil {
			if body, err = prev.GetBody(); err != nil {
				return nil, fmt.Errorf("replay body for redirect: %w", err)
			}
		}
	}

	next, err := http.NewRequestWithContext(ctx, method, nextURL.String(), body)
	if err != nil {
		return nil, err
	}
	s.applyHeaders(next)
	next.Header.Set("Referer", prev.URL.String())
	if body != nil {
		next.Header.Set("Content-Type", prev.Header.Get("Content-Type"))
	}
	return next, nil
}

func (s *session) processResponse(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("Navigation got an error status.",
			zap.Int("status", resp.StatusCode),
			zap.String("url", resp.Request.URL.String()))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "html") {
		s.logger.Debug("Response is not HTML; keeping an empty document.",
			zap.String("content_type", contentType))
		s.setState(resp.Request.URL, nil)
		return nil
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		s.setState(resp.Request.URL, nil)
		return fmt.Errorf("parse document from %s: %w", resp.Request.URL, err)
	}
	s.setState(resp.Request.URL, doc)
	return nil
}

func (s *session) setState(u *url.URL, doc *html.Node) {
	s.mu.Lock()
	s.currentURL = u
	s.doc = doc
	s.mu.Unlock()
}

func (s *session) Location(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", browser.ErrSessionClosed
	}
	if s.currentURL == nil {
		return "", nil
	}
	return s.currentURL.String(), nil
}

func (s *session) Find(ctx context.Context, by browser.By, expr string) (browser.Element, error) {
	if by == browser.ByCSS {
		return nil, fmt.Errorf("css query %q: %w", expr, browser.ErrSelectorUnsupported)
	}
	if _, err := s.lookup(expr); err != nil {
		return nil, err
	}
	return &element{sess: s, expr: expr}, nil
}

// ClickAt cannot be modelled without a layout engine.
func (s *session) ClickAt(ctx context.Context, x, y float64) error {
	return fmt.Errorf("click at (%.0f,%.0f): %w", x, y, browser.ErrUnsupported)
}

func (s *session) Conceal(ctx context.Context, by browser.By, expr string) (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	if by == browser.ByCSS {
		return 0, fmt.Errorf("css query %q: %w", expr, browser.ErrSelectorUnsupported)
	}

	compiled, err := s.compile(expr)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return 0, nil
	}
	nodes := htmlquery.QuerySelectorAll(s.doc, compiled)

	hidden := 0
	for _, n := range nodes {
		style := htmlquery.SelectAttr(n, "style")
		if styleDeclares(style, "display", "none") {
			continue
		}
		if style != "" && !strings.HasSuffix(strings.TrimSpace(style), ";") {
			style += "; "
		}
		setNodeAttr(n, "style", style+"display: none")
		hidden++
	}
	return hidden, nil
}

func (s *session) DOMReady(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, browser.ErrSessionClosed
	}
	return s.doc != nil, nil
}

// InFlight is always zero: fetches complete before Navigate returns.
func (s *session) InFlight(ctx context.Context) (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	return 0, nil
}

func (s *session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		s.logger.Debug("Static session closed.")
	})
	return nil
}

// lookup finds the first node matching the XPath in the current document.
func (s *session) lookup(expr string) (*html.Node, error) {
	compiled, err := s.compile(expr)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, browser.ErrSessionClosed
	}
	if s.doc == nil {
		return nil, browser.ErrNoMatch
	}
	node := htmlquery.QuerySelector(s.doc, compiled)
	if node == nil {
		return nil, browser.ErrNoMatch
	}
	return node, nil
}

func (s *session) compile(expr string) (*xpath.Expr, error) {
	if cached, ok := s.exprs.Load(expr); ok {
		return cached.(*xpath.Expr), nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	s.exprs.Store(expr, compiled)
	return compiled, nil
}

func (s *session) resolveURL(target string) (*url.URL, error) {
	s.mu.RLock()
	base := s.currentURL
	s.mu.RUnlock()

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if base != nil && !parsed.IsAbs() {
		return base.ResolveReference(parsed), nil
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("first navigation needs an absolute URL, got %q", target)
	}
	return parsed, nil
}

func (s *session) applyHeaders(req *http.Request) {
	for k, v := range s.headers {
		// The transport owns Accept-Encoding; setting it by hand turns off
		// Go's transparent gzip handling and the parser would see raw bytes.
		if strings.EqualFold(k, "Accept-Encoding") {
			continue
		}
		req.Header.Set(k, v)
	}
	s.mu.RLock()
	if s.currentURL != nil && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", s.currentURL.String())
	}
	s.mu.RUnlock()
}
