package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/decoy-cli/internal/browser"
)

// element addresses a node by the XPath that found it and re-resolves on
// every op, so handles survive the DOM mutations clicks apply.
type element struct {
	sess *session
	expr string
}

var _ browser.Element = (*element)(nil)

// Visible approximates rendering without a layout engine: markup that
// declares itself hidden is invisible, everything else counts as shown.
func (e *element) Visible(ctx context.Context) (bool, error) {
	node, err := e.sess.lookup(e.expr)
	if err != nil {
		return false, err
	}
	return visibleByMarkup(node), nil
}

// Rect hands back a fixed plausible box; there is no layout to measure, but
// pointer math upstream needs finite numbers.
func (e *element) Rect(ctx context.Context) (browser.Rect, error) {
	if _, err := e.sess.lookup(e.expr); err != nil {
		return browser.Rect{}, err
	}
	return browser.Rect{X: 8, Y: 8, Width: 120, Height: 40}, nil
}

func (e *element) Click(ctx context.Context, opts browser.ClickOptions) error {
	node, err := e.sess.lookup(e.expr)
	if err != nil {
		return err
	}
	if !opts.Force && !visibleByMarkup(node) {
		return fmt.Errorf("click %q: %w", e.expr, browser.ErrNotHittable)
	}
	if opts.Hold > 0 {
		select {
		case <-time.After(opts.Hold):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return e.sess.clickConsequence(ctx, node)
}

// ScriptActivate has no input pipeline to bypass; the click consequence
// applies directly.
func (e *element) ScriptActivate(ctx context.Context) error {
	node, err := e.sess.lookup(e.expr)
	if err != nil {
		return err
	}
	return e.sess.clickConsequence(ctx, node)
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	node, err := e.sess.lookup(e.expr)
	if err != nil {
		return "", false, err
	}
	e.sess.mu.RLock()
	defer e.sess.mu.RUnlock()
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *element) RemoveAttribute(ctx context.Context, name string) error {
	node, err := e.sess.lookup(e.expr)
	if err != nil {
		return err
	}
	e.sess.mu.Lock()
	removeNodeAttr(node, name)
	e.sess.mu.Unlock()
	return nil
}

// clickConsequence applies what a click on the node would do to the page:
// anchors navigate, submit controls post their form, checkboxes and radios
// flip state. Everything else is a no-op the static DOM cannot model.
func (s *session) clickConsequence(ctx context.Context, node *html.Node) error {
	target := interactiveAncestor(node)
	tag := strings.ToLower(target.Data)

	if tag == "a" {
		href := htmlquery.SelectAttr(target, "href")
		switch {
		case href == "", strings.HasPrefix(href, "#"), strings.HasPrefix(strings.ToLower(href), "javascript:"):
			return nil
		default:
			return s.Navigate(ctx, href)
		}
	}

	typ := strings.ToLower(htmlquery.SelectAttr(target, "type"))
	submits := (tag == "button" && (typ == "" || typ == "submit")) ||
		(tag == "input" && typ == "submit")
	if submits {
		if form := enclosingForm(target); form != nil {
			return s.submitForm(ctx, form, target)
		}
		return nil
	}

	if tag == "input" {
		switch typ {
		case "checkbox":
			s.mu.Lock()
			if hasAttr(target, "checked") {
				removeNodeAttr(target, "checked")
			} else {
				setNodeAttr(target, "checked", "checked")
			}
			s.mu.Unlock()
		case "radio":
			s.selectRadio(target)
		}
		return nil
	}

	s.logger.Debug("Click had no modelled consequence.", zap.String("tag", tag))
	return nil
}

// submitForm serializes the form and navigates to the outcome. The control
// that triggered the submission contributes its name/value pair, matching
// what a browser sends.
func (s *session) submitForm(ctx context.Context, form, submitter *html.Node) error {
	method := strings.ToUpper(htmlquery.SelectAttr(form, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	action := htmlquery.SelectAttr(form, "action")
	targetURL, err := s.resolveURL(action)
	if err != nil {
		return fmt.Errorf("resolve form action %q: %w", action, err)
	}

	values, err := s.serializeForm(form, submitter)
	if err != nil {
		return err
	}

	navCtx, release := browser.CombineContext(s.ctx, ctx)
	defer release()

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(navCtx, method, targetURL.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		withQuery := *targetURL
		withQuery.RawQuery = values.Encode()
		req, err = http.NewRequestWithContext(navCtx, method, withQuery.String(), nil)
		if err != nil {
			return err
		}
	}

	s.applyHeaders(req)
	return s.execute(navCtx, req)
}

func (s *session) serializeForm(form, submitter *html.Node) (url.Values, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, err := htmlquery.QueryAll(form, ".//input | .//textarea | .//select")
	if err != nil {
		return nil, fmt.Errorf("query form fields: %w", err)
	}

	values := url.Values{}
	for _, field := range fields {
		name := htmlquery.SelectAttr(field, "name")
		if name == "" || hasAttr(field, "disabled") {
			continue
		}

		switch strings.ToLower(field.Data) {
		case "input":
			switch strings.ToLower(htmlquery.SelectAttr(field, "type")) {
			case "checkbox", "radio":
				if hasAttr(field, "checked") {
					value := htmlquery.SelectAttr(field, "value")
					if value == "" {
						value = "on"
					}
					values.Add(name, value)
				}
			case "submit", "button", "image", "reset", "file":
				// The activating control is added below; the rest never
				// serialize.
			default:
				values.Add(name, htmlquery.SelectAttr(field, "value"))
			}
		case "textarea":
			values.Add(name, htmlquery.InnerText(field))
		case "select":
			selected, err := htmlquery.QueryAll(field, ".//option[@selected]")
			if err == nil && len(selected) == 0 {
				// Without an explicit selection the first option submits.
				if first, err := htmlquery.Query(field, ".//option"); err == nil && first != nil {
					selected = []*html.Node{first}
				}
			}
			for _, opt := range selected {
				value := htmlquery.SelectAttr(opt, "value")
				if value == "" {
					value = strings.TrimSpace(htmlquery.InnerText(opt))
				}
				values.Add(name, value)
			}
		}
	}

	if submitter != nil {
		if name := htmlquery.SelectAttr(submitter, "name"); name != "" {
			values.Add(name, htmlquery.SelectAttr(submitter, "value"))
		}
	}
	return values, nil
}

// selectRadio checks the clicked radio and clears the rest of its group.
func (s *session) selectRadio(radio *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := htmlquery.SelectAttr(radio, "name")
	if name == "" {
		setNodeAttr(radio, "checked", "checked")
		return
	}

	scope := enclosingForm(radio)
	if scope == nil {
		scope = radio
		for scope.Parent != nil {
			scope = scope.Parent
		}
	}

	group, err := htmlquery.QueryAll(scope, fmt.Sprintf(".//input[@type='radio' and @name=%s]", xpathLiteral(name)))
	if err != nil {
		setNodeAttr(radio, "checked", "checked")
		return
	}
	for _, other := range group {
		if other == radio {
			setNodeAttr(other, "checked", "checked")
		} else {
			removeNodeAttr(other, "checked")
		}
	}
}

// interactiveAncestor walks up from markup nested inside an interactive
// element to the element the click really lands on.
func interactiveAncestor(n *html.Node) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		switch strings.ToLower(cur.Data) {
		case "a", "button", "input", "select", "textarea":
			return cur
		}
	}
	return n
}

func enclosingForm(n *html.Node) *html.Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && strings.ToLower(cur.Data) == "form" {
			return cur
		}
	}
	return nil
}

func visibleByMarkup(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if hasAttr(n, "hidden") {
		return false
	}
	if strings.EqualFold(htmlquery.SelectAttr(n, "aria-hidden"), "true") {
		return false
	}
	if strings.ToLower(n.Data) == "input" &&
		strings.EqualFold(htmlquery.SelectAttr(n, "type"), "hidden") {
		return false
	}
	style := htmlquery.SelectAttr(n, "style")
	if styleDeclares(style, "display", "none") ||
		styleDeclares(style, "visibility", "hidden") ||
		styleDeclares(style, "opacity", "0") {
		return false
	}
	return true
}

// styleDeclares reports whether an inline style sets prop to exactly want.
func styleDeclares(style, prop, want string) bool {
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(k), prop) {
			continue
		}
		v = strings.TrimSpace(v)
		v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
		return strings.EqualFold(v, want)
	}
	return false
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

func setNodeAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeNodeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// xpathLiteral quotes a string for use inside an XPath expression. Values
// holding both quote kinds go through concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + part + "'")
	}
	b.WriteString(")")
	return b.String()
}
