// Package domtest parses rendered markup so tests can assert on structure
// rather than on raw strings.
package domtest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func Parse(t testing.TB, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

// Render renders c and parses the output.
func Render(t testing.TB, c templ.Component) *html.Node {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return Parse(t, buf.String())
}

// Find returns every element below n for which match is true, in document order.
func Find(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && match(node) {
			found = append(found, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func FindAll(n *html.Node, tag string) []*html.Node {
	return Find(n, func(node *html.Node) bool { return node.Data == tag })
}

func FindByID(n *html.Node, id string) *html.Node {
	found := Find(n, func(node *html.Node) bool {
		v, ok := Attr(node, "id")
		return ok && v == id
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FindByAttr returns elements carrying attribute key, whatever its value.
func FindByAttr(n *html.Node, key string) []*html.Node {
	return Find(n, func(node *html.Node) bool {
		_, ok := Attr(node, key)
		return ok
	})
}

// CancelledForms returns native forms (those with an action) whose
// data-on-submit handler issues no backend action. Datastar prevents the
// default of every submit it handles, so such a form never posts.
func CancelledForms(n *html.Node) []*html.Node {
	return Find(n, func(node *html.Node) bool {
		if node.Data != "form" {
			return false
		}
		if _, ok := Attr(node, "action"); !ok {
			return false
		}
		onSubmit, ok := Attr(node, "data-on-submit")
		return ok && !strings.Contains(onSubmit, "@post(")
	})
}

func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the text content of n with whitespace runs collapsed.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Texts returns Text of each node.
func Texts(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Text(n))
	}
	return out
}

// SSEElements collects the markup of every element patch in a Datastar
// event stream.
func SSEElements(stream string) string {
	const prefix = "data: elements "
	var b strings.Builder
	for _, line := range strings.Split(stream, "\n") {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			b.WriteString(rest)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// ParseSSE parses the element patches of a Datastar event stream.
func ParseSSE(t testing.TB, stream string) *html.Node {
	t.Helper()
	return Parse(t, SSEElements(stream))
}
