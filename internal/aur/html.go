package aur

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/archtk/archtk/internal/core"
)

// Selector class names AUR's package page markup uses to mark comment
// structure. These are the part of the parser most exposed to an AUR
// redesign (spec.md §9 open question); a caller that starts getting empty
// comment lists after a page redesign should look here first.
const (
	commentContainerClass = "comment"
	commentHeaderClass    = "comment-header"
	commentBodyClass      = "article-content"
	pinnedCommentClass    = "pinned"
)

var commentIDPattern = regexp.MustCompile(`^comment-(\d+)$`)
var dateTextPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}`)

// ParseCommentPage parses an AUR package page's HTML into its comments,
// per spec.md §4.3: locate each comment container, pull author/timestamp/
// body out of its header and body elements, and sort newest-first with
// pinned comments grouped ahead of the rest.
func ParseCommentPage(body []byte) ([]core.Comment, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, core.NewParseError("malformed AUR comment page", err)
	}

	var comments []core.Comment
	visit(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		id, ok := attr(n, "id")
		if !ok || !commentIDPattern.MatchString(id) {
			return
		}
		if !hasClass(n, commentContainerClass) {
			return
		}
		comments = append(comments, parseComment(n, commentIDPattern.FindStringSubmatch(id)[1]))
	})

	sortComments(comments)
	return comments, nil
}

func parseComment(container *html.Node, id string) core.Comment {
	c := core.Comment{ID: id, Pinned: hasClass(container, pinnedCommentClass)}

	if header := findByClass(container, commentHeaderClass); header != nil {
		headerText := textContent(header)
		if a := firstElement(header, "a"); a != nil {
			c.Author = strings.TrimSpace(textContent(a))
		}
		if m := dateTextPattern.FindString(headerText); m != "" {
			c.DateText = m
			if ts, err := time.Parse("2006-01-02 15:04", m); err == nil {
				utc := ts.UTC()
				c.Timestamp = &utc
			}
		}
	}

	if bodyNode := findByClass(container, commentBodyClass); bodyNode != nil {
		c.Body = bodyText(bodyNode)
	}

	return c
}

// sortComments orders newest-first by parsed timestamp, with pinned
// comments grouped ahead of everything else (spec.md §4.3). Comments
// lacking a parsed timestamp sort after every dated comment in their
// group, stable on their original (document) order.
func sortComments(comments []core.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		switch {
		case a.Timestamp == nil && b.Timestamp == nil:
			return false
		case a.Timestamp == nil:
			return false
		case b.Timestamp == nil:
			return true
		default:
			return a.Timestamp.After(*b.Timestamp)
		}
	})
}

func visit(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		visit(child, fn)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	visit(n, func(c *html.Node) {
		if found != nil || c.Type != html.ElementNode {
			return
		}
		if hasClass(c, class) {
			found = c
		}
	})
	return found
}

func firstElement(n *html.Node, tag string) *html.Node {
	var found *html.Node
	visit(n, func(c *html.Node) {
		if found != nil || c == n {
			return
		}
		if c.Type == html.ElementNode && c.Data == tag {
			found = c
		}
	})
	return found
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	visit(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// bodyText renders a comment body preserving paragraph boundaries: each
// <p> or <br> becomes a blank line, inline markers (*emph*, **strong**,
// `code`) pass through untouched since they're already plain text in
// AUR's markup.
func bodyText(n *html.Node) string {
	var sb strings.Builder
	visit(n, func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
		case c.Type == html.ElementNode && (c.Data == "p" || c.Data == "br"):
			sb.WriteString("\n\n")
		}
	})
	return strings.TrimSpace(collapseBlankLines(sb.String()))
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
