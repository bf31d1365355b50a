package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"docchat/internal/indexer"
)

// parseHTML renders the page body as Markdown: h1-h6 become headings,
// pre becomes a fenced code block and other text blocks become paragraphs.
func parseHTML(r io.Reader, _ string) (string, indexer.Format, string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", "", fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := collapseSpace(textContent(n)); t != "" {
					blocks = append(blocks, strings.Repeat("#", level)+" "+t)
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript", "template":
				return
			case "pre":
				if t := strings.Trim(textContent(n), "\n"); strings.TrimSpace(t) != "" {
					fence := codeFence(t)
					blocks = append(blocks, fence+"\n"+t+"\n"+fence)
				}
				return
			case "p", "li", "td", "th", "blockquote", "dt", "dd", "figcaption":
				if t := collapseSpace(textContent(n)); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	var title string
	if t := findElement(doc, "title"); t != nil {
		title = collapseSpace(textContent(t))
	}

	return joinBlocks(blocks), indexer.FormatMarkdown, title, nil
}

// codeFence returns a backtick fence longer than any backtick run in code,
// so lines of code starting with ``` cannot close the block.
func codeFence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
