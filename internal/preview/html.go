package preview

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
)

// voidTags never have children or a closing tag.
var voidTags = map[string]bool{"img": true, "br": true, "hr": true, "meta": true}

// WriteHTML serializes the tree as a standalone HTML document. All text and
// attribute values are escaped.
func WriteHTML(w io.Writer, t *Tree) error {
	if t == nil || t.Root == nil {
		return fmt.Errorf("preview: empty tree")
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	bw.WriteString("<meta charset=\"utf-8\">\n")
	bw.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(bw, "<title>%s</title>\n", html.EscapeString(t.Title))
	if t.Description != "" {
		fmt.Fprintf(bw, "<meta name=\"description\" content=\"%s\">\n", html.EscapeString(t.Description))
	}
	bw.WriteString("</head>\n<body>\n")
	writeNode(bw, t.Root, 0)
	bw.WriteString("</body>\n</html>\n")
	return bw.Flush()
}

// HTML returns the serialized document.
func HTML(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(w *bufio.Writer, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteByte('<')
	w.WriteString(n.Tag)
	if n.Class != "" {
		fmt.Fprintf(w, " class=\"%s\"", html.EscapeString(n.Class))
	}
	if len(n.Style) > 0 {
		decls := make([]string, 0, len(n.Style))
		for _, d := range n.Style {
			decls = append(decls, d.Property+": "+d.Value)
		}
		fmt.Fprintf(w, " style=\"%s\"", html.EscapeString(strings.Join(decls, "; ")))
	}
	for _, a := range n.Attrs {
		fmt.Fprintf(w, " %s=\"%s\"", a.Name, html.EscapeString(a.Value))
	}
	w.WriteByte('>')

	if voidTags[n.Tag] {
		w.WriteByte('\n')
		return
	}

	if len(n.Children) == 0 {
		w.WriteString(html.EscapeString(n.Text))
		fmt.Fprintf(w, "</%s>\n", n.Tag)
		return
	}

	w.WriteByte('\n')
	if n.Text != "" {
		w.WriteString(indent + "  " + html.EscapeString(n.Text) + "\n")
	}
	for _, c := range n.Children {
		writeNode(w, c, depth+1)
	}
	fmt.Fprintf(w, "%s</%s>\n", indent, n.Tag)
}
