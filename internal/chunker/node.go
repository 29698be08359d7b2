package chunker

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Node is one element of the parsed XML tree, order-preserving with
// 1-based inclusive line positions resolved against the original text.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Children []*Node
	Parent   *Node
	Text     string

	StartByte int
	EndByte   int
	StartLine int
	EndLine   int
}

// ParsedDoc is a parsed file: its root element plus the line-start
// table used for byte-offset-to-line resolution.
type ParsedDoc struct {
	Root       *Node
	lineStarts []int
}

// ParseXML builds an order-preserving element tree from raw XML bytes.
// Comments and processing instructions are skipped, matching §4.2 step 1.
func ParseXML(data []byte) (*ParsedDoc, error) {
	lineStarts := computeLineStarts(data)
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chunker: parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			offset := int(dec.InputOffset())
			n := &Node{
				Tag:       qualifiedName(t.Name),
				Attrs:     attrsToMap(t.Attr),
				StartByte: lastOpenBracket(data, offset),
			}
			n.StartLine = lineForOffset(lineStarts, n.StartByte)
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			offset := int(dec.InputOffset())
			n.EndByte = offset
			n.EndLine = lineForOffset(lineStarts, maxInt(offset-1, n.StartByte))
			if n.EndLine < n.StartLine {
				n.EndLine = n.StartLine
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}

		case xml.Comment, xml.ProcInst, xml.Directive:
			// skipped per §4.2 step 1.
		}
	}

	if root == nil {
		return nil, fmt.Errorf("chunker: no root element")
	}
	return &ParsedDoc{Root: root, lineStarts: lineStarts}, nil
}

// qualifiedName reconstructs the "prefix:Local" spelling used in the
// source for Rule 3 (policy-like tags) when the decoder's resolved
// namespace looks like a bare prefix rather than a real namespace URI
// (true URIs contain ":" for a scheme or "/"). Unresolved custom
// prefixes such as "wsp" fall through this path; proper namespace URIs
// are dropped in favor of the local name, matching registry lookups
// which are namespace-tolerant by design.
func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if !strings.ContainsAny(name.Space, ":/") {
		return name.Space + ":" + name.Local
	}
	return name.Local
}

func attrsToMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		key := a.Name.Local
		if a.Name.Space != "" && !strings.ContainsAny(a.Name.Space, ":/") {
			key = a.Name.Space + ":" + a.Name.Local
		}
		m[key] = a.Value
	}
	return m
}

func lastOpenBracket(data []byte, before int) int {
	if before > len(data) {
		before = len(data)
	}
	if before < 0 {
		before = 0
	}
	idx := bytes.LastIndexByte(data[:before], '<')
	if idx < 0 {
		return 0
	}
	return idx
}

func computeLineStarts(data []byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineForOffset returns the 1-based line number containing offset.
func lineForOffset(lineStarts []int, offset int) int {
	return sort.Search(len(lineStarts), func(i int) bool { return lineStarts[i] > offset })
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// localName strips a namespace prefix, mirroring registry.localName so
// the chunker's own boundary rules agree with registry lookups.
func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
