package app

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrInvalidSelector is returned for selectors other than "#id"
	ErrInvalidSelector = errors.New("invalid mount selector")
	// ErrMountTargetNotFound is returned when the host document has no matching element
	ErrMountTargetNotFound = errors.New("mount target not found")
)

// mountPoint splits the host document around the inner content of the mount element.
type mountPoint struct {
	selector string
	prefix   []byte
	suffix   []byte
}

// parseSelector accepts id selectors only, e.g. "#app".
func parseSelector(selector string) (string, error) {
	if !strings.HasPrefix(selector, "#") || len(selector) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}
	id := selector[1:]
	if strings.ContainsAny(id, " \t\n\"'<>#.[]:") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}
	return id, nil
}

func newMountPoint(doc []byte, selector string) (*mountPoint, error) {
	id, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}

	innerStart, innerEnd, err := locateElement(doc, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, selector)
	}

	return &mountPoint{
		selector: selector,
		prefix:   doc[:innerStart:innerStart],
		suffix:   doc[innerEnd:],
	}, nil
}

// voidElements cannot hold content, so they are never mount targets
var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// locateElement returns the byte offsets of the inner content of the element
// whose id attribute equals id. Existing children are replaced on mount.
func locateElement(doc []byte, id string) (int, int, error) {
	z := html.NewTokenizer(bytes.NewReader(doc))

	var (
		offset     int
		innerStart = -1
		tag        string
		depth      int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a tokenizer error, either way no usable target
			return 0, 0, ErrMountTargetNotFound
		}
		tokenStart := offset
		offset += len(z.Raw())

		if innerStart < 0 {
			if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
				continue
			}
			name, hasAttr := z.TagName()
			if !hasAttr || !hasID(z, id) {
				continue
			}
			if tt == html.SelfClosingTagToken || voidElements[atom.Lookup(name)] {
				return 0, 0, ErrMountTargetNotFound
			}
			innerStart, tag, depth = offset, string(name), 1
			continue
		}

		switch tt {
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == tag {
				depth--
				if depth == 0 {
					return innerStart, tokenStart, nil
				}
			}
		}
	}
}

// hasID reports whether the current tag carries id="<id>"
func hasID(z *html.Tokenizer, id string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" && string(val) == id {
			return true
		}
		if !more {
			return false
		}
	}
}
