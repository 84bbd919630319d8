// Package useref finds build blocks in HTML pages and turns them into an
// asset plan.
//
// A build block groups stylesheet or script references:
//
//	<!-- build:css assets/styles/vendor.css -->
//	<link rel="stylesheet" href="/node_modules/bootstrap/dist/css/bootstrap.css">
//	<!-- endbuild -->
//
// The block is replaced by a single reference to its target, and the plan
// records which sources are concatenated into that target. A remove block
// (<!-- build:remove -->) is deleted from the page.
package useref

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
)

// Block types.
const (
	TypeCSS    = "css"
	TypeJS     = "js"
	TypeRemove = "remove"
)

var (
	startRe = regexp.MustCompile(`^\s*build:(\w+)(?:\(([^)]*)\))?(?:\s+(\S+))?\s*$`)
	endRe   = regexp.MustCompile(`^\s*endbuild\s*$`)
)

// Block is one build block of a page.
type Block struct {
	Type    string
	Target  string   // as written in the page
	Sources []string // href/src values as written in the page

	// Start and End are byte offsets of the block (both comments included).
	Start int
	End   int
}

// Replacement returns the markup that replaces the block.
func (b Block) Replacement() string {
	switch b.Type {
	case TypeCSS:
		return fmt.Sprintf(`<link rel="stylesheet" href="%s">`, b.Target)
	case TypeJS:
		return fmt.Sprintf(`<script src="%s"></script>`, b.Target)
	default:
		return ""
	}
}

// Scan returns the build blocks of page in document order.
func Scan(page []byte) ([]Block, error) {
	z := html.NewTokenizer(bytes.NewReader(page))
	var (
		blocks []Block
		cur    *Block
		offset int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			return nil, ferrors.TaskError("parse html").WithCause(z.Err()).Build()
		}
		raw := len(z.Raw())
		tok := z.Token()

		switch tt {
		case html.CommentToken:
			if m := startRe.FindStringSubmatch(tok.Data); m != nil {
				if cur != nil {
					return nil, blockError("nested build block", offset)
				}
				cur = &Block{Type: m[1], Target: m[3], Start: offset}
				if err := validateStart(cur, offset); err != nil {
					return nil, err
				}
			} else if endRe.MatchString(tok.Data) {
				if cur == nil {
					return nil, blockError("endbuild without build block", offset)
				}
				cur.End = offset + raw
				blocks = append(blocks, *cur)
				cur = nil
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			if cur != nil {
				if ref := reference(tok); ref != "" {
					cur.Sources = append(cur.Sources, ref)
				}
			}
		}
		offset += raw
	}
	if cur != nil {
		return nil, blockError("unterminated build block", cur.Start)
	}
	return blocks, nil
}

func validateStart(b *Block, offset int) error {
	switch b.Type {
	case TypeCSS, TypeJS:
		if b.Target == "" {
			return blockError(fmt.Sprintf("build:%s block without target", b.Type), offset)
		}
	case TypeRemove:
	default:
		return blockError(fmt.Sprintf("unsupported build block type %q", b.Type), offset)
	}
	return nil
}

func blockError(msg string, offset int) error {
	return ferrors.TaskError(msg).WithContext("offset", offset).UserAction().Build()
}

func reference(tok html.Token) string {
	switch tok.DataAtom {
	case atom.Link:
		if strings.EqualFold(attr(tok, "rel"), "stylesheet") {
			return attr(tok, "href")
		}
	case atom.Script:
		return attr(tok, "src")
	}
	return ""
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Rewrite replaces each block of page with its replacement markup.
func Rewrite(page []byte, blocks []Block) []byte {
	var out bytes.Buffer
	last := 0
	for _, b := range blocks {
		out.Write(page[last:b.Start])
		out.WriteString(b.Replacement())
		last = b.End
	}
	out.Write(page[last:])
	return out.Bytes()
}
