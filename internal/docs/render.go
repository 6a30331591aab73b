package docs

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiItalic    = "\x1b[3m"
	ansiUnderline = "\x1b[4m"
	ansiCyan      = "\x1b[36m"
	ansiYellow    = "\x1b[33m"
)

// Render writes src as terminal text. When styled is false no escape
// sequences are emitted.
func Render(w io.Writer, src []byte, styled bool) error {
	md := markdown.New(markdown.HTML(false), markdown.Typographer(false))
	r := &renderer{out: bufio.NewWriter(w), styled: styled}
	for _, tok := range md.Parse(src) {
		r.block(tok)
	}
	return r.out.Flush()
}

type listState struct {
	ordered bool
	next    int
}

type renderer struct {
	out    *bufio.Writer
	styled bool
	lists  []listState
	quote  int
	// pending holds a list marker to emit before the next paragraph text.
	pending string
}

func (r *renderer) style(code string) {
	if r.styled {
		r.out.WriteString(code)
	}
}

func (r *renderer) indent() string {
	prefix := strings.Repeat("> ", r.quote)
	if n := len(r.lists); n > 1 {
		prefix += strings.Repeat("  ", n-1)
	}
	return prefix
}

func (r *renderer) block(tok markdown.Token) {
	switch t := tok.(type) {
	case *markdown.HeadingOpen:
		r.out.WriteString(r.indent())
		r.style(ansiBold)
		if t.HLevel == 1 {
			r.style(ansiUnderline)
		} else {
			r.style(ansiCyan)
		}
		if !r.styled {
			r.out.WriteString(strings.Repeat("#", t.HLevel) + " ")
		}
	case *markdown.HeadingClose:
		r.style(ansiReset)
		r.out.WriteString("\n\n")
	case *markdown.ParagraphOpen:
		if r.pending == "" {
			r.out.WriteString(r.indent())
		}
	case *markdown.ParagraphClose:
		r.out.WriteString("\n")
		if len(r.lists) == 0 {
			r.out.WriteString("\n")
		}
	case *markdown.BulletListOpen:
		r.lists = append(r.lists, listState{})
	case *markdown.OrderedListOpen:
		start := t.Order
		if start == 0 {
			start = 1
		}
		r.lists = append(r.lists, listState{ordered: true, next: start})
	case *markdown.BulletListClose, *markdown.OrderedListClose:
		r.lists = r.lists[:len(r.lists)-1]
		if len(r.lists) == 0 {
			r.out.WriteString("\n")
		}
	case *markdown.ListItemOpen:
		top := &r.lists[len(r.lists)-1]
		marker := "• "
		if !r.styled {
			marker = "- "
		}
		if top.ordered {
			marker = fmt.Sprintf("%d. ", top.next)
			top.next++
		}
		r.out.WriteString(r.indent())
		r.pending = marker
	case *markdown.BlockquoteOpen:
		r.quote++
	case *markdown.BlockquoteClose:
		r.quote--
	case *markdown.Fence:
		r.code(t.Content)
	case *markdown.CodeBlock:
		r.code(t.Content)
	case *markdown.Hr:
		r.out.WriteString(r.indent() + strings.Repeat("─", 40) + "\n\n")
	case *markdown.Inline:
		if r.pending != "" {
			r.out.WriteString(r.pending)
			r.pending = ""
		}
		for _, child := range t.Children {
			r.inline(child)
		}
	}
}

func (r *renderer) code(content string) {
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		r.out.WriteString(r.indent() + "    ")
		r.style(ansiYellow)
		r.out.WriteString(line)
		r.style(ansiReset)
		r.out.WriteString("\n")
	}
	r.out.WriteString("\n")
}

func (r *renderer) inline(tok markdown.Token) {
	switch t := tok.(type) {
	case *markdown.Text:
		r.out.WriteString(t.Content)
	case *markdown.CodeInline:
		if r.styled {
			r.style(ansiYellow)
			r.out.WriteString(t.Content)
			r.style(ansiReset)
			return
		}
		r.out.WriteString("`" + t.Content + "`")
	case *markdown.StrongOpen:
		if !r.styled {
			r.out.WriteString("**")
		}
		r.style(ansiBold)
	case *markdown.StrongClose:
		r.style(ansiReset)
		if !r.styled {
			r.out.WriteString("**")
		}
	case *markdown.EmphasisOpen:
		if !r.styled {
			r.out.WriteString("*")
		}
		r.style(ansiItalic)
	case *markdown.EmphasisClose:
		r.style(ansiReset)
		if !r.styled {
			r.out.WriteString("*")
		}
	case *markdown.LinkOpen:
		r.style(ansiUnderline)
	case *markdown.LinkClose:
		r.style(ansiReset)
	case *markdown.Softbreak:
		r.out.WriteString(" ")
	case *markdown.Hardbreak:
		r.out.WriteString("\n" + r.indent())
	}
}
