package description

import (
	"regexp"
	"strings"
)

// Sink receives the rendered blocks of a description.
type Sink interface {
	Section(title string)
	Text(lines []string)
	Listing(items []string)
}

var checkboxPattern = regexp.MustCompile(`^\[([ xX])\]\s*(\S.*)$`)

type renderMode int

const (
	textMode renderMode = iota
	listMode
)

type listItem struct {
	checked  bool
	text     string
	subItems []string
}

// String renders the item with its sub-items on indented lines.
func (i listItem) String() string {
	marker := "[ ]"
	if i.checked {
		marker = "[x]"
	}
	var b strings.Builder
	b.WriteString(marker)
	b.WriteString(" ")
	b.WriteString(i.text)
	for _, sub := range i.subItems {
		b.WriteString("\n  - ")
		b.WriteString(sub)
	}
	return b.String()
}

func parseCheckbox(line string) (listItem, bool) {
	m := checkboxPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return listItem{}, false
	}
	return listItem{checked: m[1] != " ", text: m[2]}, true
}

// contentRenderer switches between accumulating paragraph text and list items,
// flushing the pending block to the sink on every transition.
type contentRenderer struct {
	sink  Sink
	mode  renderMode
	text  []string
	items []listItem
}

func renderContent(sink Sink, lines []string) {
	r := &contentRenderer{sink: sink}
	for i, line := range lines {
		next, hasNext := "", i+1 < len(lines)
		if hasNext {
			next = lines[i+1]
		}
		r.feed(line, next, hasNext)
	}
	r.flushText()
	r.flushList()
}

func (r *contentRenderer) feed(line, next string, hasNext bool) {
	if item, ok := parseCheckbox(line); ok {
		if r.mode == textMode {
			r.flushText()
			r.mode = listMode
		}
		r.items = append(r.items, item)
		return
	}

	if r.mode == textMode {
		r.text = append(r.text, line)
		return
	}

	if isBlank(line) {
		if hasNext {
			if _, ok := parseCheckbox(next); ok {
				return
			}
		}
		r.flushList()
		r.mode = textMode
		r.text = append(r.text, line)
		return
	}

	last := &r.items[len(r.items)-1]
	last.subItems = append(last.subItems, strings.TrimSpace(line))
}

// flushText emits the pending paragraph as accumulated, blank lines included.
// A paragraph made only of blank lines is dropped.
func (r *contentRenderer) flushText() {
	if hasContent(r.text) {
		r.sink.Text(r.text)
	}
	r.text = nil
}

func (r *contentRenderer) flushList() {
	if len(r.items) > 0 {
		items := make([]string, 0, len(r.items))
		for _, item := range r.items {
			items = append(items, item.String())
		}
		r.sink.Listing(items)
	}
	r.items = nil
}
