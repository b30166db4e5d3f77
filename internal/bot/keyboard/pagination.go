package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Proton-105/kino-bot/internal/i18n"
)

// Page is one window of an admin list. Number is 1-based and always within
// [1, Count].
type Page struct {
	Number int
	Count  int
	Size   int
}

// NewPage clamps requested to the pages that items of the given size fill.
// An empty list still has one page.
func NewPage(requested, items, size int) Page {
	size = max(size, 1)
	count := max((items+size-1)/size, 1)
	return Page{Number: min(max(requested, 1), count), Count: count, Size: size}
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Bounds returns the slice range of the page within a list of n items.
func (p Page) Bounds(n int) (start, end int) {
	start = min(p.Offset(), n)
	return start, min(start+p.Size, n)
}

// Buttons renders prev, position and next buttons. Every button carries the
// page it opens under action; the position button reloads the current one.
func (p Page) Buttons(t i18n.Translator, action string) []InlineButton {
	button := func(text string, page int) InlineButton {
		return InlineButton{Text: text, Unique: action, Data: strconv.Itoa(page)}
	}

	buttons := make([]InlineButton, 0, 3)
	if p.Number > 1 {
		buttons = append(buttons, button(translated(t, "pagination.prev", "◀️"), p.Number-1))
	}
	buttons = append(buttons, button(pageLabel(t, p.Number, p.Count), p.Number))
	if p.Number < p.Count {
		buttons = append(buttons, button(translated(t, "pagination.next", "▶️"), p.Number+1))
	}
	return buttons
}

func translated(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}
	if text := strings.TrimSpace(t.T(key)); text != "" && text != key {
		return text
	}
	return fallback
}

func pageLabel(t i18n.Translator, page, count int) string {
	const key = "pagination.page"
	if t != nil {
		label := strings.TrimSpace(t.TData(key, map[string]any{"Page": page, "Total": count}))
		if label != "" && label != key {
			return label
		}
	}
	return fmt.Sprintf("%d/%d", page, count)
}
