package keyboard

// Button is one keyboard button. Reply keyboards only use Text; inline
// buttons carry either callback Data or a URL.
type Button struct {
	Text string
	Data string
	URL  string
}

// Markup is a transport-neutral keyboard attached to an outgoing message.
type Markup struct {
	Inline [][]Button
	Reply  [][]Button
	// Remove hides the current reply keyboard.
	Remove bool
}

// IsInline reports whether the markup renders as an inline keyboard.
func (m *Markup) IsInline() bool {
	return m != nil && len(m.Inline) > 0
}

// ReplyRows builds a resized reply keyboard from rows of labels.
func ReplyRows(rows ...[]string) *Markup {
	markup := &Markup{Reply: make([][]Button, 0, len(rows))}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]Button, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, Button{Text: text})
		}
		markup.Reply = append(markup.Reply, buttons)
	}
	return markup
}

// Remove hides the reply keyboard.
func Remove() *Markup {
	return &Markup{Remove: true}
}

// URLButton returns an inline button that opens url.
func URLButton(text, url string) Button {
	return Button{Text: text, URL: url}
}

// Labels returns the texts of a markup row by row. It is mainly used to
// assert keyboards in tests.
func (m *Markup) Labels() [][]string {
	if m == nil {
		return nil
	}

	rows := m.Reply
	if len(m.Inline) > 0 {
		rows = m.Inline
	}

	labels := make([][]string, 0, len(rows))
	for _, row := range rows {
		texts := make([]string, 0, len(row))
		for _, btn := range row {
			texts = append(texts, btn.Text)
		}
		labels = append(labels, texts)
	}
	return labels
}
