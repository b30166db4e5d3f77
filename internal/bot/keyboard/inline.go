package keyboard

// InlineButton is an inline button definition whose callback data is
// encoded from Unique and Data when the keyboard is built.
type InlineButton struct {
	Text   string
	Unique string // Identifier that selects the callback handler.
	Data   string // Payload appended to Unique.
	URL    string
}

// InlineKeyboardBuilder accumulates rows of InlineButton definitions.
type InlineKeyboardBuilder struct {
	rows [][]InlineButton
}

// NewInlineKeyboard creates an empty builder.
func NewInlineKeyboard() *InlineKeyboardBuilder {
	return &InlineKeyboardBuilder{rows: make([][]InlineButton, 0)}
}

// AddRow appends a row. Empty rows are ignored.
func (b *InlineKeyboardBuilder) AddRow(buttons ...InlineButton) *InlineKeyboardBuilder {
	if len(buttons) == 0 {
		return b
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	b.rows = append(b.rows, row)
	return b
}

// AddGrid lays buttons out perRow per line.
func (b *InlineKeyboardBuilder) AddGrid(perRow int, buttons ...InlineButton) *InlineKeyboardBuilder {
	if perRow < 1 {
		perRow = 1
	}
	for start := 0; start < len(buttons); start += perRow {
		end := start + perRow
		if end > len(buttons) {
			end = len(buttons)
		}
		b.AddRow(buttons[start:end]...)
	}
	return b
}

// Build encodes callback data and returns the markup. It fails when any
// payload exceeds the Telegram callback data limit.
func (b *InlineKeyboardBuilder) Build() (*Markup, error) {
	inline := make([][]Button, len(b.rows))
	for i, row := range b.rows {
		inline[i] = make([]Button, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				inline[i][j] = Button{Text: btn.Text, URL: btn.URL}
				continue
			}

			data, err := EncodeCallback(btn.Unique, btn.Data)
			if err != nil {
				return nil, err
			}
			inline[i][j] = Button{Text: btn.Text, Data: data}
		}
	}

	return &Markup{Inline: inline}, nil
}

// MustBuild is Build for keyboards made of static payloads.
func (b *InlineKeyboardBuilder) MustBuild() *Markup {
	markup, err := b.Build()
	if err != nil {
		panic(err)
	}
	return markup
}
