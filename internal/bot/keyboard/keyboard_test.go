package keyboard_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
)

type mockTranslator struct {
	translations map[string]string
}

func (m *mockTranslator) T(key string) string {
	if v, ok := m.translations[key]; ok {
		return v
	}
	return key
}

func (m *mockTranslator) TData(key string, data map[string]any) string {
	v := m.T(key)
	for k, val := range data {
		v = strings.ReplaceAll(v, "{{."+k+"}}", fmt.Sprint(val))
	}
	return v
}

func (m *mockTranslator) Lang() string { return "uz" }

func TestEncodeDecodeCallback(t *testing.T) {
	testCases := []struct {
		name      string
		unique    string
		data      string
		expected  string
		expectErr bool
	}{
		{name: "unique only", unique: keyboard.CbCheckSubscription, expected: "chk_sub"},
		{name: "with payload", unique: keyboard.CbApprovePayment, data: "42", expected: "pay_ok:42"},
		{name: "empty unique", data: "42", expectErr: true},
		{name: "too long", unique: "x", data: strings.Repeat("9", keyboard.CallbackDataLimitBytes), expectErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := keyboard.EncodeCallback(tc.unique, tc.data)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, encoded)

			unique, data, err := keyboard.DecodeCallback(encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.unique, unique)
			assert.Equal(t, tc.data, data)
		})
	}
}

func TestDecodeID(t *testing.T) {
	unique, id, err := keyboard.DecodeID("del_ok:m:17")
	assert.Error(t, err)
	assert.Equal(t, "del_ok", unique)
	assert.Zero(t, id)

	unique, id, err = keyboard.DecodeID("pay_no:17")
	require.NoError(t, err)
	assert.Equal(t, keyboard.CbRejectPayment, unique)
	assert.EqualValues(t, 17, id)

	_, _, err = keyboard.DecodeCallback("")
	assert.Error(t, err)
}

func TestInlineKeyboardBuilder(t *testing.T) {
	markup, err := keyboard.NewInlineKeyboard().
		AddRow(
			keyboard.InlineButton{Text: "Prev", Unique: "nav", Data: "1"},
			keyboard.InlineButton{Text: "Next", Unique: "nav", Data: "2"},
		).
		AddRow(keyboard.InlineButton{Text: "Kanal", URL: "https://t.me/kino"}).
		AddRow().
		Build()
	require.NoError(t, err)

	require.True(t, markup.IsInline())
	require.Len(t, markup.Inline, 2)
	assert.Equal(t, "nav:2", markup.Inline[0][1].Data)
	assert.Equal(t, "https://t.me/kino", markup.Inline[1][0].URL)
	assert.Empty(t, markup.Inline[1][0].Data)

	_, err = keyboard.NewInlineKeyboard().
		AddRow(keyboard.InlineButton{Text: "x", Unique: "u", Data: strings.Repeat("a", 70)}).
		Build()
	assert.Error(t, err)
}

func TestInlineKeyboardBuilder_AddGrid(t *testing.T) {
	buttons := make([]keyboard.InlineButton, 0, 7)
	for i := 1; i <= 7; i++ {
		buttons = append(buttons, keyboard.InlineButton{Text: strconv.Itoa(i), Unique: "n", Data: strconv.Itoa(i)})
	}

	markup := keyboard.NewInlineKeyboard().AddGrid(3, buttons...).MustBuild()
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}, {"7"}}, markup.Labels())
}

func TestAdminMenu(t *testing.T) {
	testCases := []struct {
		name        string
		admin       *domain.Admin
		contains    []string
		notContains []string
	}{
		{
			name:        "plain admin",
			admin:       &domain.Admin{Role: domain.RoleAdmin},
			contains:    []string{keyboard.BtnUploadMovie, keyboard.BtnStatistics},
			notContains: []string{keyboard.BtnPayments, keyboard.BtnBroadcast, keyboard.BtnDeleteContent},
		},
		{
			name:        "manager",
			admin:       &domain.Admin{Role: domain.RoleManager},
			contains:    []string{keyboard.BtnPayments, keyboard.BtnMandatory},
			notContains: []string{keyboard.BtnAdmins, keyboard.BtnSettings},
		},
		{
			name:     "admin allowed to delete content",
			admin:    &domain.Admin{Role: domain.RoleAdmin, CanDeleteContent: true},
			contains: []string{keyboard.BtnDeleteContent},
		},
		{
			name:     "superadmin",
			admin:    &domain.Admin{Role: domain.RoleSuperAdmin},
			contains: []string{keyboard.BtnAdmins, keyboard.BtnBroadcast, keyboard.BtnDeleteContent},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			markup := keyboard.AdminMenu(tc.admin)

			var labels []string
			for _, row := range markup.Labels() {
				assert.NotEmpty(t, row)
				labels = append(labels, row...)
			}

			for _, label := range tc.contains {
				assert.Contains(t, labels, label)
			}
			for _, label := range tc.notContains {
				assert.NotContains(t, labels, label)
			}
		})
	}
}

func TestUserMenu(t *testing.T) {
	translator := &mockTranslator{translations: map[string]string{
		"menu.search":  "Search",
		"menu.premium": "Premium",
		"menu.about":   "About",
		"menu.profile": "Profile",
		"menu.contact": "Contact",
	}}

	assert.Equal(t, [][]string{
		{"Search"},
		{"Premium"},
		{"About", "Profile"},
		{"Contact", "🌐 Til"},
	}, keyboard.UserMenu(translator, false).Labels())

	assert.Equal(t, [][]string{
		{"Search"},
		{"About", "Profile"},
		{"Contact", "🌐 Til"},
	}, keyboard.UserMenu(translator, true).Labels())
}

func TestPageButtons(t *testing.T) {
	translator := &mockTranslator{translations: map[string]string{
		"pagination.page": "Sahifa {{.Page}}/{{.Total}}",
	}}

	testCases := []struct {
		name      string
		requested int
		items     int
		expected  []string
		data      []string
	}{
		{name: "first page", requested: 1, items: 25, expected: []string{"Sahifa 1/3", "▶️"}, data: []string{"1", "2"}},
		{name: "middle page", requested: 2, items: 25, expected: []string{"◀️", "Sahifa 2/3", "▶️"}, data: []string{"1", "2", "3"}},
		{name: "last page", requested: 3, items: 25, expected: []string{"◀️", "Sahifa 3/3"}, data: []string{"2", "3"}},
		{name: "clamped", requested: 9, items: 0, expected: []string{"Sahifa 1/1"}, data: []string{"1"}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			buttons := keyboard.NewPage(tc.requested, tc.items, 10).Buttons(translator, keyboard.CbChannelsPage)

			var texts, data []string
			for _, btn := range buttons {
				texts = append(texts, btn.Text)
				data = append(data, btn.Data)
				assert.Equal(t, keyboard.CbChannelsPage, btn.Unique)
			}
			assert.Equal(t, tc.expected, texts)
			assert.Equal(t, tc.data, data)
		})
	}

	assert.Equal(t, "2/5", keyboard.NewPage(2, 50, 10).Buttons(nil, "p")[1].Text)
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name                  string
		requested, items      int
		wantNumber, wantCount int
		wantStart, wantEnd    int
	}{
		{name: "below range", requested: 0, items: 21, wantNumber: 1, wantCount: 3, wantStart: 0, wantEnd: 10},
		{name: "partial last page", requested: 3, items: 21, wantNumber: 3, wantCount: 3, wantStart: 20, wantEnd: 21},
		{name: "beyond range", requested: 9, items: 21, wantNumber: 3, wantCount: 3, wantStart: 20, wantEnd: 21},
		{name: "empty list", requested: 2, items: 0, wantNumber: 1, wantCount: 1, wantStart: 0, wantEnd: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := keyboard.NewPage(tt.requested, tt.items, 10)
			start, end := page.Bounds(tt.items)

			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Equal(t, tt.wantCount, page.Count)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
