// Package i18n loads the bot copy catalogs and resolves messages per user
// language.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

const DefaultLang = "uz"

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	T(key string) string
	TData(key string, data map[string]any) string
	Lang() string
}

// Manager holds the loaded message bundle.
type Manager struct {
	bundle      *goi18n.Bundle
	defaultLang string
	languages   []string
}

// Load reads catalogs from dir, or from the embedded catalogs when dir is empty.
func Load(dir, defaultLang string) (*Manager, error) {
	var (
		fsys fs.FS = embedded
		root       = "locales"
	)
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	}

	return LoadFS(fsys, root, defaultLang)
}

// LoadFS reads every YAML catalog under root. The file name is the language.
func LoadFS(fsys fs.FS, root, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = DefaultLang
	}

	defaultTag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("i18n: default language %q: %w", defaultLang, err)
	}

	bundle := goi18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", root, err)
	}

	var languages []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		file, err := bundle.LoadMessageFileFS(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", entry.Name(), err)
		}
		languages = append(languages, file.Tag.String())
	}

	if len(languages) == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", root)
	}

	found := false
	for _, lang := range languages {
		if lang == defaultTag.String() {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{bundle: bundle, defaultLang: defaultTag.String(), languages: languages}, nil
}

// Translator returns a translator for a Telegram language code. Unknown
// languages fall back to the default one.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := m.normalize(lang)
	return translator{
		lang:      norm,
		localizer: goi18n.NewLocalizer(m.bundle, norm, m.defaultLang),
	}
}

// Languages returns all loaded languages.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	out := make([]string, len(m.languages))
	copy(out, m.languages)
	return out
}

// Supports reports whether a catalog exists for lang.
func (m *Manager) Supports(lang string) bool {
	for _, l := range m.languages {
		if l == strings.ToLower(strings.TrimSpace(lang)) {
			return true
		}
	}
	return false
}

func (m *Manager) normalize(lang string) string {
	norm := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(norm, "-_"); i > 0 {
		norm = norm[:i]
	}
	if m.Supports(norm) {
		return norm
	}
	return m.defaultLang
}

type translator struct {
	lang      string
	localizer *goi18n.Localizer
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) T(key string) string {
	return t.TData(key, nil)
}

func (t translator) TData(key string, data map[string]any) string {
	key = strings.TrimSpace(key)
	if key == "" || t.localizer == nil {
		return key
	}

	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return key
	}

	return msg
}

// Amount formats a sum with language-aware digit grouping.
func Amount(lang string, amount int64) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Uzbek
	}
	return message.NewPrinter(tag).Sprintf("%d", amount)
}

func isYAML(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
