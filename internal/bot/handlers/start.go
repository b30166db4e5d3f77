package handlers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	"github.com/Proton-105/kino-bot/internal/subscription"
)

var deepLinkPattern = regexp.MustCompile(`^(s?)(\d+)$`)

// ParseDeepLink decodes a /start payload: "<digits>" opens a movie and
// "s<digits>" a serial. Anything else is ignored.
func ParseDeepLink(payload string) (domain.ContentKind, int, bool) {
	match := deepLinkPattern.FindStringSubmatch(strings.TrimSpace(payload))
	if match == nil {
		return "", 0, false
	}
	code, err := strconv.Atoi(match[2])
	if err != nil || code <= 0 {
		return "", 0, false
	}
	if match[1] == "s" {
		return domain.ContentSerial, code, true
	}
	return domain.ContentMovie, code, true
}

// NewStartHandler greets the sender and opens deep-linked content.
func NewStartHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		payload := ""
		if msg := c.Message(); msg != nil {
			payload = msg.Payload
		}
		kind, code, linked := ParseDeepLink(payload)

		if admin := AdminFrom(c); admin != nil && !linked {
			return d.reply(c, "👨‍💼 Admin panelga xush kelibsiz!", keyboard.AdminMenu(admin))
		}

		u := UserFrom(c)
		if err := d.reply(c, d.welcome(c, u), keyboard.UserMenu(TranslatorFrom(c), premium(u))); err != nil {
			return err
		}

		if linked {
			return d.gated(c, gatePayload(kind, code), func() error {
				return d.deliver(c, kind, code)
			})
		}
		return d.gated(c, "", nil)
	}
}

func (d Deps) welcome(c telebot.Context, u *domain.User) string {
	if d.Settings != nil {
		if s, err := d.Settings.Settings(Ctx(c)); err == nil && strings.TrimSpace(s.WelcomeMessage) != "" {
			return s.WelcomeMessage
		}
	}

	name := ""
	if u != nil {
		name = u.DisplayName()
	} else if c.Sender() != nil {
		name = c.Sender().FirstName
	}
	return T(c, "start.welcome", map[string]any{"Name": name})
}

func premium(u *domain.User) bool {
	return u.HasActivePremium(time.Now())
}

// exempt reports whether the sender skips the subscription gate.
func exempt(c telebot.Context) bool {
	return AdminFrom(c) != nil || premium(UserFrom(c))
}

// gated runs next when the sender passed the subscription gate. Otherwise it
// shows the channels to join with a check button carrying payload. A nil
// next only shows the gate when needed.
func (d Deps) gated(c telebot.Context, payload string, next func() error) error {
	if exempt(c) || d.Gate == nil {
		return run(next)
	}

	result, err := d.Gate.Check(Ctx(c), SenderID(c))
	if err != nil {
		return err
	}
	if result.CanAccess {
		return run(next)
	}

	return d.reply(c, gateText(c, result), gateMarkup(c, result, payload))
}

func run(next func() error) error {
	if next == nil {
		return nil
	}
	return next()
}

func gateText(c telebot.Context, result subscription.Result) string {
	var b strings.Builder
	b.WriteString(T(c, "gate.title", nil))
	for i, ch := range result.Unsubscribed {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i+1) + ". " + ch.ChannelName)
	}
	if len(result.Recommended) > 0 {
		b.WriteString("\n\n" + T(c, "gate.recommended", nil))
		for _, ch := range result.Recommended {
			b.WriteString("\n• " + ch.ChannelName)
		}
	}
	b.WriteString("\n\n" + T(c, "gate.premium_hint", nil))
	return b.String()
}

func gateMarkup(c telebot.Context, result subscription.Result, payload string) *keyboard.Markup {
	kb := keyboard.NewInlineKeyboard()
	for _, ch := range result.Missing() {
		if ch.ChannelLink == "" {
			continue
		}
		kb.AddRow(keyboard.InlineButton{Text: "➕ " + ch.ChannelName, URL: ch.ChannelLink})
	}
	kb.AddRow(keyboard.InlineButton{Text: T(c, "gate.check", nil), Unique: keyboard.CbCheckSubscription, Data: payload})

	markup, err := kb.Build()
	if err != nil {
		return keyboard.NewInlineKeyboard().AddRow(
			keyboard.InlineButton{Text: T(c, "gate.check", nil), Unique: keyboard.CbCheckSubscription},
		).MustBuild()
	}
	return markup
}

// gatePayload is the deep-link payload remembered by the check button.
func gatePayload(kind domain.ContentKind, code int) string {
	if kind == domain.ContentSerial {
		return "s" + strconv.Itoa(code)
	}
	return strconv.Itoa(code)
}

// NewCheckSubscriptionHandler re-runs the gate when the user presses the
// check button and opens the remembered content once it passes.
func NewCheckSubscriptionHandler(d Deps) CallbackHandler {
	return func(c telebot.Context) error {
		_, payload := callbackData(c)
		if exempt(c) || d.Gate == nil {
			d.answer(c, "", false)
			return d.afterGate(c, payload)
		}

		result, err := d.Gate.Check(Ctx(c), SenderID(c))
		if err != nil {
			d.answer(c, "", false)
			return err
		}
		if !result.CanAccess {
			d.answer(c, T(c, "gate.still_missing", nil), true)
			return nil
		}

		d.answer(c, T(c, "gate.passed", nil), false)
		if err := c.Delete(); err != nil {
			d.logger().Debug("failed to delete gate message", "error", err)
		}
		return d.afterGate(c, payload)
	}
}

func (d Deps) afterGate(c telebot.Context, payload string) error {
	kind, code, ok := ParseDeepLink(payload)
	if !ok {
		return d.reply(c, T(c, "gate.passed", nil), keyboard.UserMenu(TranslatorFrom(c), premium(UserFrom(c))))
	}
	// Digits typed in chat may name a serial as well.
	if kind == domain.ContentMovie {
		kind = ""
	}
	return d.deliver(c, kind, code)
}

// NewJoinRequestHandler records join requests to private mandatory channels.
func NewJoinRequestHandler(d Deps) Handler {
	return func(c telebot.Context) error {
		req := c.ChatJoinRequest()
		if req == nil || req.Sender == nil || req.Chat == nil || d.Gate == nil {
			return nil
		}
		return d.Gate.HandleJoinRequest(Ctx(c), req.Sender.ID, strconv.FormatInt(req.Chat.ID, 10))
	}
}
