// Package wizard drives the multi-step admin and user flows on top of the
// session state machine.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Proton-105/kino-bot/internal/bot/keyboard"
	"github.com/Proton-105/kino-bot/internal/domain"
	apperrors "github.com/Proton-105/kino-bot/internal/errors"
	"github.com/Proton-105/kino-bot/internal/i18n"
	"github.com/Proton-105/kino-bot/internal/state"
)

const (
	cancelCommand = "/cancel"
	msgCancelled  = "❌ Bekor qilindi."
)

// Input is one incoming message routed to a wizard.
type Input struct {
	OwnerID   int64
	MessageID int
	Text      string
	PhotoID   string
	VideoID   string
	Caption   string
}

// Callback is one inline button press routed to a wizard.
type Callback struct {
	OwnerID   int64
	MessageID int
	Unique    string
	Data      string
}

// Outcome tells the dispatcher what to do with the session after a step.
type Outcome int

const (
	// Stay leaves the stored session untouched.
	Stay Outcome = iota
	// Save persists the mutated wizard.
	Save
	// Finish clears the session.
	Finish
)

// Flow handles the steps of one wizard kind.
type Flow interface {
	// Begin sends the first prompt. An error aborts the wizard.
	Begin(ctx context.Context, fc *FlowContext) error
	Handle(ctx context.Context, fc *FlowContext) (Outcome, error)
}

// CallbackFlow is implemented by flows that complete through inline buttons.
type CallbackFlow interface {
	Callback(ctx context.Context, fc *FlowContext, cb Callback) (Outcome, error)
}

// FlowContext is the per-update view a flow works with.
type FlowContext struct {
	Session *state.Session
	Input   Input
	Admin   *domain.Admin
	T       i18n.Translator

	d *Dispatcher
}

// Deps exposes the collaborators to flows.
func (fc *FlowContext) Deps() Deps { return fc.d.deps }

// Messenger exposes the Telegram API to flows.
func (fc *FlowContext) Messenger() Messenger { return fc.d.msg }

// Owner is the chat of the session owner.
func (fc *FlowContext) Owner() Chat { return UserChat(fc.Session.OwnerID) }

// Reply sends text to the session owner.
func (fc *FlowContext) Reply(ctx context.Context, text string, markup *keyboard.Markup) error {
	_, err := fc.d.msg.Send(ctx, fc.Owner(), text, markup)
	return err
}

// Menu is the keyboard shown when a wizard ends.
func (fc *FlowContext) Menu() *keyboard.Markup {
	if fc.Admin != nil {
		return keyboard.AdminMenu(fc.Admin)
	}
	return keyboard.UserMenu(fc.T, false)
}

// Done replies with text and the closing menu, then finishes the wizard.
func (fc *FlowContext) Done(ctx context.Context, text string) (Outcome, error) {
	if err := fc.Reply(ctx, text, fc.Menu()); err != nil {
		return Finish, err
	}
	return Finish, nil
}

// Next moves the wizard to step and prompts the owner.
func (fc *FlowContext) Next(ctx context.Context, step int, prompt string, markup *keyboard.Markup) (Outcome, error) {
	fc.Session.Wizard.SetStep(step)
	if markup == nil {
		markup = keyboard.Cancel()
	}
	if err := fc.Reply(ctx, prompt, markup); err != nil {
		return Stay, err
	}
	return Save, nil
}

// Dispatcher routes messages of owners with an active session to the flow
// of their wizard.
type Dispatcher struct {
	machine *state.Machine
	msg     Messenger
	deps    Deps
	flows   map[state.State]Flow
	errs    *apperrors.Handler
	log     *slog.Logger
}

func NewDispatcher(machine *state.Machine, msg Messenger, deps Deps, errs *apperrors.Handler, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if errs == nil {
		errs = apperrors.NewHandler(log, false)
	}

	return &Dispatcher{
		machine: machine,
		msg:     msg,
		deps:    deps,
		errs:    errs,
		log:     log,
		flows: map[state.State]Flow{
			state.StateCreatingMovie:       movieFlow{},
			state.StateCreatingSerial:      serialFlow{},
			state.StateAttachingVideo:      attachVideoFlow{},
			state.StateAddingField:         fieldFlow{},
			state.StateAddDatabaseChannel:  databaseChannelFlow{},
			state.StateAddMandatoryChannel: mandatoryChannelFlow{},
			state.StateSearchChannelByLink: channelSearchFlow{},
			state.StateAddAdmin:            adminFlow{},
			state.StateEditPremiumPrices:   pricesFlow{},
			state.StateEditCardInfo:        cardFlow{},
			state.StateEditContactMessage:  contactMessageFlow{},
			state.StateBroadcasting:        broadcastFlow{},
			state.StateBroadcastPremiere:   premiereFlow{},
			state.StateApprovePayment:      approvePaymentFlow{},
			state.StateRejectPayment:       rejectPaymentFlow{},
			state.StateBlockUser:           blockUserFlow{},
			state.StateUnblockUser:         unblockUserFlow{},
			state.StateUnbanPremiumUser:    unbanPremiumFlow{},
			state.StateDeleteContent:       deleteContentFlow{},
			state.StateUploadingReceipt:    receiptFlow{},
		},
	}
}

// IsCancel reports whether text asks to abort the current wizard.
func IsCancel(text string) bool {
	text = strings.TrimSpace(text)
	return text == keyboard.BtnCancel || text == cancelCommand
}

// Active returns the session of ownerID or nil when the owner is idle.
func (d *Dispatcher) Active(ctx context.Context, ownerID int64) (*state.Session, error) {
	session, err := d.machine.Get(ctx, ownerID)
	if errors.Is(err, state.ErrSessionNotFound) {
		return nil, nil
	}
	return session, err
}

// Begin starts wizard for ownerID and sends its first prompt. Fields set on
// wizard before the call survive the start.
func (d *Dispatcher) Begin(ctx context.Context, ownerID int64, admin *domain.Admin, t i18n.Translator, wizard state.Wizard) error {
	flow, ok := d.flows[wizard.State()]
	if !ok {
		return fmt.Errorf("begin wizard: no flow for state %q", wizard.State())
	}

	session, err := d.machine.Start(ctx, ownerID, wizard)
	if err != nil {
		return fmt.Errorf("begin wizard: %w", err)
	}

	fc := &FlowContext{Session: session, Input: Input{OwnerID: ownerID}, Admin: admin, T: t, d: d}
	if err := flow.Begin(ctx, fc); err != nil {
		if clearErr := d.machine.Clear(ctx, ownerID); clearErr != nil {
			d.log.Warn("failed to clear aborted session", "owner_id", ownerID, "error", clearErr)
		}
		d.reportFailure(ctx, fc, err)
		return nil
	}

	return d.machine.Save(ctx, session)
}

// Handle routes in to the owner's active wizard. It reports false when the
// owner has no session and the input should reach the regular handlers.
func (d *Dispatcher) Handle(ctx context.Context, in Input, admin *domain.Admin, t i18n.Translator) (bool, error) {
	session, err := d.Active(ctx, in.OwnerID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}

	if IsCancel(in.Text) {
		return true, d.cancel(ctx, in.OwnerID, admin, t)
	}

	if session == nil {
		return false, nil
	}

	flow, ok := d.flows[session.State()]
	if !ok {
		d.log.Warn("session without flow", "owner_id", in.OwnerID, "state", session.State())
		return true, d.machine.Clear(ctx, in.OwnerID)
	}

	fc := &FlowContext{Session: session, Input: in, Admin: admin, T: t, d: d}
	outcome, err := flow.Handle(ctx, fc)
	return true, d.settle(ctx, fc, outcome, err)
}

// HandleCallback routes an inline button press to the owner's wizard. It
// reports false when no wizard is waiting for this button.
func (d *Dispatcher) HandleCallback(ctx context.Context, cb Callback, admin *domain.Admin, t i18n.Translator) (bool, error) {
	if cb.Unique == keyboard.CbCancelAction {
		if err := d.machine.Clear(ctx, cb.OwnerID); err != nil {
			return true, err
		}
		_, err := d.msg.Send(ctx, UserChat(cb.OwnerID), msgCancelled, closingMenu(admin, t))
		return true, err
	}

	session, err := d.Active(ctx, cb.OwnerID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return false, nil
	}

	flow, ok := d.flows[session.State()].(CallbackFlow)
	if !ok {
		return false, nil
	}

	fc := &FlowContext{Session: session, Input: Input{OwnerID: cb.OwnerID, MessageID: cb.MessageID}, Admin: admin, T: t, d: d}
	outcome, err := flow.Callback(ctx, fc, cb)
	return true, d.settle(ctx, fc, outcome, err)
}

func (d *Dispatcher) cancel(ctx context.Context, ownerID int64, admin *domain.Admin, t i18n.Translator) error {
	if err := d.machine.Clear(ctx, ownerID); err != nil {
		return err
	}
	_, err := d.msg.Send(ctx, UserChat(ownerID), msgCancelled, closingMenu(admin, t))
	return err
}

// settle applies the outcome of a step. Validation and not-found errors keep
// the session where it was; anything else ends the wizard.
func (d *Dispatcher) settle(ctx context.Context, fc *FlowContext, outcome Outcome, err error) error {
	ownerID := fc.Session.OwnerID

	switch {
	case err == nil:
	case apperrors.IsValidation(err), apperrors.IsNotFound(err):
		if replyErr := fc.Reply(ctx, apperrors.UserMessage(err), nil); replyErr != nil {
			return replyErr
		}
		if outcome == Finish {
			return d.machine.Clear(ctx, ownerID)
		}
		return nil
	default:
		if clearErr := d.machine.Clear(ctx, ownerID); clearErr != nil {
			d.log.Warn("failed to clear failed session", "owner_id", ownerID, "error", clearErr)
		}
		d.reportFailure(ctx, fc, err)
		return nil
	}

	switch outcome {
	case Save:
		return d.machine.Save(ctx, fc.Session)
	case Finish:
		return d.machine.Clear(ctx, ownerID)
	default:
		return nil
	}
}

func (d *Dispatcher) reportFailure(ctx context.Context, fc *FlowContext, err error) {
	message, _ := d.errs.Handle(ctx, fmt.Errorf("wizard %s: %w", fc.Session.State(), err))
	if replyErr := fc.Reply(ctx, message, fc.Menu()); replyErr != nil {
		d.log.Warn("failed to report wizard failure", "owner_id", fc.Session.OwnerID, "error", replyErr)
	}
}

func closingMenu(admin *domain.Admin, t i18n.Translator) *keyboard.Markup {
	if admin != nil {
		return keyboard.AdminMenu(admin)
	}
	return keyboard.UserMenu(t, false)
}
