package state

import (
	"fmt"

	"github.com/Proton-105/kino-bot/internal/domain"
)

// Wizard is the typed data of one wizard kind. Each implementation carries its
// own step enum and accumulated answers.
type Wizard interface {
	State() State
	CurrentStep() int
	SetStep(step int)
}

// Steps is embedded by every wizard to hold its typed step.
type Steps[S ~int] struct {
	Step S `json:"step"`
}

func (s *Steps[S]) CurrentStep() int { return int(s.Step) }

func (s *Steps[S]) SetStep(step int) { s.Step = S(step) }

// FieldOption is a field as listed to the admin during content creation.
type FieldOption struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ChannelID   string `json:"channelId"`
	ChannelLink string `json:"channelLink"`
}

// NewFieldOption converts a stored field.
func NewFieldOption(f domain.Field) FieldOption {
	return FieldOption{ID: f.ID, Name: f.Name, ChannelID: f.ChannelID, ChannelLink: f.ChannelLink}
}

// Link returns the channel link, falling back to @name.
func (f FieldOption) Link() string {
	if f.ChannelLink != "" {
		return f.ChannelLink
	}
	return "@" + f.Name
}

type MovieStep int

const (
	MovieStepCode MovieStep = iota
	MovieStepTitle
	MovieStepGenre
	MovieStepDescription
	MovieStepField
	MovieStepPhoto
	MovieStepVideo
)

type MovieWizard struct {
	Steps[MovieStep]
	Code         int           `json:"code,omitempty"`
	Title        string        `json:"title,omitempty"`
	Genre        string        `json:"genre,omitempty"`
	Description  *string       `json:"description,omitempty"`
	Fields       []FieldOption `json:"fields,omitempty"`
	Field        *FieldOption  `json:"selectedField,omitempty"`
	PosterFileID string        `json:"posterFileId,omitempty"`
}

func (*MovieWizard) State() State { return StateCreatingMovie }

type SerialStep int

const (
	SerialStepCode SerialStep = iota
	SerialStepTitle
	SerialStepGenre
	SerialStepDescription
	SerialStepField
	SerialStepPhoto
	SerialStepUploadingEpisodes
	SerialStepAddingEpisodes
	SerialStepPublish
)

// SerialMode selects which of the two serial entry paths is active.
type SerialMode string

const (
	SerialModeNew         SerialMode = "new"
	SerialModeAddEpisodes SerialMode = "add_episodes"
)

// EpisodeDraft is an uploaded episode not yet persisted.
type EpisodeDraft struct {
	Number      int    `json:"number"`
	VideoFileID string `json:"videoFileId"`
}

// ContentRef points at existing content that receives new episodes.
type ContentRef struct {
	Kind          domain.ContentKind `json:"kind"`
	ID            int64              `json:"id"`
	Code          int                `json:"code"`
	Title         string             `json:"title"`
	TotalEpisodes int                `json:"totalEpisodes"`
}

type SerialWizard struct {
	Steps[SerialStep]
	Mode         SerialMode     `json:"mode"`
	Code         int            `json:"code,omitempty"`
	Title        string         `json:"title,omitempty"`
	Genre        string         `json:"genre,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Fields       []FieldOption  `json:"fields,omitempty"`
	Field        *FieldOption   `json:"selectedField,omitempty"`
	PosterFileID string         `json:"posterFileId,omitempty"`
	Episodes     []EpisodeDraft `json:"episodes,omitempty"`
	Target       *ContentRef    `json:"target,omitempty"`
}

func (*SerialWizard) State() State { return StateCreatingSerial }

// NextEpisodeNumber returns the number the next uploaded video receives.
func (w *SerialWizard) NextEpisodeNumber() int {
	base := 0
	if w.Target != nil {
		base = w.Target.TotalEpisodes
	}
	return base + len(w.Episodes) + 1
}

type AttachVideoStep int

const (
	AttachVideoStepCode AttachVideoStep = iota
	AttachVideoStepVideo
)

type AttachVideoWizard struct {
	Steps[AttachVideoStep]
	MovieID    int64  `json:"movieId,omitempty"`
	MovieCode  int    `json:"movieCode,omitempty"`
	MovieTitle string `json:"movieTitle,omitempty"`
}

func (*AttachVideoWizard) State() State { return StateAttachingVideo }

type FieldStep int

const (
	FieldStepName FieldStep = iota
	FieldStepChannelID
	FieldStepLink
)

type FieldWizard struct {
	Steps[FieldStep]
	Name      string `json:"name,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

func (*FieldWizard) State() State { return StateAddingField }

type DatabaseChannelStep int

const (
	DatabaseChannelStepID DatabaseChannelStep = iota
)

type DatabaseChannelWizard struct {
	Steps[DatabaseChannelStep]
}

func (*DatabaseChannelWizard) State() State { return StateAddDatabaseChannel }

type MandatoryChannelStep int

const (
	MandatoryChannelStepType MandatoryChannelStep = iota
	MandatoryChannelStepLink
	MandatoryChannelStepLimitOrName
	MandatoryChannelStepLimitOrLink
)

type MandatoryChannelWizard struct {
	Steps[MandatoryChannelStep]
	Type              domain.ChannelType `json:"channelType,omitempty"`
	ChannelID         string             `json:"channelId,omitempty"`
	ChannelName       string             `json:"channelName,omitempty"`
	ChannelLink       string             `json:"channelLink,omitempty"`
	AwaitingPrivateID bool               `json:"waitingForPrivateChannelId,omitempty"`
}

func (*MandatoryChannelWizard) State() State { return StateAddMandatoryChannel }

type AdminStep int

const (
	AdminStepTelegramID AdminStep = iota
	AdminStepRole
)

type AdminWizard struct {
	Steps[AdminStep]
	TelegramID int64  `json:"telegramId,omitempty"`
	Username   string `json:"username,omitempty"`
}

func (*AdminWizard) State() State { return StateAddAdmin }

type PricesStep int

const (
	PricesStepMonthly PricesStep = iota
	PricesStepQuarterly
	PricesStepHalfYear
	PricesStepYearly
)

type PricesWizard struct {
	Steps[PricesStep]
	Prices domain.PremiumPrices `json:"prices"`
}

func (*PricesWizard) State() State { return StateEditPremiumPrices }

type CardStep int

const (
	CardStepNumber CardStep = iota
	CardStepHolder
)

type CardWizard struct {
	Steps[CardStep]
	Number string `json:"cardNumber,omitempty"`
}

func (*CardWizard) State() State { return StateEditCardInfo }

type SingleStep int

const SingleStepInput SingleStep = 0

type ContactMessageWizard struct {
	Steps[SingleStep]
}

func (*ContactMessageWizard) State() State { return StateEditContactMessage }

// Audience selects broadcast recipients.
type Audience string

const (
	AudienceAll             Audience = "ALL"
	AudiencePremium         Audience = "PREMIUM"
	AudienceFree            Audience = "FREE"
	AudienceTelegramPremium Audience = "TELEGRAM_PREMIUM"
)

func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudiencePremium, AudienceFree, AudienceTelegramPremium:
		return true
	default:
		return false
	}
}

type BroadcastWizard struct {
	Steps[SingleStep]
	Audience Audience `json:"broadcastType"`
}

func (*BroadcastWizard) State() State { return StateBroadcasting }

type PremiereStep int

const (
	PremiereStepCode PremiereStep = iota
	PremiereStepConfirm
)

type PremiereWizard struct {
	Steps[PremiereStep]
	Audience Audience           `json:"broadcastType"`
	Kind     domain.ContentKind `json:"contentKind,omitempty"`
	Code     int                `json:"code,omitempty"`
}

func (*PremiereWizard) State() State { return StateBroadcastPremiere }

type ChannelSearchWizard struct {
	Steps[SingleStep]
}

func (*ChannelSearchWizard) State() State { return StateSearchChannelByLink }

// PaymentRef is the denormalised payment data carried by payment wizards.
type PaymentRef struct {
	PaymentID int64 `json:"paymentId"`
	UserID    int64 `json:"userId"`
	Amount    int64 `json:"amount"`
}

type ApprovePaymentWizard struct {
	Steps[SingleStep]
	PaymentRef
}

func (*ApprovePaymentWizard) State() State { return StateApprovePayment }

type RejectPaymentWizard struct {
	Steps[SingleStep]
	PaymentRef
	AwaitingCustomReason bool `json:"awaitingCustomReason,omitempty"`
}

func (*RejectPaymentWizard) State() State { return StateRejectPayment }

type ModerationStep int

const (
	ModerationStepLookup ModerationStep = iota
	ModerationStepConfirm
)

// UserTarget identifies the user an admin is moderating.
type UserTarget struct {
	UserID     int64  `json:"userId,omitempty"`
	TelegramID int64  `json:"telegramId,omitempty"`
	Username   string `json:"username,omitempty"`
}

type BlockUserWizard struct {
	Steps[ModerationStep]
	Target UserTarget `json:"target"`
}

func (*BlockUserWizard) State() State { return StateBlockUser }

type UnblockUserWizard struct {
	Steps[ModerationStep]
	Target UserTarget `json:"target"`
}

func (*UnblockUserWizard) State() State { return StateUnblockUser }

type UnbanPremiumWizard struct {
	Steps[ModerationStep]
	Target UserTarget `json:"target"`
}

func (*UnbanPremiumWizard) State() State { return StateUnbanPremiumUser }

type DeleteContentWizard struct {
	Steps[SingleStep]
}

func (*DeleteContentWizard) State() State { return StateDeleteContent }

// ReceiptWizard is the public flow where a user uploads a payment receipt.
type ReceiptWizard struct {
	Steps[SingleStep]
	Months       int   `json:"months"`
	DurationDays int   `json:"duration"`
	Amount       int64 `json:"amount"`
}

func (*ReceiptWizard) State() State { return StateUploadingReceipt }

var wizardFactories = map[State]func() Wizard{
	StateCreatingMovie:       func() Wizard { return &MovieWizard{} },
	StateCreatingSerial:      func() Wizard { return &SerialWizard{} },
	StateAttachingVideo:      func() Wizard { return &AttachVideoWizard{} },
	StateAddingField:         func() Wizard { return &FieldWizard{} },
	StateAddDatabaseChannel:  func() Wizard { return &DatabaseChannelWizard{} },
	StateAddMandatoryChannel: func() Wizard { return &MandatoryChannelWizard{} },
	StateAddAdmin:            func() Wizard { return &AdminWizard{} },
	StateEditPremiumPrices:   func() Wizard { return &PricesWizard{} },
	StateEditCardInfo:        func() Wizard { return &CardWizard{} },
	StateEditContactMessage:  func() Wizard { return &ContactMessageWizard{} },
	StateBroadcasting:        func() Wizard { return &BroadcastWizard{} },
	StateBroadcastPremiere:   func() Wizard { return &PremiereWizard{} },
	StateSearchChannelByLink: func() Wizard { return &ChannelSearchWizard{} },
	StateApprovePayment:      func() Wizard { return &ApprovePaymentWizard{} },
	StateRejectPayment:       func() Wizard { return &RejectPaymentWizard{} },
	StateBlockUser:           func() Wizard { return &BlockUserWizard{} },
	StateUnblockUser:         func() Wizard { return &UnblockUserWizard{} },
	StateUnbanPremiumUser:    func() Wizard { return &UnbanPremiumWizard{} },
	StateDeleteContent:       func() Wizard { return &DeleteContentWizard{} },
	StateUploadingReceipt:    func() Wizard { return &ReceiptWizard{} },
}

// NewWizard returns an empty wizard of the given kind.
func NewWizard(state State) (Wizard, error) {
	factory, ok := wizardFactories[state]
	if !ok {
		return nil, fmt.Errorf("unknown wizard state %q", state)
	}
	return factory(), nil
}

// States lists every known wizard kind.
func States() []State {
	states := make([]State, 0, len(wizardFactories))
	for st := range wizardFactories {
		states = append(states, st)
	}
	return states
}
