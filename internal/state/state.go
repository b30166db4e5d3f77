package state

import "time"

// State names the wizard an owner is currently walking through.
type State string

const (
	StateCreatingMovie       State = "creating_movie"
	StateCreatingSerial      State = "creating_serial"
	StateAttachingVideo      State = "attaching_video"
	StateAddingField         State = "adding_field"
	StateAddDatabaseChannel  State = "add_database_channel"
	StateAddMandatoryChannel State = "add_mandatory_channel"
	StateAddAdmin            State = "add_admin"
	StateEditPremiumPrices   State = "edit_premium_prices"
	StateEditCardInfo        State = "edit_card_info"
	StateEditContactMessage  State = "edit_contact_message"
	StateBroadcasting        State = "broadcasting"
	StateBroadcastPremiere   State = "broadcast_premiere"
	StateSearchChannelByLink State = "search_channel_by_link"
	StateApprovePayment      State = "approve_payment"
	StateRejectPayment       State = "reject_payment"
	StateBlockUser           State = "block_user"
	StateUnblockUser         State = "unblock_user"
	StateUnbanPremiumUser    State = "unban_premium_user"
	StateDeleteContent       State = "delete_content"
	StateUploadingReceipt    State = "uploading_receipt"
)

// Session is the in-flight wizard of one owner. A session exists exactly
// while its owner is mid-wizard.
type Session struct {
	OwnerID   int64
	Wizard    Wizard
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the wizard kind of the session.
func (s *Session) State() State {
	if s == nil || s.Wizard == nil {
		return ""
	}
	return s.Wizard.State()
}

// Step returns the wizard's current step as an integer.
func (s *Session) Step() int {
	if s == nil || s.Wizard == nil {
		return 0
	}
	return s.Wizard.CurrentStep()
}
