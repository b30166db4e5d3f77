package state

// stepCounts holds the number of steps of each wizard. Steps are numbered
// from zero.
var stepCounts = map[State]int{
	StateCreatingMovie:       int(MovieStepVideo) + 1,
	StateCreatingSerial:      int(SerialStepPublish) + 1,
	StateAttachingVideo:      int(AttachVideoStepVideo) + 1,
	StateAddingField:         int(FieldStepLink) + 1,
	StateAddDatabaseChannel:  1,
	StateAddMandatoryChannel: int(MandatoryChannelStepLimitOrLink) + 1,
	StateAddAdmin:            int(AdminStepRole) + 1,
	StateEditPremiumPrices:   int(PricesStepYearly) + 1,
	StateEditCardInfo:        int(CardStepHolder) + 1,
	StateEditContactMessage:  1,
	StateBroadcasting:        1,
	StateBroadcastPremiere:   int(PremiereStepConfirm) + 1,
	StateSearchChannelByLink: 1,
	StateApprovePayment:      1,
	StateRejectPayment:       1,
	StateBlockUser:           int(ModerationStepConfirm) + 1,
	StateUnblockUser:         int(ModerationStepConfirm) + 1,
	StateUnbanPremiumUser:    int(ModerationStepConfirm) + 1,
	StateDeleteContent:       1,
	StateUploadingReceipt:    1,
}

// IsStepAllowed reports whether step exists in the wizard of state.
func IsStepAllowed(state State, step int) bool {
	count, ok := stepCounts[state]
	if !ok {
		return false
	}

	return step >= 0 && step < count
}
