package workflow

import "github.com/goliatone/go-review/internal/domain"

// Capability packs are the named building blocks the per-role tables are
// composed from. Each builder returns a fresh pack so composed tables never
// share backing storage.

func uploadPack() Pack {
	return NewPack(Creation(domain.StatusInProgress))
}

func reuploadPack() Pack {
	return NewPack(
		NewTransition(domain.StatusContested, domain.StatusInProgress),
		NewTransition(domain.StatusApprovalRejected, domain.StatusInProgress),
	)
}

func contestPack() Pack {
	return NewPack(NewTransition(domain.StatusInProgress, domain.StatusContested))
}

func undoContestPack() Pack {
	return NewPack(NewTransition(domain.StatusContested, domain.StatusInProgress))
}

func requestApprovalPack() Pack {
	return NewPack(NewTransition(domain.StatusInProgress, domain.StatusRequestingApproval))
}

func undoRequestApprovalPack() Pack {
	return NewPack(NewTransition(domain.StatusRequestingApproval, domain.StatusInProgress))
}

func acceptPack() Pack {
	return NewPack(NewTransition(domain.StatusRequestingApproval, domain.StatusAccepted))
}

func rejectPack() Pack {
	return NewPack(NewTransition(domain.StatusRequestingApproval, domain.StatusApprovalRejected))
}

func undoRejectPack() Pack {
	return NewPack(NewTransition(domain.StatusApprovalRejected, domain.StatusRequestingApproval))
}

func acceptRejectedPack() Pack {
	return NewPack(NewTransition(domain.StatusApprovalRejected, domain.StatusContested))
}

func undoAcceptRejectedPack() Pack {
	return NewPack(NewTransition(domain.StatusContested, domain.StatusApprovalRejected))
}

func declineRejectedPack() Pack {
	return NewPack(NewTransition(domain.StatusInspectionRejected, domain.StatusDeclined))
}

func undoDeclineRejectedPack() Pack {
	return NewPack(NewTransition(domain.StatusDeclined, domain.StatusInspectionRejected))
}

func removeByOriginatorPack() Pack {
	return NewPack(
		NewTransition(domain.StatusInProgress, domain.StatusRemoved),
		NewTransition(domain.StatusContested, domain.StatusRemoved),
	)
}

func removeByStaffPack() Pack {
	return NewPack(
		NewTransition(domain.StatusAccepted, domain.StatusRemoved),
		NewTransition(domain.StatusApprovalRejected, domain.StatusRemoved),
	)
}

func openTaskPack() Pack {
	return NewPack(Creation(domain.StatusInProgress))
}

func closeOutPack() Pack {
	return NewPack(
		NewTransition(domain.StatusInProgress, domain.StatusUnderInspection),
		NewTransition(domain.StatusInspectionRejected, domain.StatusUnderInspection),
	)
}

func undoCloseOutPack() Pack {
	return NewPack(NewTransition(domain.StatusUnderInspection, domain.StatusInProgress))
}

func passInspectionPack() Pack {
	return NewPack(NewTransition(domain.StatusUnderInspection, domain.StatusClosed))
}

func failInspectionPack() Pack {
	return NewPack(NewTransition(domain.StatusUnderInspection, domain.StatusInspectionRejected))
}

func undoFailInspectionPack() Pack {
	return NewPack(NewTransition(domain.StatusInspectionRejected, domain.StatusUnderInspection))
}

func openIssuePack() Pack {
	return NewPack(Creation(domain.StatusUnderReview))
}

func acknowledgePack() Pack {
	return NewPack(NewTransition(domain.StatusUnderReview, domain.StatusInProgress))
}

func undoAcknowledgePack() Pack {
	return NewPack(NewTransition(domain.StatusInProgress, domain.StatusUnderReview))
}

func removeClosedPack() Pack {
	return NewPack(NewTransition(domain.StatusClosed, domain.StatusRemoved))
}

func removeStandalonePack() Pack {
	return NewPack(
		NewTransition(domain.StatusDeclined, domain.StatusRemoved),
		NewTransition(domain.StatusInProgress, domain.StatusRemoved),
	)
}

// packBuilders maps configuration pack names to their builders so runtime
// table overrides can be compiled from plain configuration data.
var packBuilders = map[string]func() Pack{
	"upload":                uploadPack,
	"reupload":              reuploadPack,
	"contest":               contestPack,
	"undo_contest":          undoContestPack,
	"request_approval":      requestApprovalPack,
	"undo_request_approval": undoRequestApprovalPack,
	"accept":                acceptPack,
	"reject":                rejectPack,
	"undo_reject":           undoRejectPack,
	"accept_rejected":       acceptRejectedPack,
	"undo_accept_rejected":  undoAcceptRejectedPack,
	"decline_rejected":      declineRejectedPack,
	"undo_decline_rejected": undoDeclineRejectedPack,
	"remove_by_originator":  removeByOriginatorPack,
	"remove_by_staff":       removeByStaffPack,
	"open_task":             openTaskPack,
	"close_out":             closeOutPack,
	"undo_close_out":        undoCloseOutPack,
	"pass_inspection":       passInspectionPack,
	"fail_inspection":       failInspectionPack,
	"undo_fail_inspection":  undoFailInspectionPack,
	"open_issue":            openIssuePack,
	"acknowledge":           acknowledgePack,
	"undo_acknowledge":      undoAcknowledgePack,
	"remove_closed":         removeClosedPack,
	"remove_standalone":     removeStandalonePack,
}
