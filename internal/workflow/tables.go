package workflow

import "github.com/goliatone/go-review/internal/domain"

// Tables holds the three independent per-role transition mappings for one
// entity kind. Allowed governs single-item updates, Bulk governs the
// multi-item endpoint, and Confirmed marks the ratified subset used only for
// confirmation bookkeeping, never for validity.
type Tables struct {
	Allowed   map[domain.Role]Pack
	Confirmed map[domain.Role]Pack
	Bulk      map[domain.Role]Pack
}

// AllowedFor returns the role's allowed pack, empty when the role has none.
func (t Tables) AllowedFor(role domain.Role) Pack {
	return t.Allowed[role]
}

// ConfirmedFor returns the role's confirmed pack, empty when the role has none.
func (t Tables) ConfirmedFor(role domain.Role) Pack {
	return t.Confirmed[role]
}

// BulkFor returns the role's bulk pack, empty when the role has none.
func (t Tables) BulkFor(role domain.Role) Pack {
	return t.Bulk[role]
}

// ConfirmedUnion returns the role-independent union of every ratifying
// transition for the entity kind.
func (t Tables) ConfirmedUnion() Pack {
	union := Pack{}
	for _, role := range domain.Roles() {
		if pack, ok := t.Confirmed[role]; ok {
			union = union.Union(pack)
		}
	}
	return union
}

var (
	defaultTables        = buildDefaultTables()
	standaloneTaskTables = buildStandaloneTaskTables()
)

// DefaultTables returns the static per-kind table configuration. The result
// shares the precomputed immutable packs; callers must not mutate it.
func DefaultTables() map[domain.Kind]Tables {
	return defaultTables
}

// TablesFor resolves the table set for a kind. For tasks, standalone selects
// the widened variant that permits direct staff removal when no issue is
// linked; the variants are precomputed and never mutated.
func TablesFor(kind domain.Kind, standalone bool) (Tables, bool) {
	if kind == domain.KindTask && standalone {
		return standaloneTaskTables, true
	}
	tables, ok := defaultTables[kind]
	return tables, ok
}

func buildDefaultTables() map[domain.Kind]Tables {
	return map[domain.Kind]Tables{
		domain.KindDocument: documentTables(domain.RoleClient),
		domain.KindDrawing:  documentTables(domain.RoleConsultant),
		domain.KindTask:     taskTables(false),
		domain.KindIssue:    issueTables(),
	}
}

func buildStandaloneTaskTables() Tables {
	return taskTables(true)
}

// documentTables assembles the shared document-media composition. The two
// media kinds differ only in which role holds final sign-off: the client for
// documents, the consultant for drawings.
func documentTables(signOff domain.Role) Tables {
	originatorAllowed := func() Pack {
		return uploadPack().Union(reuploadPack(), removeByOriginatorPack())
	}
	staffAllowed := func() Pack {
		return contestPack().Union(
			undoContestPack(),
			requestApprovalPack(),
			undoRequestApprovalPack(),
			acceptRejectedPack(),
			undoAcceptRejectedPack(),
			removeByStaffPack(),
		)
	}
	signOffAllowed := acceptPack().Union(rejectPack(), undoRejectPack())

	allowed := map[domain.Role]Pack{
		domain.RoleSubcontractor: originatorAllowed(),
		domain.RoleManager:       staffAllowed(),
		domain.RoleAdmin:         staffAllowed(),
		domain.RoleCompanyAdmin:  staffAllowed(),
		signOff:                  signOffAllowed,
	}
	if signOff != domain.RoleConsultant {
		allowed[domain.RoleConsultant] = originatorAllowed()
	}

	confirmed := map[domain.Role]Pack{
		domain.RoleSubcontractor: uploadPack().Union(reuploadPack()),
		domain.RoleManager:       contestPack().Union(acceptRejectedPack()),
		domain.RoleAdmin:         contestPack().Union(acceptRejectedPack()),
		domain.RoleCompanyAdmin:  contestPack().Union(acceptRejectedPack()),
		signOff:                  acceptPack().Union(rejectPack()),
	}
	if signOff != domain.RoleConsultant {
		confirmed[domain.RoleConsultant] = uploadPack().Union(reuploadPack())
	}

	originatorBulk := func() Pack {
		return NewPack(
			NewTransition(domain.StatusInProgress, domain.StatusRemoved),
			NewTransition(domain.StatusContested, domain.StatusRemoved),
		)
	}
	staffBulk := NewPack(
		NewTransition(domain.StatusInProgress, domain.StatusRequestingApproval),
		NewTransition(domain.StatusInProgress, domain.StatusContested),
	)
	signOffBulk := NewPack(
		NewTransition(domain.StatusRequestingApproval, domain.StatusAccepted),
		NewTransition(domain.StatusRequestingApproval, domain.StatusApprovalRejected),
	)

	bulk := map[domain.Role]Pack{
		domain.RoleSubcontractor: originatorBulk(),
		domain.RoleManager:       staffBulk,
		domain.RoleAdmin:         staffBulk,
		domain.RoleCompanyAdmin:  NewPack(NewTransition(domain.StatusAccepted, domain.StatusRemoved)),
		signOff:                  signOffBulk,
	}
	if signOff != domain.RoleConsultant {
		bulk[domain.RoleConsultant] = originatorBulk()
	}

	return Tables{Allowed: allowed, Confirmed: confirmed, Bulk: bulk}
}

func taskTables(standalone bool) Tables {
	staffAllowed := func() Pack {
		pack := openTaskPack().Union(
			passInspectionPack(),
			failInspectionPack(),
			undoFailInspectionPack(),
			declineRejectedPack(),
			undoDeclineRejectedPack(),
		)
		if standalone {
			pack = pack.Union(removeStandalonePack())
		}
		return pack
	}

	allowed := map[domain.Role]Pack{
		domain.RoleSubcontractor: closeOutPack().Union(undoCloseOutPack()),
		domain.RoleManager:       staffAllowed(),
		domain.RoleAdmin:         staffAllowed(),
		domain.RoleCompanyAdmin:  staffAllowed(),
	}

	staffConfirmed := func() Pack {
		return openTaskPack().Union(passInspectionPack(), failInspectionPack(), declineRejectedPack())
	}
	confirmed := map[domain.Role]Pack{
		domain.RoleSubcontractor: closeOutPack(),
		domain.RoleManager:       staffConfirmed(),
		domain.RoleAdmin:         staffConfirmed(),
		domain.RoleCompanyAdmin:  staffConfirmed(),
	}

	staffBulk := NewPack(
		NewTransition(domain.StatusUnderInspection, domain.StatusClosed),
		NewTransition(domain.StatusUnderInspection, domain.StatusInspectionRejected),
	)
	bulk := map[domain.Role]Pack{
		domain.RoleSubcontractor: NewPack(NewTransition(domain.StatusInProgress, domain.StatusUnderInspection)),
		domain.RoleManager:       staffBulk,
		domain.RoleAdmin:         staffBulk,
		domain.RoleCompanyAdmin:  NewPack(NewTransition(domain.StatusClosed, domain.StatusRemoved)),
	}

	return Tables{Allowed: allowed, Confirmed: confirmed, Bulk: bulk}
}

func issueTables() Tables {
	reviewerAllowed := func() Pack {
		return openIssuePack().Union(
			passInspectionPack(),
			failInspectionPack(),
			undoFailInspectionPack(),
		)
	}
	staffAllowed := func() Pack {
		return acknowledgePack().Union(
			undoAcknowledgePack(),
			closeOutPack(),
			undoCloseOutPack(),
			removeClosedPack(),
		)
	}

	allowed := map[domain.Role]Pack{
		domain.RoleClient:       reviewerAllowed(),
		domain.RoleConsultant:   reviewerAllowed(),
		domain.RoleManager:      staffAllowed(),
		domain.RoleAdmin:        staffAllowed(),
		domain.RoleCompanyAdmin: staffAllowed(),
	}

	reviewerConfirmed := func() Pack {
		return openIssuePack().Union(passInspectionPack(), failInspectionPack())
	}
	confirmed := map[domain.Role]Pack{
		domain.RoleClient:       reviewerConfirmed(),
		domain.RoleConsultant:   reviewerConfirmed(),
		domain.RoleManager:      acknowledgePack(),
		domain.RoleAdmin:        acknowledgePack(),
		domain.RoleCompanyAdmin: acknowledgePack(),
	}

	reviewerBulk := NewPack(NewTransition(domain.StatusUnderInspection, domain.StatusClosed))
	bulk := map[domain.Role]Pack{
		domain.RoleClient:       reviewerBulk,
		domain.RoleConsultant:   reviewerBulk,
		domain.RoleCompanyAdmin: NewPack(NewTransition(domain.StatusClosed, domain.StatusRemoved)),
	}

	return Tables{Allowed: allowed, Confirmed: confirmed, Bulk: bulk}
}
