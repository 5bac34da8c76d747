package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-review/internal/domain"
	"github.com/goliatone/go-review/internal/runtimeconfig"
)

var (
	// ErrTableKindRequired indicates a table configuration lacks an entity kind.
	ErrTableKindRequired = errors.New("workflow: table entity kind required")
	// ErrTableKindUnknown indicates the configured kind is not registered.
	ErrTableKindUnknown = errors.New("workflow: table entity kind unknown")
	// ErrDuplicateTableKind indicates multiple tables target the same kind.
	ErrDuplicateTableKind = errors.New("workflow: duplicate table for entity kind")
	// ErrTableRoleUnknown indicates a role name outside the registered set.
	ErrTableRoleUnknown = errors.New("workflow: table role unknown")
	// ErrDuplicateTableRole indicates the same role is configured twice for a kind.
	ErrDuplicateTableRole = errors.New("workflow: duplicate role for entity kind")
	// ErrPackUnknown indicates a capability pack name with no builder.
	ErrPackUnknown = errors.New("workflow: capability pack unknown")
	// ErrTableStatusUnknown indicates a bulk transition references a status
	// outside the kind's status set.
	ErrTableStatusUnknown = errors.New("workflow: transition references unknown status")
)

// CompileTableConfigs converts configuration-driven table declarations into
// runtime tables keyed by entity kind. Kinds absent from the configuration
// keep their built-in defaults.
func CompileTableConfigs(configs []runtimeconfig.ReviewTableConfig) (map[domain.Kind]Tables, error) {
	compiled := make(map[domain.Kind]Tables, len(DefaultTables()))
	for kind, tables := range DefaultTables() {
		compiled[kind] = tables
	}
	if len(configs) == 0 {
		return compiled, nil
	}

	seen := make(map[domain.Kind]struct{}, len(configs))
	for _, cfg := range configs {
		kind, tables, err := compileTableConfig(cfg)
		if err != nil {
			return nil, err
		}
		if _, exists := seen[kind]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTableKind, kind)
		}
		seen[kind] = struct{}{}
		compiled[kind] = tables
	}

	return compiled, nil
}

func compileTableConfig(cfg runtimeconfig.ReviewTableConfig) (domain.Kind, Tables, error) {
	raw := strings.TrimSpace(cfg.Kind)
	if raw == "" {
		return "", Tables{}, ErrTableKindRequired
	}
	kind := domain.NormalizeKind(raw)
	if !kind.Valid() {
		return "", Tables{}, fmt.Errorf("%w: %s", ErrTableKindUnknown, raw)
	}

	tables := Tables{
		Allowed:   make(map[domain.Role]Pack, len(cfg.Roles)),
		Confirmed: make(map[domain.Role]Pack, len(cfg.Roles)),
		Bulk:      make(map[domain.Role]Pack, len(cfg.Roles)),
	}
	seen := make(map[domain.Role]struct{}, len(cfg.Roles))

	for _, roleCfg := range cfg.Roles {
		role := domain.NormalizeRole(roleCfg.Role)
		if !role.Valid() {
			return "", Tables{}, fmt.Errorf("%w: %s", ErrTableRoleUnknown, roleCfg.Role)
		}
		if _, exists := seen[role]; exists {
			return "", Tables{}, fmt.Errorf("%w: %s/%s", ErrDuplicateTableRole, kind, role)
		}
		seen[role] = struct{}{}

		allowed, err := compilePackNames(roleCfg.Allowed)
		if err != nil {
			return "", Tables{}, err
		}
		confirmed, err := compilePackNames(roleCfg.Confirmed)
		if err != nil {
			return "", Tables{}, err
		}
		bulk, err := compileBulkTransitions(kind, roleCfg.Bulk)
		if err != nil {
			return "", Tables{}, err
		}

		tables.Allowed[role] = allowed
		tables.Confirmed[role] = confirmed
		tables.Bulk[role] = bulk
	}

	return kind, tables, nil
}

func compilePackNames(names []string) (Pack, error) {
	pack := Pack{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		builder, ok := packBuilders[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPackUnknown, name)
		}
		pack = pack.Union(builder())
	}
	return pack, nil
}

func compileBulkTransitions(kind domain.Kind, configs []runtimeconfig.ReviewTransitionConfig) (Pack, error) {
	pack := Pack{}
	for _, cfg := range configs {
		from := domain.NormalizeStatus(cfg.From)
		to := domain.NormalizeStatus(cfg.To)
		if !from.ValidFor(kind) {
			return nil, fmt.Errorf("%w: %s/%s", ErrTableStatusUnknown, kind, cfg.From)
		}
		if !to.ValidFor(kind) {
			return nil, fmt.Errorf("%w: %s/%s", ErrTableStatusUnknown, kind, cfg.To)
		}
		pack = append(pack, NewTransition(from, to))
	}
	return pack, nil
}
