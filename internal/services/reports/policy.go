package reports

import (
	"github.com/xelth-com/sisifo/internal/models"
)

// Operation names a mutation guarded by Authorize
type Operation string

const (
	OpCreate Operation = "create"
	OpClose  Operation = "close"
	OpUpdate Operation = "update"
)

// Authorize is the single place deciding who may mutate a parte.
//
//   - create: any active user, and only on their own behalf
//   - close:  any active user (permissive; the field app lets a relief
//     officer close a colleague's parte)
//   - update: the owner or an admin
func Authorize(actor *models.User, report *models.Report, op Operation) error {
	if actor == nil || !actor.IsActive {
		return ErrAuth
	}

	switch op {
	case OpCreate:
		if report.OwnerID != actor.ID {
			return ErrForbidden
		}
		return nil
	case OpClose:
		return nil
	case OpUpdate:
		if report.OwnerID == actor.ID || actor.Role == models.RoleAdmin {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}
