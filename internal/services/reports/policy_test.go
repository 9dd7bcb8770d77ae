package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xelth-com/sisifo/internal/models"
)

func TestAuthorize(t *testing.T) {
	owner := &models.User{ID: "u-1", Role: models.RoleOfficer, IsActive: true}
	colleague := &models.User{ID: "u-2", Role: models.RoleOfficer, IsActive: true}
	admin := &models.User{ID: "u-3", Role: models.RoleAdmin, IsActive: true}
	disabled := &models.User{ID: "u-1", Role: models.RoleAdmin, IsActive: false}
	report := &models.Report{OwnerID: "u-1"}

	tests := []struct {
		name   string
		actor  *models.User
		op     Operation
		wantOK bool
		forbid bool
	}{
		{"owner creates", owner, OpCreate, true, false},
		{"create on behalf of another", colleague, OpCreate, false, true},
		{"owner closes", owner, OpClose, true, false},
		{"colleague closes", colleague, OpClose, true, false},
		{"owner updates", owner, OpUpdate, true, false},
		{"colleague updates", colleague, OpUpdate, false, true},
		{"admin updates", admin, OpUpdate, true, false},
		{"unknown operation", admin, Operation("delete"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, report, tt.op)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrAuth)
			if tt.forbid {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}

	assert.ErrorIs(t, Authorize(disabled, report, OpClose), ErrAuth)
	assert.NotErrorIs(t, Authorize(disabled, report, OpClose), ErrForbidden)
	assert.ErrorIs(t, Authorize(nil, report, OpClose), ErrAuth)
}
