package service

import (
	"time"

	"github.com/google/uuid"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/nodelist"
)

// UserMode is the workflow a session runs
type UserMode string

// User modes
const (
	ModeAdd       UserMode = "ADD"
	ModeConfigure UserMode = "CONFIGURE"
	ModeDelete    UserMode = "DELETE"
	ModeManage    UserMode = "MANAGE"
)

// ParseUserMode converts a mode name into a UserMode
func ParseUserMode(value string) (UserMode, error) {
	switch m := UserMode(value); m {
	case ModeAdd, ModeConfigure, ModeDelete, ModeManage:
		return m, nil
	}
	return "", common.ErrUndefinedMode
}

// Session is the selection state of one caller. It is owned by the caller
// and is not safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	Mode      UserMode
	Nodes     nodelist.NodeList
	StartedAt time.Time

	// LastChanged is the patch of the most recent apply
	LastChanged *nodelist.SettingsPatch
	// HadLabels tells whether the labels removed by the last apply were
	// present on the selection before it ran.
	HadLabels bool
}
