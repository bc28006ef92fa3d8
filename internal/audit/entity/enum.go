package entity

// Action classifies an audit event.
type Action string

const (
	ActionLogin        Action = "LOGIN"
	ActionLogout       Action = "LOGOUT"
	ActionOTPRequested Action = "OTP_REQUESTED"
	ActionOTPVerified  Action = "OTP_VERIFIED"
	ActionOTPFailed    Action = "OTP_FAILED"
	ActionOTPLocked    Action = "OTP_LOCKED"
	ActionUserCreate   Action = "USER_CREATE"
	ActionUserUpdate   Action = "USER_UPDATE"
)

func (a Action) String() string {
	return string(a)
}

// ParseAction returns the Action for s, or false when s is not a known action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionLogin, ActionLogout,
		ActionOTPRequested, ActionOTPVerified, ActionOTPFailed, ActionOTPLocked,
		ActionUserCreate, ActionUserUpdate:
		return Action(s), true
	}

	return "", false
}
