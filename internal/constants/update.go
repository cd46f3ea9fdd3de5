package constants

type UpdateState string

const (
	UpdateStateIdle       UpdateState = "idle"
	UpdateStateChecking   UpdateState = "checking"
	UpdateStateInstalling UpdateState = "installing"
	UpdateStateRestarting UpdateState = "restarting"
	UpdateStateFailure    UpdateState = "failure"
)
