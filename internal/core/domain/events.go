package domain

const RoundTopic = "round"

// RoundEvent is the append-only record of a single round state change. Every
// mutating operation of the pool raises exactly one primary event.
type RoundEvent interface {
	IsEvent()
	GetTopic() string
}

func (e RoundOpened) IsEvent()          {}
func (e ContributionRecorded) IsEvent() {}
func (e DrawingStarted) IsEvent()       {}
func (e WinnerDrawn) IsEvent()          {}
func (e RoundCancelled) IsEvent()       {}
func (e PrizeClaimed) IsEvent()         {}
func (e RefundsWithdrawn) IsEvent()     {}

func (e RoundOpened) GetTopic() string          { return RoundTopic }
func (e ContributionRecorded) GetTopic() string { return RoundTopic }
func (e DrawingStarted) GetTopic() string       { return RoundTopic }
func (e WinnerDrawn) GetTopic() string          { return RoundTopic }
func (e RoundCancelled) GetTopic() string       { return RoundTopic }
func (e PrizeClaimed) GetTopic() string         { return RoundTopic }
func (e RefundsWithdrawn) GetTopic() string     { return RoundTopic }
