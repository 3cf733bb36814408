package world

type RoundPhase uint8

const (
	Countdown RoundPhase = iota
	Play
	End
)

func (p RoundPhase) String() string {
	switch p {
	case Countdown:
		return "Countdown"
	case Play:
		return "Play"
	case End:
		return "End"
	}
	return "RoundPhase(?)"
}

// Phase lengths in frames.
const (
	PregameCountdown  = 180
	RoundTimer        = 5999
	RoundEndCountdown = 180
)

// endRound closes a round in Play once time runs out or someone is knocked
// out. Only a strictly higher health wins the round.
func (s *State) endRound() {
	if s.RoundCountdown > 0 && s.Health1 > 0 && s.Health2 > 0 {
		return
	}
	switch {
	case s.Health1 > s.Health2:
		s.Rounds1++
	case s.Health2 > s.Health1:
		s.Rounds2++
	}
	s.Phase = End
	s.RoundCountdown = RoundEndCountdown
}

func (s *State) matchDecided(cfg *Config) bool {
	return s.Rounds1 >= cfg.RoundsToWin || s.Rounds2 >= cfg.RoundsToWin
}

func (s *State) nextRound(cfg *Config) {
	s.RoundCountdown = PregameCountdown
	s.Phase = Countdown
	s.P1.Respawn(cfg)
	s.Health1 = cfg.PlayerHealth
	s.P2.Respawn(cfg)
	s.Health2 = cfg.PlayerHealth
	s.Projectiles.Clear()
}

// IsMatchOver reports whether the final End phase has run out and a player
// has won enough rounds. From then on Simulate only advances the frame.
func IsMatchOver(s *State, cfg *Config) bool {
	return s.Phase == End && s.RoundCountdown <= 0 && s.matchDecided(cfg)
}

// Winner returns 1 or 2 once the match is over, and 0 before that.
func Winner(s *State, cfg *Config) int {
	if !IsMatchOver(s, cfg) {
		return 0
	}
	if s.Rounds1 >= cfg.RoundsToWin {
		return 1
	}
	return 2
}
