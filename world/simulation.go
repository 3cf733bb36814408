package world

// Simulate advances s by one frame. It is pure: the result only depends on
// its arguments, and s itself is not modified.
func Simulate(s State, cfg *Config, in InputData) State {
	s.Frame++
	if s.RoundCountdown > 0 {
		s.RoundCountdown--
	}

	switch s.Phase {
	case Countdown:
		if s.RoundCountdown <= 0 {
			s.RoundCountdown = RoundTimer
			s.Phase = Play
		}
	case Play:
		s.play(cfg, in)
		s.endRound()
	case End:
		if s.RoundCountdown <= 0 {
			if !s.matchDecided(cfg) {
				s.nextRound(cfg)
			}
			break
		}
		// Players settle at half speed with no control.
		if s.RoundCountdown%2 == 1 {
			s.play(cfg, NeutralInputData())
		}
	}
	return s
}

func (s *State) play(cfg *Config, in InputData) {
	s.P1.Damaged = false
	s.P2.Damaged = false

	s.P1.move(cfg, in.P1)
	s.P1.tick(cfg)
	s.P2.move(cfg, in.P2)
	s.P2.tick(cfg)

	s.resolveProjectiles(cfg)
	s.resolveDashes(cfg)

	if s.P1.Stack.Top() == Charging && s.P1.ChargeCount >= cfg.ChargeDuration {
		s.P1.Stack.Pop()
		s.altShot(cfg, 1)
	}
	if s.P2.Stack.Top() == Charging && s.P2.ChargeCount >= cfg.ChargeDuration {
		s.P2.Stack.Pop()
		s.altShot(cfg, 2)
	}

	s.P1.Stunned = s.P1.Stunned || s.P1.Damaged
	s.P2.Stunned = s.P2.Stunned || s.P2.Damaged

	s.P1.act(s, cfg, s.P1.intent(cfg, in.P1))
	s.P2.act(s, cfg, s.P2.intent(cfg, in.P2))
}

// intent filters a player's attack for stun. A stunned player can only dash
// out of it, and that dash is used up by the breakout.
func (p *Player) intent(cfg *Config, in PlayerInput) PlayerInput {
	if p.Stunned {
		p.breakStun(cfg, in)
		in.Attack = AttackNone
	}
	return in
}
