package world

// State is everything the simulation depends on. It is a plain value:
// copying it is a snapshot, and Simulate never keeps references into it.
type State struct {
	Frame          int64
	RoundCountdown int16
	Phase          RoundPhase

	P1      Player
	Health1 int16
	Rounds1 int16

	P2      Player
	Health2 int16
	Rounds2 int16

	Projectiles Projectiles
}

// NewState returns the first frame of a match: both players spawned, full
// health and the pre-round countdown running.
func NewState(cfg *Config) State {
	s := State{
		RoundCountdown: PregameCountdown,
		Phase:          Countdown,
	}
	s.P1.ID = 1
	s.P1.Respawn(cfg)
	s.Health1 = cfg.PlayerHealth
	s.P2.ID = 2
	s.P2.Respawn(cfg)
	s.Health2 = cfg.PlayerHealth
	return s
}

// NewDummyState is NewState with player 2 parked in Standby, for offline
// practice against a target that never moves on its own. The dummy leaves
// Standby when the next round respawns it.
func NewDummyState(cfg *Config) State {
	s := NewState(cfg)
	s.P2.Stack.Push(Standby)
	return s
}

// Player returns a copy of player 1 or 2.
func (s *State) Player(id int) Player {
	if id == 2 {
		return s.P2
	}
	return s.P1
}

// Health returns the remaining health of player 1 or 2.
func (s *State) Health(id int) int16 {
	if id == 2 {
		return s.Health2
	}
	return s.Health1
}

func (s *State) player(id uint8) *Player {
	if id == 2 {
		return &s.P2
	}
	return &s.P1
}

func (s *State) opponent(id uint8) *Player {
	if id == 1 {
		return &s.P2
	}
	return &s.P1
}

// hurt applies a hit to the player and books it against their health.
func (s *State) hurt(cfg *Config, id uint8, origin Vec2, force int) {
	p := s.player(id)
	p.damage(cfg, origin, force)
	p.Damaged = true
	if id == 2 {
		s.Health2 = clamp16(s.Health2-1, cfg.PlayerHealth)
	} else {
		s.Health1 = clamp16(s.Health1-1, cfg.PlayerHealth)
	}
}

func (s *State) spawnProjectile(pos, vel Vec2, owner uint8) bool {
	return s.Projectiles.add(Projectile{Pos: pos, Vel: vel, Owner: owner})
}
