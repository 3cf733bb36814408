package world

import "rbst/fixed"

type Player struct {
	ID    uint8
	Stack Stack

	Pos Vec2
	Vel Vec2
	Dir Vec2

	Ammo        int16
	Stamina     int16
	ChargeCount int16

	// PerfectPos is where the current dash started. Evades and parries are
	// measured from it instead of the dasher's current position.
	PerfectPos   Vec2
	DashVel      Vec2
	DashCount    int16
	HitstopCount int16

	Stunned bool
	Damaged bool
}

// Force tiers used when a hit lands.
const (
	ForceWeak   = 1
	ForceMid    = 2
	ForceStrong = 3
)

// Respawn puts p back at its side of the arena, facing the centre, with full
// resources and a clean stack.
func (p *Player) Respawn(cfg *Config) {
	switch p.ID {
	case 1:
		p.Pos = Left().Scale(cfg.SpawnRadius)
		p.Dir = Right()
	case 2:
		p.Pos = Right().Scale(cfg.SpawnRadius)
		p.Dir = Left()
	}
	p.Vel = Vec2{}
	p.Ammo = cfg.AmmoMax
	p.Stamina = cfg.StaminaMax
	p.ChargeCount = 0
	p.PerfectPos = Vec2{}
	p.DashVel = Vec2{}
	p.DashCount = 0
	p.HitstopCount = 0
	p.Stunned = false
	p.Damaged = false
	p.Stack.Reset(Default)
}

// turn maps a numpad move onto v, treating v as forward.
func turn(v Vec2, m MoveInput) Vec2 {
	switch m {
	case MoveForLeft:
		return v.Rotate(fixed.QuarterPi)
	case MoveLeft:
		return v.Rotate(fixed.HalfPi)
	case MoveBackLeft:
		return v.Rotate(fixed.Pi - fixed.QuarterPi)
	case MoveBack:
		return v.Neg()
	case MoveBackRight:
		return v.Rotate(fixed.Pi + fixed.QuarterPi)
	case MoveRight:
		return v.Rotate(-fixed.HalfPi)
	case MoveForRight:
		return v.Rotate(-fixed.QuarterPi)
	}
	return v
}

// dashTurn maps a numpad move onto v for dashes. Sideways and diagonal
// dashes mirror the walking offsets.
func dashTurn(v Vec2, m MoveInput) Vec2 {
	switch m {
	case MoveForLeft:
		return v.Rotate(-fixed.QuarterPi)
	case MoveLeft:
		return v.Rotate(-fixed.HalfPi)
	case MoveBackLeft:
		return v.Rotate(fixed.Pi + fixed.QuarterPi)
	case MoveBack:
		return v.Neg()
	case MoveBackRight:
		return v.Rotate(fixed.Pi - fixed.QuarterPi)
	case MoveRight:
		return v.Rotate(fixed.HalfPi)
	case MoveForRight:
		return v.Rotate(fixed.QuarterPi)
	}
	return v
}

func (p *Player) move(cfg *Config, in PlayerInput) {
	switch p.Stack.Top() {
	case Standby:
		in.Move = MoveNeutral
		in.Look = 0
		fallthrough
	case Default:
		if in.Look != 0 {
			p.Dir = p.Dir.Rotate(in.Look).Normalize()
		}
		if p.Stunned || !in.Move.Valid() {
			in.Move = MoveNeutral
		}
		p.walk(cfg, in.Move)
	case Dashing:
		if p.DashCount < cfg.DashPhase {
			alpha := fixed.FromInt(int(p.DashCount)).Div(fixed.FromInt(int(cfg.DashPhase)))
			p.Pos = p.Pos.Add(p.Vel.Lerp(p.DashVel, alpha))
		} else {
			p.Pos = p.Pos.Add(p.DashVel)
			p.Vel = p.DashVel
		}
	}
}

func (p *Player) walk(cfg *Config, m MoveInput) {
	var impulse Vec2
	if m == MoveNeutral {
		if p.Vel.Len() < cfg.PlayerWalkFric {
			p.Vel = Vec2{}
			// Coming to a full stop ends a stun.
			p.Stunned = false
		} else {
			impulse = p.Vel.Neg()
		}
	} else {
		impulse = turn(p.Dir.Scale(cfg.PlayerWalkAccel), m)
	}

	// Pushing against the current velocity only brakes, at friction rate.
	if p.Vel.Dot(impulse) < 0 {
		impulse = impulse.Reject(p.Vel).Add(p.Vel.NormalizeTo(-cfg.PlayerWalkFric))
	}
	p.Vel = p.Vel.Add(impulse)
	if p.Vel.Len() > cfg.PlayerWalkSpeed {
		p.Vel = p.Vel.NormalizeTo(cfg.PlayerWalkSpeed)
	}

	p.Pos = p.Pos.Add(p.Vel)
	if p.Pos.Len() > cfg.ArenaRadius {
		p.Pos = p.Pos.NormalizeTo(cfg.ArenaRadius)
		p.Vel = p.Vel.Reject(p.Pos)
	}
}

func clamp16(v, max int16) int16 {
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// tick regenerates resources and advances the counter of the top state.
func (p *Player) tick(cfg *Config) {
	p.Ammo = clamp16(p.Ammo+1, cfg.AmmoMax)
	p.Stamina = clamp16(p.Stamina+1, cfg.StaminaMax)
	switch p.Stack.Top() {
	case Dashing:
		p.DashCount++
		if p.DashCount >= cfg.DashDuration {
			p.Stack.Pop()
		}
	case Charging:
		p.ChargeCount++
	case Hitstop:
		p.HitstopCount--
		if p.HitstopCount <= 0 {
			p.Stack.Pop()
		}
	}
}

// damage cancels a charge or dash, freezes p for the tier's hitstop and
// knocks it away from origin.
func (p *Player) damage(cfg *Config, origin Vec2, force int) {
	if top := p.Stack.Top(); top == Charging || top == Dashing {
		p.Stack.Pop()
	}
	var frames int16
	var strength fixed.Num
	switch force {
	case ForceWeak:
		frames, strength = cfg.WeakHitstop, cfg.WeakForce
	case ForceMid:
		frames, strength = cfg.MidHitstop, cfg.MidForce
	default:
		frames, strength = cfg.StrongHitstop, cfg.StrongForce
	}
	p.hitstop(frames)
	p.Vel = p.Vel.Add(p.Pos.Sub(origin).NormalizeTo(strength))
}

func (p *Player) hitstop(frames int16) {
	p.Stack.Push(Hitstop)
	p.HitstopCount = frames
}

// InPerfectWindow reports whether p is early enough in a dash to evade or
// parry.
func (p *Player) InPerfectWindow(cfg *Config) bool {
	return p.Stack.Top() == Dashing && p.DashCount < cfg.DashPerfect
}

func (p *Player) dashVelocity(cfg *Config, m MoveInput) Vec2 {
	if !m.Valid() {
		m = MoveNeutral
	}
	return dashTurn(p.Dir, m).Scale(cfg.PlayerDashSpeed)
}

// anchorDash (re)starts the dash timers from the current position.
func (p *Player) anchorDash(cfg *Config, m MoveInput) {
	p.DashCount = 0
	p.DashVel = p.dashVelocity(cfg, m)
	p.PerfectPos = p.Pos
	p.Stamina = clamp16(p.Stamina-cfg.DashCost, cfg.StaminaMax)
}

// act starts a new action from Default, or weaves a dash while dashing.
// Resources are checked before anything changes.
func (p *Player) act(s *State, cfg *Config, in PlayerInput) {
	switch p.Stack.Top() {
	case Default:
		switch in.Attack {
		case AttackDash:
			if p.Stamina < cfg.DashCost {
				return
			}
			p.anchorDash(cfg, in.Move)
			p.Stack.Push(Dashing)
		case AttackShot:
			if p.Ammo < cfg.ShotCost {
				return
			}
			if !s.spawnProjectile(p.Pos, p.Dir.Scale(cfg.ProjSpeed), p.ID) {
				return
			}
			p.Ammo = clamp16(p.Ammo-cfg.ShotCost, cfg.AmmoMax)
		case AttackAltShot:
			if p.Ammo < cfg.AltShotCost {
				return
			}
			p.ChargeCount = 0
			p.Stack.Push(Charging)
			p.Ammo = clamp16(p.Ammo-cfg.AltShotCost, cfg.AmmoMax)
		}
	case Dashing:
		if in.Attack == AttackDash && p.Stamina >= cfg.DashCost {
			p.anchorDash(cfg, in.Move)
		}
	}
}

// breakStun spends a dash to leave stun, launching p in the chosen
// direction. It reports whether the dash input was consumed.
func (p *Player) breakStun(cfg *Config, in PlayerInput) bool {
	if in.Attack != AttackDash || p.Damaged || p.Stamina < cfg.DashCost {
		return false
	}
	p.Vel = p.dashVelocity(cfg, in.Move)
	p.Stamina = clamp16(p.Stamina-cfg.DashCost, cfg.StaminaMax)
	p.Stunned = false
	return true
}
