package world

// resolveProjectiles moves every projectile, drops the ones that left the
// arena, then checks each against the player it is flying at. A parry is
// checked before a hit.
func (s *State) resolveProjectiles(cfg *Config) {
	reach := cfg.PlayerRadius + cfg.ProjRadius
	for i := 0; i < s.Projectiles.Len(); {
		pr := &s.Projectiles.items[i]
		pr.Pos = pr.Pos.Add(pr.Vel)
		if pr.Pos.Len() > cfg.ArenaRadius {
			s.Projectiles.remove(i)
			continue
		}

		shooter, target := s.player(pr.Owner), s.opponent(pr.Owner)
		if target.InPerfectWindow(cfg) && pr.Pos.Sub(target.PerfectPos).Len() < reach {
			speed := pr.Vel.Len().Mul(cfg.ProjCounterMultiply)
			pr.Owner = target.ID
			pr.Vel = shooter.Pos.Sub(pr.Pos).NormalizeTo(speed)
			target.hitstop(cfg.WeakHitstop)
		} else if !target.Stunned && pr.Pos.Sub(target.Pos).Len() < reach {
			s.hurt(cfg, target.ID, pr.Pos, ForceWeak)
			s.Projectiles.remove(i)
			continue
		}
		i++
	}
}

// resolveDashes settles body contact involving at least one dashing player.
func (s *State) resolveDashes(cfg *Config) {
	p1, p2 := &s.P1, &s.P2
	contact := cfg.PlayerRadius + cfg.PlayerRadius
	touching := p1.Pos.Sub(p2.Pos).Len() < contact
	dashing1, dashing2 := p1.Stack.Top() == Dashing, p2.Stack.Top() == Dashing

	switch {
	case dashing1 && dashing2:
		switch {
		case p2.InPerfectWindow(cfg) && p1.Pos.Sub(p2.PerfectPos).Len() < contact:
			s.hurt(cfg, 1, p2.PerfectPos, ForceMid)
			p2.hitstop(cfg.MidHitstop)
		case p1.InPerfectWindow(cfg) && p2.Pos.Sub(p1.PerfectPos).Len() < contact:
			s.hurt(cfg, 2, p1.PerfectPos, ForceMid)
			p1.hitstop(cfg.MidHitstop)
		case touching:
			// The dash that started last loses.
			switch {
			case p1.DashCount > p2.DashCount:
				s.hurt(cfg, 2, p1.Pos, ForceMid)
				p1.hitstop(cfg.MidHitstop)
			case p1.DashCount < p2.DashCount:
				s.hurt(cfg, 1, p2.Pos, ForceMid)
				p2.hitstop(cfg.MidHitstop)
			default:
				s.hurt(cfg, 1, p2.Pos, ForceMid)
				s.hurt(cfg, 2, p1.Pos, ForceMid)
			}
		}
	case touching && dashing1 && !p2.Stunned:
		s.hurt(cfg, 2, p1.Pos, ForceMid)
		p1.hitstop(cfg.MidHitstop)
	case touching && dashing2 && !p1.Stunned:
		s.hurt(cfg, 1, p2.Pos, ForceMid)
		p2.hitstop(cfg.MidHitstop)
	}
}

// altShot fires the hitscan ray of a completed charge. The ray can be
// parried back at the shooter, then hits or grazes whoever it points at,
// then detonates any projectile lying on it.
func (s *State) altShot(cfg *Config, owner uint8) {
	shooter := s.player(owner)
	origin, dir := shooter.Pos, shooter.Dir
	target := s.opponent(owner)

	if target.InPerfectWindow(cfg) && Closest(origin, dir, target.PerfectPos) < cfg.PlayerRadius {
		origin = target.PerfectPos.Sub(origin).Project(dir).Add(origin)
		dir = dir.Neg()
		target.hitstop(cfg.MidHitstop)
		owner = target.ID
		target = s.opponent(owner)
	}

	if !target.Stunned {
		switch d := Closest(origin, dir, target.Pos); {
		case d < cfg.PlayerRadius:
			s.hurt(cfg, target.ID, origin, ForceMid)
		case d < cfg.GrazeRadius:
			target.Ammo = cfg.AmmoMax
			target.Stamina = cfg.StaminaMax
		}
	}

	blast := cfg.ComboRadius + cfg.PlayerRadius
	for i := 0; i < s.Projectiles.Len(); {
		pos := s.Projectiles.At(i).Pos
		if Closest(origin, dir, pos) >= cfg.ProjRadius {
			i++
			continue
		}
		for _, p := range [2]*Player{&s.P1, &s.P2} {
			if !p.Stunned && pos.Sub(p.Pos).Len() < blast {
				s.hurt(cfg, p.ID, pos, ForceStrong)
			}
		}
		s.Projectiles.remove(i)
	}
}
