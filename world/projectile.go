package world

// MaxProjectiles is the number of projectiles that can be alive at once.
// A shot fired while the arena is full is rejected and costs nothing.
const MaxProjectiles = 32

type Projectile struct {
	Pos   Vec2
	Vel   Vec2
	Owner uint8
}

// Projectiles is an ordered, fixed-capacity list. Removal keeps the order of
// the remaining entries and zeroes the freed slot.
type Projectiles struct {
	items [MaxProjectiles]Projectile
	n     uint8
}

func (ps *Projectiles) Len() int {
	return int(ps.n)
}

func (ps *Projectiles) At(i int) Projectile {
	return ps.items[i]
}

func (ps *Projectiles) Full() bool {
	return int(ps.n) == MaxProjectiles
}

func (ps *Projectiles) add(p Projectile) bool {
	if ps.Full() {
		return false
	}
	ps.items[ps.n] = p
	ps.n++
	return true
}

func (ps *Projectiles) remove(i int) {
	copy(ps.items[i:ps.n], ps.items[i+1:ps.n])
	ps.n--
	ps.items[ps.n] = Projectile{}
}

func (ps *Projectiles) Clear() {
	*ps = Projectiles{}
}
