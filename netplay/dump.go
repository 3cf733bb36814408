package netplay

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"rbst/world"
)

// StateDump is a readable copy of a world.State for offline diffing of
// desyncs. Fixed point values are kept as decimal strings.
type StateDump struct {
	Frame          int64            `msgpack:"frame"`
	Phase          string           `msgpack:"phase"`
	RoundCountdown int16            `msgpack:"countdown"`
	Players        [2]PlayerDump    `msgpack:"players"`
	Projectiles    []ProjectileDump `msgpack:"projectiles"`
}

type PlayerDump struct {
	ID           uint8     `msgpack:"id"`
	States       []string  `msgpack:"states"`
	Health       int16     `msgpack:"health"`
	Rounds       int16     `msgpack:"rounds"`
	Pos          [2]string `msgpack:"pos"`
	Vel          [2]string `msgpack:"vel"`
	Dir          [2]string `msgpack:"dir"`
	Ammo         int16     `msgpack:"ammo"`
	Stamina      int16     `msgpack:"stamina"`
	ChargeCount  int16     `msgpack:"charge"`
	DashCount    int16     `msgpack:"dash"`
	HitstopCount int16     `msgpack:"hitstop"`
	Stunned      bool      `msgpack:"stunned"`
	Damaged      bool      `msgpack:"damaged"`
}

type ProjectileDump struct {
	Owner uint8     `msgpack:"owner"`
	Pos   [2]string `msgpack:"pos"`
	Vel   [2]string `msgpack:"vel"`
}

func vec(v world.Vec2) [2]string {
	return [2]string{v.X.String(), v.Y.String()}
}

func NewStateDump(s world.State) StateDump {
	d := StateDump{
		Frame:          s.Frame,
		Phase:          s.Phase.String(),
		RoundCountdown: s.RoundCountdown,
	}
	rounds := [2]int16{s.Rounds1, s.Rounds2}
	for i := range d.Players {
		p := s.Player(i + 1)
		states := make([]string, 0, p.Stack.Len())
		for j := 0; j < p.Stack.Len(); j++ {
			states = append(states, p.Stack.At(j).String())
		}
		d.Players[i] = PlayerDump{
			ID:           p.ID,
			States:       states,
			Health:       s.Health(i + 1),
			Rounds:       rounds[i],
			Pos:          vec(p.Pos),
			Vel:          vec(p.Vel),
			Dir:          vec(p.Dir),
			Ammo:         p.Ammo,
			Stamina:      p.Stamina,
			ChargeCount:  p.ChargeCount,
			DashCount:    p.DashCount,
			HitstopCount: p.HitstopCount,
			Stunned:      p.Stunned,
			Damaged:      p.Damaged,
		}
	}
	for i := 0; i < s.Projectiles.Len(); i++ {
		p := s.Projectiles.At(i)
		d.Projectiles = append(d.Projectiles, ProjectileDump{Owner: p.Owner, Pos: vec(p.Pos), Vel: vec(p.Vel)})
	}
	return d
}

// WriteDump writes s to w as msgpack.
func WriteDump(w io.Writer, s world.State) error {
	return msgpack.NewEncoder(w).Encode(NewStateDump(s))
}

func ReadDump(r io.Reader) (StateDump, error) {
	var d StateDump
	err := msgpack.NewDecoder(r).Decode(&d)
	return d, err
}
