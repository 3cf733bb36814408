package client

import (
	"rbst/fixed"
	"rbst/world"
)

// Bot produces repeatable pseudo random inputs for headless matches and
// sync tests. Two bots with the same seed produce the same inputs.
type Bot struct {
	seed uint32
	// hold keeps a movement for a few frames so bots wander instead of
	// jittering in place.
	hold int
	move world.MoveInput
}

func NewBot(seed uint32) *Bot {
	return &Bot{seed: seed}
}

func (b *Bot) rand() uint32 {
	b.seed = b.seed*1664525 + 1013904223
	return b.seed
}

func (b *Bot) Next() world.PlayerInput {
	v := b.rand()
	if b.hold <= 0 {
		b.move = world.MoveInput((v>>8)%9) + world.MoveBackLeft
		b.hold = int((v>>4)%16) + 4
	}
	b.hold--

	in := world.PlayerInput{
		Move: b.move,
		Look: fixed.FromRaw(int32((v>>12)%(1<<16)) - 1<<15),
	}
	if v>>28 == 0 {
		in.Attack = world.AttackShot + world.AttackInput(((v>>26)&3)%3)
	}
	return in
}
