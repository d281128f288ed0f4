package engine

import (
	"math/rand"
)

// Dice produces die faces in 1..6.
type Dice interface {
	Roll() int
}

// RandomDice is a uniform six-sided die backed by its own generator.
type RandomDice struct {
	rng *rand.Rand
}

// NewRandomDice creates a die seeded with seed (0 = random seed).
func NewRandomDice(seed int64) *RandomDice {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &RandomDice{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a uniform value in 1..6.
func (d *RandomDice) Roll() int {
	return d.rng.Intn(6) + 1
}

// SequenceDice replays a fixed list of faces, cycling when exhausted.
// It is meant for tests and scripted replays.
type SequenceDice struct {
	faces []int
	next  int
}

// NewSequenceDice creates a die that returns faces in order.
func NewSequenceDice(faces ...int) *SequenceDice {
	return &SequenceDice{faces: faces}
}

// Roll returns the next scripted face. An empty script always rolls 1.
func (d *SequenceDice) Roll() int {
	if len(d.faces) == 0 {
		return 1
	}
	v := d.faces[d.next%len(d.faces)]
	d.next++
	return v
}
