package compose

import (
	"math/rand"
	"time"
)

// Picker chooses one template from a list of interchangeable variants. The
// composer takes it as an interface so tests can pin the choice.
type Picker interface {
	Pick(options []string) string
}

type randPicker struct {
	r *rand.Rand
}

// NewPicker returns a seeded picker with a deterministic choice sequence.
func NewPicker(seed int64) Picker {
	return &randPicker{r: rand.New(rand.NewSource(seed))}
}

// NewRandomPicker returns a time-seeded picker for production use.
func NewRandomPicker() Picker {
	return NewPicker(time.Now().UnixNano())
}

func (p *randPicker) Pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[p.r.Intn(len(options))]
}
