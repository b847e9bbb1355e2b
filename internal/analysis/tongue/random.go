package tongue

import "unicode/utf16"

const (
	lcgModulus    uint64 = 1 << 31
	lcgMultiplier uint64 = 1103515245
	lcgIncrement  uint64 = 12345

	// seedPrefixUnits caps how much of the fingerprint feeds the seed.
	seedPrefixUnits = 100
)

// seedFrom hashes the first UTF-16 code units of the fingerprint with the
// classic 31-multiplier string hash, wrapped to int32, sign dropped.
func seedFrom(fingerprint string) uint64 {
	units := utf16.Encode([]rune(fingerprint))
	if len(units) > seedPrefixUnits {
		units = units[:seedPrefixUnits]
	}

	var hash int32
	for _, u := range units {
		hash = (hash << 5) - hash + int32(u)
	}

	abs := int64(hash)
	if abs < 0 {
		abs = -abs
	}
	return uint64(abs)
}

// lcg is a linear congruential generator emitting values in [0, 1].
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed % lcgModulus}
}

func (g *lcg) next() float64 {
	g.state = (lcgMultiplier*g.state + lcgIncrement) % lcgModulus
	return float64(g.state) / float64(lcgModulus-1)
}

type weighted struct {
	value  string
	weight float64
}

// pick walks the cumulative weights and returns the first entry whose
// running total reaches r*total.
func pick(r float64, items []weighted) string {
	total := 0.0
	for _, item := range items {
		total += item.weight
	}

	threshold := r * total
	cumulative := 0.0
	for _, item := range items {
		cumulative += item.weight
		if threshold <= cumulative {
			return item.value
		}
	}
	return items[0].value
}
