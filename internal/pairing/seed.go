package pairing

// SeedOrder returns seeds 0..size-1 in standard bracket position order, so that
// consecutive entries meet in the first round and the best seeds meet last.
// size is rounded up to a power of two.
func SeedOrder(size int) []int {
	if size <= 0 {
		return []int{}
	}

	order := []int{0}
	for len(order) < size {
		next := make([]int, 0, len(order)*2)
		currentCount := len(order) * 2
		for _, seed := range order {
			next = append(next, seed, (currentCount-1)-seed)
		}
		order = next
	}
	return order
}

// MatchOrder lists match seeds 0..n-1 in bracket position order. The first half of the
// positions is the larger subtree when n is not a power of two, so seeds are split
// between the halves in 0,1,1,0 order until one half is full.
func MatchOrder(n int) []int {
	if n > 0 && n&(n-1) == 0 {
		return SeedOrder(n)
	}
	seeds := make([]int, max(n, 0))
	for i := range seeds {
		seeds[i] = i
	}
	return placeSeeds(seeds)
}

func placeSeeds(seeds []int) []int {
	if len(seeds) <= 1 {
		return seeds
	}
	half := 1
	for half*2 < len(seeds) {
		half *= 2
	}
	left := make([]int, 0, half)
	right := make([]int, 0, len(seeds)-half)
	for k, seed := range seeds {
		toLeft := k%4 == 0 || k%4 == 3
		if len(left) == cap(left) {
			toLeft = false
		} else if len(right) == cap(right) {
			toLeft = true
		}
		if toLeft {
			left = append(left, seed)
		} else {
			right = append(right, seed)
		}
	}
	return append(placeSeeds(left), placeSeeds(right)...)
}

// Snake deals team indices 0..teams-1 over the given number of matches, going back and
// forth so the best team shares a match with the worst one.
func Snake(teams, matches int) [][]int {
	if matches <= 0 {
		return nil
	}
	out := make([][]int, matches)
	for i := 0; i < teams; i++ {
		row, col := i/matches, i%matches
		if row%2 == 1 {
			col = matches - 1 - col
		}
		out[col] = append(out[col], i)
	}
	return out
}

// FoldIndex picks the 0-based target match for the i-th of width teams leaving a match
// whose base target is base. Teams of one match are spread over consecutive targets.
// It falls back to base when the next round has fewer than width matches or the fold
// would leave it.
func FoldIndex(base, i, width, count int) int {
	if width <= 1 || count < width {
		return base
	}
	target := (base/width)*width + mod(base%width-i, width)
	if target >= count {
		return base
	}
	return target
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
