// Package pairing holds the index arithmetic shared by every format: round-robin
// circles, bracket seed order and the fold used to route several teams per match.
package pairing

// Bye marks a padding slot in a circle.
const Bye = -1

// CircleSlots lays out n positions, padded with a Bye to an even length.
func CircleSlots(n int) []int {
	size := n + n%2
	slots := make([]int, size)
	for i := range slots {
		if i < n {
			slots[i] = i
		} else {
			slots[i] = Bye
		}
	}
	return slots
}

// CirclePairs pairs slot k with slot len-1-k. A pair may hold a Bye.
func CirclePairs(slots []int) [][2]int {
	half := len(slots) / 2
	pairs := make([][2]int, 0, half)
	for k := 0; k < half; k++ {
		pairs = append(pairs, [2]int{slots[k], slots[len(slots)-1-k]})
	}
	return pairs
}

// RotateCircle keeps slot 0 fixed and moves the last slot to index 1, shifting the rest.
func RotateCircle(slots []int) {
	if len(slots) < 3 {
		return
	}
	last := slots[len(slots)-1]
	copy(slots[2:], slots[1:len(slots)-1])
	slots[1] = last
}

// RoundRobin returns a full single round-robin over n positions: one list of pairs per
// round, len(CircleSlots(n))-1 rounds. Pairs involving a Bye are kept so callers can
// see who sits out.
func RoundRobin(n int) [][][2]int {
	slots := CircleSlots(n)
	if len(slots) < 2 {
		return nil
	}
	rounds := make([][][2]int, 0, len(slots)-1)
	for r := 0; r < len(slots)-1; r++ {
		rounds = append(rounds, CirclePairs(slots))
		RotateCircle(slots)
	}
	return rounds
}

// IsBye reports whether a pair has an empty side.
func IsBye(p [2]int) bool {
	return p[0] == Bye || p[1] == Bye
}
