package utils

func Ptr[T any](v T) *T {
	return &v
}

// CeilDiv rounds a positive quotient up.
func CeilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Pow2 returns 2^n for n >= 0.
func Pow2(n int) int {
	if n < 0 {
		return 0
	}
	return 1 << n
}
