package utils

// CycleEnum moves step places through the values 0..last, wrapping at both ends
func CycleEnum[T ~int](current T, step int, last T) T {
	n := int(last) + 1
	return T(((int(current)+step)%n + n) % n)
}
