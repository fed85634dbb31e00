package util

import "math/rand/v2"

// Hash32 перемешивает 32-битный вход в хорошо распределённый выход
func Hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Hash2 стабильный хеш целочисленных координат и сида
func Hash2(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x9e3779b1
	h ^= uint32(y) * 0x85ebca6b
	return Hash32(h)
}

// Mix64 финализатор splitmix64
func Mix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// CellSeed стабильный 64-битный сид для (seed, salt, x, y).
// salt разделяет независимые потоки (номер тика, стадия генерации).
func CellSeed(seed int64, salt uint64, x, y int32) uint64 {
	h := Mix64(uint64(seed))
	h = Mix64(h ^ salt)
	h = Mix64(h ^ uint64(uint32(x)))
	return Mix64(h ^ uint64(uint32(y))<<1)
}

// NewRand создаёт детерминированный PCG генератор для (seed, salt, x, y)
func NewRand(seed int64, salt uint64, x, y int32) *rand.Rand {
	s := CellSeed(seed, salt, x, y)
	return rand.New(rand.NewPCG(s, Mix64(s)))
}
