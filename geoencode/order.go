package geoencode

import (
	"crypto/md5"
	"encoding/binary"
	"math/rand"
	"strconv"
)

// OrderKey is an integer grid cell used to derive deterministic
// pseudo-random draws. Identical keys always produce identical draws,
// across runs and processes.
type OrderKey struct {
	Lat int
	Lon int
}

// seedFor hashes the decimal "lat,lon" form of the key and keeps the low
// 64 bits of the digest.
func seedFor(k OrderKey) uint64 {
	sum := md5.Sum([]byte(strconv.Itoa(k.Lat) + "," + strconv.Itoa(k.Lon)))
	return binary.BigEndian.Uint64(sum[8:])
}

// orderValue ranks a cell for neighbor selection. The generator is seeded
// fresh on every call, so the draw does not depend on call order and the
// function stays referentially transparent.
func orderValue(k OrderKey) uint64 {
	rng := rand.New(rand.NewSource(int64(seedFor(k))))
	return rng.Uint64()
}

// bitIndex assigns a cell its output position in an n-length vector.
// Seeded independently from orderValue; the two draws for the same key
// are each reproducible in isolation.
func bitIndex(k OrderKey, n int) int {
	rng := rand.New(rand.NewSource(int64(seedFor(k))))
	return rng.Intn(n)
}
