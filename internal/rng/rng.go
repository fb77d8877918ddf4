package rng

import "time"

// mulberryIncrement - нечётный шаг, на который сдвигается состояние при каждом вызове
const mulberryIncrement uint32 = 0x6D2B79F5

// RNG представляет детерминированный генератор псевдослучайных чисел (Mulberry32).
// Одинаковый сид всегда даёт одинаковую последовательность на любой платформе.
// Не потокобезопасен: вызывающая сторона синхронизирует доступ сама.
type RNG struct {
	state uint32
}

// New создаёт генератор с указанным сидом
func New(seed int64) *RNG {
	return &RNG{state: uint32(seed)}
}

// NewRandom создаёт генератор с недетерминированным сидом
func NewRandom() *RNG {
	return New(time.Now().UnixNano())
}

// Uint32 возвращает следующее 32-битное значение потока
func (r *RNG) Uint32() uint32 {
	r.state += mulberryIncrement
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 возвращает число в диапазоне [0, 1)
func (r *RNG) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}

// Int63 возвращает неотрицательное 63-битное число, собранное из двух значений потока.
// Используется для получения сида зависимых генераторов (например, шума).
func (r *RNG) Int63() int64 {
	hi := uint64(r.Uint32())
	lo := uint64(r.Uint32())
	return int64((hi<<32 | lo) >> 1)
}
