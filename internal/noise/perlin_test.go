package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerlin_Deterministic(t *testing.T) {
	a := NewPerlin(1337)
	b := NewPerlin(1337)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		y := float64(i) * 0.11
		assert.Equal(t, a.Noise2D(x, y), b.Noise2D(x, y), "Один сид должен давать одинаковый 2D шум")
		assert.Equal(t, a.Noise3D(x, y, x+y), b.Noise3D(x, y, x+y), "Один сид должен давать одинаковый 3D шум")
	}
}

func TestPerlin_SeedsDiffer(t *testing.T) {
	a := NewPerlin(1)
	b := NewPerlin(2)

	differs := false
	for i := 0; i < 20 && !differs; i++ {
		x := float64(i)*0.53 + 0.1
		differs = a.Noise2D(x, x*0.7) != b.Noise2D(x, x*0.7)
	}
	assert.True(t, differs, "Разные сиды должны давать разный шум")
}

func TestPerlin_Range(t *testing.T) {
	p := NewPerlin(99)
	for x := 0; x < 40; x++ {
		for z := 0; z < 40; z++ {
			v := p.Noise2D(float64(x)/7.3, float64(z)/7.3)
			assert.GreaterOrEqual(t, v, -1.5)
			assert.LessOrEqual(t, v, 1.5)
		}
	}
}

func TestPerlin_ImplementsSource(t *testing.T) {
	var s Source = NewPerlin(5)
	assert.Equal(t, int64(5), s.(*Perlin).Seed())
}
