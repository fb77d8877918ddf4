package vec

import "math"

// Vec2 представляет 2D координаты столбца сетки (x, z)
type Vec2 struct {
	X, Y int
}

// Lift поднимает столбец до ячейки на высоте y
func (v Vec2) Lift(y int) Vec3 {
	return Vec3{X: v.X, Y: y, Z: v.Y}
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func floorInt(f float64) int {
	return int(math.Floor(f))
}
