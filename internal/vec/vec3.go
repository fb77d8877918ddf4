package vec

import "github.com/go-gl/mathgl/mgl64"

// Vec3 представляет трехмерные целочисленные координаты ячейки сетки
type Vec3 struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// DistanceSquared возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceSquared(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Column возвращает координаты вертикального столбца (x, z)
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// Center возвращает мировые координаты центра ячейки
func (v Vec3) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X) + 0.5, float64(v.Y) + 0.5, float64(v.Z) + 0.5}
}

// Min возвращает мировые координаты угла ячейки с минимальными координатами
func (v Vec3) Min() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Floor возвращает ячейку, в которой лежит точка
func Floor(p mgl64.Vec3) Vec3 {
	return Vec3{X: floorInt(p.X()), Y: floorInt(p.Y()), Z: floorInt(p.Z())}
}
