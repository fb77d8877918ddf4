package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/blockworld/internal/vec"
	"github.com/annel0/blockworld/internal/world"
)

// Bounds - мир с известными размерами сетки
type Bounds interface {
	BlockChecker
	Dimensions() world.Dimensions
}

// Hit - результат попадания луча в грань блока
type Hit struct {
	Cell     vec.Vec3   `json:"cell"`
	Face     vec.Face   `json:"face"`
	Distance float64    `json:"distance"`
	Point    mgl64.Vec3 `json:"point"`
}

// Adjacent возвращает ячейку, соседнюю с поражённой гранью
func (h Hit) Adjacent() vec.Vec3 {
	return h.Cell.Neighbor(h.Face)
}

// DefaultReach - дальность выбора блока
const DefaultReach = 8.0

// MaxReach - наибольшая допустимая дальность выбора блока
const MaxReach = 64.0

// Raycast находит ближайшую грань твёрдого блока вдоль луча в пределах reach.
// Перебирает ячейки в кубе радиуса ceil(reach) вокруг начала луча, обрезанном
// границами сетки; reach больше MaxReach ограничивается MaxReach.
// Нулевое или некорректное направление, а также бесконечная дальность дают промах.
func Raycast(w Bounds, origin, dir mgl64.Vec3, reach float64) (Hit, bool) {
	if w == nil || !finite(origin) || !finite(dir) || !(reach > 0) || math.IsInf(reach, 1) {
		return Hit{}, false
	}
	l := dir.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Hit{}, false
	}
	dir = dir.Mul(1 / l)

	if reach > MaxReach {
		reach = MaxReach
	}

	// Начало луча дальше reach от сетки: ни одна ячейка не достижима
	dims := w.Dimensions()
	for axis, size := range [3]int{dims.Width, dims.Height, dims.Depth} {
		if origin[axis] < -reach || origin[axis] > float64(size)+reach {
			return Hit{}, false
		}
	}

	center := vec.Floor(origin)
	radius := int(math.Ceil(reach))
	reachSq := reach * reach

	xMin, xMax := clipRange(center.X, radius, dims.Width)
	yMin, yMax := clipRange(center.Y, radius, dims.Height)
	zMin, zMax := clipRange(center.Z, radius, dims.Depth)

	var best Hit
	found := false

	for x := xMin; x <= xMax; x++ {
		for y := yMin; y <= yMax; y++ {
			for z := zMin; z <= zMax; z++ {
				cell := vec.Vec3{X: x, Y: y, Z: z}
				if !w.IsSolid(cell) {
					continue
				}
				if cell.Center().Sub(origin).LenSqr() > reachSq {
					continue
				}
				for _, face := range vec.Faces {
					t, point, ok := intersectFace(cell, face, origin, dir)
					if !ok {
						continue
					}
					if !found || t < best.Distance {
						best = Hit{Cell: cell, Face: face, Distance: t, Point: point}
						found = true
					}
				}
			}
		}
	}

	return best, found
}

// clipRange возвращает отрезок [c-r, c+r], обрезанный до [0, size-1]
func clipRange(c, r, size int) (int, int) {
	return max(0, c-r), min(size-1, c+r)
}

// intersectFace пересекает луч с единичной гранью ячейки
func intersectFace(cell vec.Vec3, face vec.Face, origin, dir mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	n := face.Normal()
	normal := mgl64.Vec3{float64(n.X), float64(n.Y), float64(n.Z)}
	if dir.Dot(normal) >= 0 {
		return 0, mgl64.Vec3{}, false
	}

	axis := face.Axis()
	minCorner := cell.Min()
	plane := minCorner[axis]
	if face.Positive() {
		plane++
	}

	t := (plane - origin[axis]) / dir[axis]
	if !(t > 0) {
		return 0, mgl64.Vec3{}, false
	}

	point := origin.Add(dir.Mul(t))
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		if point[a] < minCorner[a] || point[a] > minCorner[a]+1 {
			return 0, mgl64.Vec3{}, false
		}
	}
	point[axis] = plane
	return t, point, true
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
