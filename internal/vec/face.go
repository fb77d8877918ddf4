package vec

import "fmt"

// Face определяет одну из шести граней ячейки
type Face uint8

const (
	FaceTop    Face = iota // +Y
	FaceBottom             // -Y
	FaceLeft               // -X
	FaceRight              // +X
	FaceFront              // +Z
	FaceBack               // -Z

	FaceCount // всегда последний: количество граней
)

// Faces перечисляет грани в фиксированном порядке обхода
var Faces = [FaceCount]Face{FaceTop, FaceBottom, FaceLeft, FaceRight, FaceFront, FaceBack}

var faceNames = [FaceCount]string{"top", "bottom", "left", "right", "front", "back"}

var faceNormals = [FaceCount]Vec3{
	FaceTop:    {X: 0, Y: 1, Z: 0},
	FaceBottom: {X: 0, Y: -1, Z: 0},
	FaceLeft:   {X: -1, Y: 0, Z: 0},
	FaceRight:  {X: 1, Y: 0, Z: 0},
	FaceFront:  {X: 0, Y: 0, Z: 1},
	FaceBack:   {X: 0, Y: 0, Z: -1},
}

// String возвращает имя грани
func (f Face) String() string {
	if f >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}

// ParseFace возвращает грань по имени
func ParseFace(name string) (Face, bool) {
	for i, n := range faceNames {
		if n == name {
			return Face(i), true
		}
	}
	return 0, false
}

// Normal возвращает внешнюю нормаль грани (смещение к соседней ячейке)
func (f Face) Normal() Vec3 {
	return faceNormals[f]
}

// Opposite возвращает противоположную грань
func (f Face) Opposite() Face {
	// Грани идут парами: чётная и следующая нечётная противоположны
	return f ^ 1
}

// Axis возвращает индекс оси грани: 0 – X, 1 – Y, 2 – Z
func (f Face) Axis() int {
	switch f {
	case FaceLeft, FaceRight:
		return 0
	case FaceTop, FaceBottom:
		return 1
	default:
		return 2
	}
}

// Positive сообщает, смотрит ли нормаль грани в положительную сторону оси
func (f Face) Positive() bool {
	return f == FaceTop || f == FaceRight || f == FaceFront
}

// Neighbor возвращает соседнюю ячейку по направлению грани
func (v Vec3) Neighbor(f Face) Vec3 {
	return v.Add(f.Normal())
}

// MarshalText кодирует грань её именем
func (f Face) MarshalText() ([]byte, error) {
	if f >= FaceCount {
		return nil, fmt.Errorf("неизвестная грань %d", f)
	}
	return []byte(f.String()), nil
}

// UnmarshalText разбирает грань по имени
func (f *Face) UnmarshalText(text []byte) error {
	parsed, ok := ParseFace(string(text))
	if !ok {
		return fmt.Errorf("неизвестная грань %q", text)
	}
	*f = parsed
	return nil
}
