package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/annel0/blockworld/internal/vec"
)

// BlockChecker сообщает, занята ли ячейка твёрдым блоком.
// Ячейки за пределами мира считаются пустыми.
type BlockChecker interface {
	IsSolid(pos vec.Vec3) bool
}

// Body - размеры тела игрока
type Body struct {
	Radius    float64 // Горизонтальный радиус цилиндра
	Height    float64 // Полная высота от ступней до макушки
	EyeHeight float64 // Высота глаз над ступнями
}

// DefaultBody возвращает стандартные размеры игрока
func DefaultBody() Body {
	return Body{
		Radius:    0.4,
		Height:    2,
		EyeHeight: 1.9,
	}
}

// Physics разрешает движение тела игрока относительно блоков мира.
// Позиция везде означает точку глаз, ступни находятся на EyeHeight ниже.
type Physics struct {
	Gravity float64

	body     Body
	blocks   BlockChecker
	onGround bool
}

// DefaultGravity - ускорение свободного падения в блоках/с²
const DefaultGravity = 32.0

// NewPhysics создаёт физику для указанного мира
func NewPhysics(blocks BlockChecker, body Body, gravity float64) *Physics {
	return &Physics{
		Gravity: gravity,
		body:    body,
		blocks:  blocks,
	}
}

// Body возвращает размеры тела
func (p *Physics) Body() Body {
	return p.body
}

// OnGround возвращает true, если последний шаг упёрся в землю при падении
func (p *Physics) OnGround() bool {
	return p.onGround
}

// SetBlocks меняет мир, с которым проверяются столкновения
func (p *Physics) SetBlocks(blocks BlockChecker) {
	p.blocks = blocks
}

// Collides проверяет, пересекается ли тело в позиции pos с каким-либо блоком
func (p *Physics) Collides(pos mgl64.Vec3) bool {
	if p.blocks == nil {
		return false
	}

	bottomY := pos.Y() - p.body.EyeHeight
	topY := bottomY + p.body.Height
	r := p.body.Radius

	minX := int(math.Floor(pos.X() - r))
	maxX := int(math.Floor(pos.X() + r))
	minY := int(math.Floor(bottomY))
	maxY := int(math.Floor(topY))
	minZ := int(math.Floor(pos.Z() - r))
	maxZ := int(math.Floor(pos.Z() + r))

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			fy := float64(y)
			// Вертикальное перекрытие
			if !(bottomY < fy+1 && topY > fy) {
				continue
			}
			for z := minZ; z <= maxZ; z++ {
				if !p.blocks.IsSolid(vec.Vec3{X: x, Y: y, Z: z}) {
					continue
				}
				// Круг против квадрата ячейки в плоскости XZ
				closestX := mgl64.Clamp(pos.X(), float64(x), float64(x+1))
				closestZ := mgl64.Clamp(pos.Z(), float64(z), float64(z+1))
				dx := pos.X() - closestX
				dz := pos.Z() - closestZ
				if dx*dx+dz*dz < r*r {
					return true
				}
			}
		}
	}
	return false
}

// ResolveCollision перемещает тело на vel*delta, проверяя оси по очереди X, Y, Z.
// Смещение по оси, приводящее к столкновению, отменяется, а компонента скорости
// обнуляется. Отмена движения вниз по Y ставит флаг OnGround.
func (p *Physics) ResolveCollision(pos mgl64.Vec3, vel *mgl64.Vec3, delta float64) mgl64.Vec3 {
	p.onGround = false
	next := pos

	for axis := 0; axis < 3; axis++ {
		next[axis] += vel[axis] * delta
		if !p.Collides(next) {
			continue
		}
		if axis == 1 && vel[axis] < 0 {
			p.onGround = true
		}
		next[axis] = pos[axis]
		vel[axis] = 0
	}

	return next
}
