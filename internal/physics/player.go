package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Input - намерения движения игрока на один шаг симуляции
type Input struct {
	Forward  bool       `json:"forward"`
	Backward bool       `json:"backward"`
	Left     bool       `json:"left"`
	Right    bool       `json:"right"`
	Up       bool       `json:"up"`
	Down     bool       `json:"down"`
	Sprint   bool       `json:"sprint"`
	Look     mgl64.Vec3 `json:"look"` // Направление взгляда, может быть ненормированным
}

// Movement - параметры управления игроком
type Movement struct {
	MoveSpeed float64 // Блоков в секунду
	Damping   float64
	JumpSpeed float64
}

// DefaultMovement возвращает стандартные параметры управления
func DefaultMovement() Movement {
	return Movement{
		MoveSpeed: 10,
		Damping:   10,
		JumpSpeed: 10,
	}
}

// Acceleration возвращает горизонтальное ускорение без спринта
func (m Movement) Acceleration() float64 {
	return m.MoveSpeed * 60
}

// Player - состояние игрока. Position - точка глаз.
type Player struct {
	Position  mgl64.Vec3 `json:"position"`
	Velocity  mgl64.Vec3 `json:"velocity"`
	Look      mgl64.Vec3 `json:"look"`
	OnGround  bool       `json:"on_ground"`
	Flying    bool       `json:"flying"`
	Sprinting bool       `json:"sprinting"`
}

// defaultLook - направление взгляда по умолчанию (вдоль -Z)
var defaultLook = mgl64.Vec3{0, 0, -1}

// NewPlayer создаёт игрока в указанной точке
func NewPlayer(pos mgl64.Vec3) *Player {
	return &Player{
		Position: pos,
		Look:     defaultLook,
	}
}

// Reset возвращает игрока в точку pos и обнуляет движение
func (p *Player) Reset(pos mgl64.Vec3) {
	p.Position = pos
	p.Velocity = mgl64.Vec3{}
	p.OnGround = false
	p.Sprinting = false
}

// Feet возвращает высоту ступней
func (p *Player) Feet(body Body) float64 {
	return p.Position.Y() - body.EyeHeight
}

// LookDirection возвращает нормированное направление взгляда
func (p *Player) LookDirection() mgl64.Vec3 {
	if l := p.Look.Len(); l > 0 && !math.IsNaN(l) && !math.IsInf(l, 0) {
		return p.Look.Mul(1 / l)
	}
	return defaultLook
}

// horizontalBasis возвращает единичные векторы "вперёд" и "вправо" в плоскости XZ
func horizontalBasis(look mgl64.Vec3) (forward, right mgl64.Vec3) {
	forward = mgl64.Vec3{look.X(), 0, look.Z()}
	if l := forward.Len(); l > 1e-9 {
		forward = forward.Mul(1 / l)
	} else {
		forward = defaultLook
	}
	right = forward.Cross(mgl64.Vec3{0, 1, 0})
	return forward, right
}

// Step продвигает игрока на delta секунд: затухание, ускорение от намерений,
// гравитация или полёт, прыжок и разрешение столкновений.
func (p *Player) Step(phys *Physics, move Movement, in Input, delta float64) {
	if delta <= 0 || math.IsNaN(delta) {
		return
	}
	if in.Look.Len() > 0 {
		p.Look = in.Look
	}

	// Спринт держится только пока игрок идёт вперёд
	p.Sprinting = in.Sprint && in.Forward

	dir := mgl64.Vec3{
		boolAxis(in.Right, in.Left),
		boolAxis(in.Up, in.Down),
		boolAxis(in.Forward, in.Backward),
	}
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}

	// Затухание
	damp := move.Damping * delta
	p.Velocity[0] -= p.Velocity[0] * damp
	p.Velocity[2] -= p.Velocity[2] * damp
	if p.Flying {
		p.Velocity[1] -= p.Velocity[1] * damp
	}

	accel := move.Acceleration()
	forwardAccel := accel
	if p.Sprinting {
		forwardAccel *= 2
	}

	forward, right := horizontalBasis(p.LookDirection())
	if in.Forward || in.Backward {
		p.Velocity = p.Velocity.Add(forward.Mul(dir.Z() * forwardAccel * delta))
	}
	if in.Left || in.Right {
		p.Velocity = p.Velocity.Add(right.Mul(dir.X() * accel * delta))
	}

	if p.Flying {
		if in.Up || in.Down {
			p.Velocity[1] += dir.Y() * accel * delta
		}
	} else {
		if in.Up && p.OnGround {
			p.Velocity[1] = move.JumpSpeed
		}
		p.Velocity[1] -= phys.Gravity * delta
	}

	p.Position = phys.ResolveCollision(p.Position, &p.Velocity, delta)
	p.OnGround = phys.OnGround()
}

func boolAxis(pos, neg bool) float64 {
	var v float64
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}
