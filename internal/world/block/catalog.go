package block

// ResourcePriority задаёт порядок проверки ресурсов при генерации:
// первый подошедший ресурс занимает ячейку, остальные не проверяются.
// Более редкие руды идут первыми, чтобы их не перекрывал камень.
var ResourcePriority = []BlockID{IronOreBlockID, CoalOreBlockID, StoneBlockID}

// Регистрируем все типы блоков при импорте пакета
func init() {
	Register(GrassBlockID, Descriptor{
		Name:            "grass",
		Color:           0x3fab24,
		Texture:         "textures/dirt.png",
		NormalMap:       "textures/dirt_n.png",
		TopTexture:      "textures/grass_top.png",
		TopNormalMap:    "textures/grass_top_n.png",
		SideTexture:     "textures/grass_side.png",
		SideNormalMap:   "textures/grass_side_n.png",
		BottomTexture:   "textures/dirt.png",
		BottomNormalMap: "textures/dirt_n.png",
	})
	Register(DirtBlockID, Descriptor{
		Name:      "dirt",
		Color:     0x5e4123,
		Texture:   "textures/dirt.png",
		NormalMap: "textures/dirt_n.png",
	})
	Register(StoneBlockID, Descriptor{
		Name:      "stone",
		Color:     0x808080,
		Texture:   "textures/stone.png",
		NormalMap: "textures/stone_n.png",
		Scale:     [3]float64{30, 30, 30},
		Scarcity:  0.12,
	})
	Register(CoalOreBlockID, Descriptor{
		Name:      "coal_ore",
		Color:     0x202020,
		Texture:   "textures/coal_ore.png",
		NormalMap: "textures/coal_ore_n.png",
		Scale:     [3]float64{20, 20, 20},
		Scarcity:  0.3,
	})
	Register(IronOreBlockID, Descriptor{
		Name:      "iron_ore",
		Color:     0x806060,
		Texture:   "textures/iron_ore.png",
		NormalMap: "textures/iron_ore_n.png",
		Scale:     [3]float64{40, 40, 40},
		Scarcity:  0.38,
	})
}
