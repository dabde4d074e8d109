package component

// Render-facing data consumed by the graphics backend. The core only stores
// it; asset paths are resolved by the importer.

type MeshRef struct {
	Asset   string `yaml:"asset"`
	Submesh int    `yaml:"submesh"`
}

type Material struct {
	Shader string     `yaml:"shader"`
	Color  [4]float32 `yaml:"color,flow"`
}

// Tag groups entities for scripts and tools.
type Tag struct {
	Group string `yaml:"group"`
}
