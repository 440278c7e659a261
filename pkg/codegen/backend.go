package codegen

import (
	"bytes"

	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/config"
	"github.com/ahtishamdilawar/CForge-mini-compiler/pkg/ir"
)

// Backend renders a lowered module. GenerateIR produces the textual
// module for downstream tools; Generate goes all the way to target
// assembly.
type Backend interface {
	GenerateIR(mod *ir.Module, cfg *config.Config) (string, error)
	Generate(mod *ir.Module, cfg *config.Config) (*bytes.Buffer, error)
}
