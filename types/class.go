package types

import (
	"encoding/json"

	"github.com/halcyonlabs/starknode/felt"
)

// ClassInfo is the metadata stored for a declared class. CompiledClassHash is
// zero for legacy (Cairo 0) classes, which have no separate compiled artifact.
type ClassInfo struct {
	CompiledClassHash felt.Felt       `json:"compiled_class_hash"`
	SierraVersion     string          `json:"sierra_version,omitempty"`
	Definition        json.RawMessage `json:"definition,omitempty"`
}

// ConvertedClass is a class declaration after upstream conversion, ready for
// storage. Compiled is nil for legacy classes.
type ConvertedClass struct {
	ClassHash felt.Felt      `json:"class_hash"`
	Info      ClassInfo      `json:"info"`
	Compiled  *CompiledClass `json:"compiled,omitempty"`
}

func (c *ConvertedClass) IsLegacy() bool {
	return c.Compiled == nil
}

// CompiledClass is the compiled-program artifact of a Sierra class, opaque to
// this pipeline.
type CompiledClass struct {
	Program json.RawMessage `json:"program"`
}
