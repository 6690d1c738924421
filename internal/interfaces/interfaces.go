// File: internal/interfaces/interfaces.go
// Type aliases to the canonical contracts in api/schemas, so internal packages
// can depend on a single import path.

package interfaces

import (
	"github.com/xkilldash9x/errsynth/api/schemas"
)

type MorphologyService = schemas.MorphologyService
type SentenceSplitter = schemas.SentenceSplitter
type PrepositionStats = schemas.PrepositionStats
type UsageStore = schemas.UsageStore
