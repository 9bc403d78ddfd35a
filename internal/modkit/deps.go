// Package modkit provides module wiring and core deps
package modkit

import (
	"scamwatch/internal/core/corpus"
	"scamwatch/internal/core/signature"
	"scamwatch/internal/platform/config"
	"scamwatch/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log    logger.Logger
	Cfg    config.Conf
	Guilds config.Guilds

	// shared core handles, nil is fine for modules that do not use them
	Corpus *corpus.Store
	Engine *signature.Engine
}

// ZeroOK returns true when deps are safe to use with zero values in tests
func (d Deps) ZeroOK() bool { return true }
