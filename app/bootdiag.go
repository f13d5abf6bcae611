//go:build !(tinygo && bootdebug)

package app

import "ember/hal"

func bootDiagSetStep(string) {}

func bootDiagStart(hal.HAL) {}
