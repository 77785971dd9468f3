//go:build tools
// +build tools

// Package tools pins the versions of the CLI tools used by go:generate and local development.
package tools

import (
	_ "github.com/air-verse/air"
	_ "github.com/google/wire/cmd/wire"
	_ "github.com/swaggo/swag/cmd/swag"
	_ "go.uber.org/mock/mockgen"
)
