// Package model provides the canonical metadata types for fascicle.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal. Raw* types mirror the
// Kisaragi Press API wire format (camelCase JSON); the resolved Series,
// Volume and Part types wrap them with the hierarchy and ordinals the rest
// of the tool works with.
package model
