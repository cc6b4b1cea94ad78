//go:build debug

package bootstrap

// DebugBuild is true when built with -tags debug; the inspector opens on start.
const DebugBuild = true
