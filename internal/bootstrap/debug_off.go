//go:build !debug

package bootstrap

// DebugBuild is false in release builds.
const DebugBuild = false
