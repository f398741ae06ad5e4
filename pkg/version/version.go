package version

import "runtime/debug"

var version = "dev"

// Version returns the module version recorded in the build info, falling back
// to the value injected via -ldflags or Set.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Set overrides the fallback version string. Empty values are ignored.
func Set(v string) {
	if v != "" {
		version = v
	}
}

// UserAgent identifies mcpcsv binaries to LLM providers and MCP clients.
func UserAgent(binary string) string {
	if binary == "" {
		binary = "mcpcsv"
	}
	return binary + "/" + Version()
}
