package podgen

// Version of podgen attached to every pod it builds.
// Overridden at build time: -ldflags "-X github.com/radiofrance/podgen/pkg/podgen.Version=...".
var Version = "0.0.0+dev"
