package version

// Version is overridden at build time with -ldflags "-X gptcli/internal/version.Version=...".
var Version = "dev"
