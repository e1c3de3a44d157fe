package common

// Version is set at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"

const PackageName = "secretvault-builder"
