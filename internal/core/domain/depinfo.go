package domain

// DepInfo is the parsed dependency-info a compiler emits: every file the
// compilation read, the environment variables the source referenced, and
// optional content checksums the compiler computed itself.
type DepInfo struct {
	// Files are the paths exactly as the compiler listed them.
	Files []string
	// Env holds the referenced variables and the values the compiler saw.
	Env []EnvVar
	// Checksums maps a listed path to the digest the compiler reported for it.
	Checksums map[string]FileChecksum
}

// FileChecksum is a compiler-reported digest together with the file length.
type FileChecksum struct {
	Digest ContentDigest
	Size   int64
}

// BuildScriptOutput is the parsed stdout of a build-script run.
type BuildScriptOutput struct {
	// RerunIfChanged are the paths the script asked to be watched.
	RerunIfChanged []string
	// RerunIfEnvChanged are the variables the script asked to be watched.
	RerunIfEnvChanged []string
	// Warnings are the warning directives, kept for display.
	Warnings []string
}
