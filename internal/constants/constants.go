// Package constants defines shared constant values used across vcsync.
package constants

// Directory and file names.
const (
	// VcsyncHome is the hidden directory name where vcsync stores its data.
	// Resolved under $HOME unless VCSYNC_HOME overrides it.
	VcsyncHome = ".vcsync"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// CLILogFileName is the name of the global CLI log file.
	CLILogFileName = "vcsync.log"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "config.yaml"

	// ManifestFileName is the default workspace manifest file name.
	ManifestFileName = "workspace.yaml"
)

// Log rotation settings (lumberjack).
const (
	// LogMaxSizeMB is the maximum size in megabytes before rotation.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum age in days before a rotated file is removed.
	LogMaxAgeDays = 30

	// LogCompress controls gzip compression of rotated files.
	LogCompress = true
)

// TrustedRemote is the single remote name the git adapter treats as the
// meaningful upstream. Branches tracking any other remote are untracked.
const TrustedRemote = "origin"
