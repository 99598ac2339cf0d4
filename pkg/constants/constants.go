package constants

// Application constants
var (
	AppName = "gcs2drive"
	// EnvPrefix prefixes every environment variable, e.g. GCS2DRIVE_DRIVE_FOLDER.
	EnvPrefix = AppName
)

// Environment variables kept from the first deployments, which predate the prefix.
const (
	LegacyDriveFolderEnv = "DRIVEFOLDER"
	LegacyChunkSizeEnv   = "CHUNK_SIZE"
	LegacyPortEnv        = "PORT"
)

// MergeEnvs combines legacy environment maps; later maps win on duplicate keys.
func MergeEnvs(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for key, env := range m {
			merged[key] = env
		}
	}
	return merged
}
