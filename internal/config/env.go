package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvVars maps recognized environment variables to configuration keys.
var EnvVars = map[string]string{
	"PHOTO_LIBRARY":      KeyLibrary,
	"FOLDER_STRUCTURE":   KeyFolderStructure,
	"NAMING_PATTERN":     KeyNamingPattern,
	"DEFAULT_AUTHOR":     KeyAuthor,
	"DEFAULT_COPYRIGHT":  KeyCopyright,
	"DEFAULT_CREDIT":     KeyCredit,
	"DEFAULT_LOCATION":   KeyLocation,
	"GENERATE_CHECKSUMS": KeyGenerateChecksums,
	"CHECKSUM_ALGORITHM": KeyChecksumAlgorithm,
	"CONFIRM_DELETE":     KeyConfirmDelete,
	"PG_NON_INTERACTIVE": KeyNonInteractive,
	"PG_WORKERS":         KeyWorkers,
	"PG_TOOL_TIMEOUT":    KeyToolTimeout,
	"PG_METADATA_READER": KeyMetadataReader,
	"EXIFTOOL_PATH":      KeyExiftoolPath,
}

// DotEnvCandidates lists where a .env file is looked for when none is given.
func DotEnvCandidates() []string {
	var candidates []string
	if root := os.Getenv("PIXELGROOMER_ROOT"); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	return append(candidates, ".env")
}

// LoadDotEnv reads the first existing file among paths. A missing file is
// not an error; a malformed one is.
func LoadDotEnv(paths ...string) (map[string]string, string, error) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return values, path, nil
	}
	return map[string]string{}, "", nil
}

// EnvLayer builds the environment layer: process variables take priority
// over values read from a .env file.
func EnvLayer(lookup func(string) (string, bool), dotenv map[string]string) Layer {
	values := map[string]string{}
	for name, key := range EnvVars {
		if value, ok := dotenv[name]; ok {
			values[key] = value
		}
		if lookup == nil {
			continue
		}
		if value, ok := lookup(name); ok && value != "" {
			values[key] = value
		}
	}
	return Layer{Name: "env", Values: values}
}
