package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportFileName is the per-source settings file placed on a card.
const ImportFileName = ".import.yaml"

// importFileDirs are searched below the scan root, in order.
var importFileDirs = []string{".", "DCIM"}

// ImportFile is the content of an .import.yaml file. Unknown keys are
// ignored.
type ImportFile struct {
	Event     string     `yaml:"event"`
	Location  string     `yaml:"location"`
	Author    string     `yaml:"author"`
	Copyright string     `yaml:"copyright"`
	Credit    string     `yaml:"credit"`
	Archive   string     `yaml:"archive"`
	Tags      stringList `yaml:"tags"`
	Pattern   string     `yaml:"pattern"`
	GPS       string     `yaml:"gps"`
}

// stringList accepts either a YAML sequence or a single comma-separated
// scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
	case yaml.ScalarNode:
		var joined string
		if err := node.Decode(&joined); err != nil {
			return err
		}
		*l = strings.Split(joined, ",")
	default:
		return fmt.Errorf("line %d: tags must be a list or string", node.Line)
	}
	return nil
}

// FindImportFile returns the path of the first settings file found under
// root, or "" when there is none.
func FindImportFile(root string) string {
	for _, dir := range importFileDirs {
		path := filepath.Join(root, dir, ImportFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func ReadImportFile(path string) (ImportFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportFile{}, err
	}
	var file ImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ImportFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return file, nil
}

// Layer converts the file into the lowest non-default layer.
func (f ImportFile) Layer() Layer {
	var tags []string
	for _, tag := range f.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	values := map[string]string{
		KeyEvent:         f.Event,
		KeyLocation:      f.Location,
		KeyAuthor:        f.Author,
		KeyCopyright:     f.Copyright,
		KeyCredit:        f.Credit,
		KeyLibrary:       expandHome(f.Archive),
		KeyTags:          strings.Join(tags, ","),
		KeyNamingPattern: f.Pattern,
		KeyGPS:           f.GPS,
	}
	return Layer{Name: ImportFileName, Values: values}
}

// FileLayer locates and reads the settings file under root. It returns an
// empty layer when no file exists.
func FileLayer(root string) (Layer, string, error) {
	path := FindImportFile(root)
	if path == "" {
		return Layer{Name: ImportFileName}, "", nil
	}
	file, err := ReadImportFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Layer{Name: ImportFileName}, "", nil
	}
	if err != nil {
		return Layer{}, path, err
	}
	return file.Layer(), path, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
