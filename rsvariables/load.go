package rsvariables

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrFileNotFound is returned when a requested variables file does not
// exist.
var ErrFileNotFound = errors.New("the variables file does not exist")

// LoadFile loads a plain variables file into the store. The file format is
// selected by extension: .json and .jsonc hold a JSON object (comments
// permitted), .yaml and .yml hold a YAML mapping, and .env holds dotenv
// assignments.
//
// If the file does not exist, the returned error matches ErrFileNotFound.
func LoadFile(store *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("\"%s\": %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("failed to read the variables file \"%s\": %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".jsonc":
		err = loadJSON(store, data)
	case ".yaml", ".yml":
		err = loadYAML(store, data)
	case ".env":
		err = loadDotenv(store, data)
	default:
		return fmt.Errorf("the variables file \"%s\" has an unsupported format \"%s\"", path, ext)
	}

	if err != nil {
		return fmt.Errorf("failed to load the variables file \"%s\": %w", path, err)
	}
	return nil
}

// loadJSON loads variables from a JSON object. Comments and trailing commas
// are stripped before decoding, so .jsonc content is accepted as well.
func loadJSON(store *Store, data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var values map[string]any
	if err := decoder.Decode(&values); err != nil {
		return err
	}
	return applyObject(store, values)
}

// loadYAML loads variables from a YAML mapping.
func loadYAML(store *Store, data []byte) error {
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return err
	}
	return applyObject(store, values)
}

// loadDotenv loads variables from dotenv assignments.
func loadDotenv(store *Store, data []byte) error {
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return err
	}
	for key, value := range values {
		store.Set(key, value)
	}
	return nil
}
