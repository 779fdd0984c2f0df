package song

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Extension is the save-file suffix recognized by the query classifier.
const Extension = ".songfetch"

// IsSaveFile reports whether path names a save file.
func IsSaveFile(path string) bool {
	return strings.HasSuffix(path, Extension)
}

// LoadSaveFile reads a save file: a JSON array of serialized songs.
// Deserialized records carry no collection back-reference; their list
// context, if any, survives only as the flat list_* snapshot fields.
func LoadSaveFile(path string) ([]Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file %s: %w", path, err)
	}

	songs, err := ParseSaveFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse save file %s: %w", path, err)
	}

	return songs, nil
}

// ParseSaveFile decodes a save-file payload.
func ParseSaveFile(data []byte) ([]Song, error) {
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// WriteSaveFile writes songs as an indented JSON array, the same shape
// LoadSaveFile reads back.
func WriteSaveFile(path string, songs []Song) error {
	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize songs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write save file %s: %w", path, err)
	}

	return nil
}
