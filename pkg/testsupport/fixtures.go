package testsupport

import (
	"encoding/json"
	"os"
	"testing"
)

// LoadGolden unmarshals a JSON fixture into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// MustLoadGolden unmarshals a JSON fixture into v, failing the test on error.
func MustLoadGolden(t testing.TB, path string, v any) {
	t.Helper()
	if err := LoadGolden(path, v); err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
}
