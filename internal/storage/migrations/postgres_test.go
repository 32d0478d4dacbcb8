package migrations

import (
	"reflect"
	"testing"
)

func TestFilesAreOrdered(t *testing.T) {
	files, err := Files()
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	want := []string{"001_registry.sql", "002_claims.sql"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files mismatch: %v != %v", files, want)
	}
}
