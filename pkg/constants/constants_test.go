package constants

import (
	"reflect"
	"testing"
)

func TestMergeEnvs(t *testing.T) {
	transfer := map[string]string{"drive_folder": LegacyDriveFolderEnv, "chunk_size": LegacyChunkSizeEnv}
	server := map[string]string{"server.port": LegacyPortEnv}

	merged := MergeEnvs(transfer, server)
	expected := map[string]string{
		"drive_folder": "DRIVEFOLDER",
		"chunk_size":   "CHUNK_SIZE",
		"server.port":  "PORT",
	}
	if !reflect.DeepEqual(merged, expected) {
		t.Errorf("MergeEnvs failed, expected %v, got %v", expected, merged)
	}

	merged["drive_folder"] = "OTHER"
	if transfer["drive_folder"] != LegacyDriveFolderEnv {
		t.Errorf("MergeEnvs must not modify its inputs")
	}
}

func TestMergeEnvsLaterWins(t *testing.T) {
	merged := MergeEnvs(map[string]string{"a": "X"}, map[string]string{"a": "Y"})
	if merged["a"] != "Y" {
		t.Errorf("MergeEnvs failed, expected Y, got %s", merged["a"])
	}
}
