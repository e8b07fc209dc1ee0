package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These tests exercise pure helpers only — connecting to a real Redis
// instance is a host/integration concern outside unit test scope.

func TestCheckpointKeyLayout(t *testing.T) {
	s := &RedisCheckpointStore{keyPrefix: "asc:checkpoint"}
	assert.Equal(t, "asc:checkpoint:checkpoint:chk_1", s.checkpointKey("chk_1"))
	assert.Equal(t, "asc:checkpoint:index", s.indexKey())
	assert.Equal(t, "asc:checkpoint:children:chk_parent", s.childrenKey("chk_parent"))
	assert.Equal(t, "asc:checkpoint:claim:chk_1", s.claimKey("chk_1"))
}

func TestInstanceIDIsStable(t *testing.T) {
	s := &RedisCheckpointStore{instanceID: "fixed-instance"}
	assert.Equal(t, "fixed-instance", s.InstanceID())
}

func TestGenerateInstanceIDIsNonEmpty(t *testing.T) {
	id := generateInstanceID()
	assert.NotEmpty(t, id)
}

func TestEnvHelpersFallBackToDefault(t *testing.T) {
	assert.Equal(t, "default", getEnv("ASC_TEST_UNSET_VAR", "default"))
	assert.Equal(t, 42, getEnvInt("ASC_TEST_UNSET_VAR", 42))
}
