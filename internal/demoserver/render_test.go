package demoserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/demiplane/demiplane/pkg/dbschema"
)

func TestFieldValueToAnyUnwrapsEveryArm(t *testing.T) {
	assert.Nil(t, fieldValueToAny(dbschema.Null()))
	assert.Equal(t, true, fieldValueToAny(dbschema.ValueOf(true)))
	assert.Equal(t, int32(7), fieldValueToAny(dbschema.ValueOf(int32(7))))
	assert.Equal(t, int64(9), fieldValueToAny(dbschema.ValueOf(int64(9))))
	assert.Equal(t, 1.5, fieldValueToAny(dbschema.ValueOf(1.5)))
	assert.Equal(t, "hi", fieldValueToAny(dbschema.ValueOf("hi")))
}

func TestFieldValueToAnyEncodesBytesAsBase64(t *testing.T) {
	got := fieldValueToAny(dbschema.ValueOf([]byte("ab")))
	assert.Equal(t, "YWI=", got)
}
