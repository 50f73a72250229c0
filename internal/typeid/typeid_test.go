package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIDsCarryPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewProjectID(), "proj_"))
	assert.True(t, strings.HasPrefix(NewObjectID(), "obj_"))
	assert.True(t, strings.HasPrefix(NewAssetID(), "asset_"))
	assert.NotEqual(t, NewObjectID(), NewObjectID())
}

func TestValidate(t *testing.T) {
	id := NewAssetID()
	assert.NoError(t, Validate(id, PrefixAsset))
	assert.Error(t, Validate(id, PrefixProject))
	assert.Error(t, Validate("not an id", PrefixAsset))
}
