package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	assert.True(t, Verify("s3cret", encoded))
	assert.False(t, Verify("wrong", encoded))
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	assert.False(t, Verify("pw", ""))
	assert.False(t, Verify("pw", "$bcrypt$nope"))
	assert.False(t, Verify("pw", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"))
}
