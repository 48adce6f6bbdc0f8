package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteKey(t *testing.T) {
	assert.Equal(t, "12-3-a-math", RemoteKey("/watch/root/12-3-a-math.pdf"))
	assert.Equal(t, "12-3-a-math", RemoteKey("/watch/root/nested/dir/12-3-a-math.pdf"))
	assert.Equal(t, "12-3-a-math", RemoteKey("12-3-a-math"))
}
