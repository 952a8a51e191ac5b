package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturesAllPass(t *testing.T) {
	fixtures, err := LoadFixtures("fixtures")
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)

	for _, f := range fixtures {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			res := RunFixture(f, nil, nil)
			assert.True(t, res.Ok, "detail: %s", res.Detail)
		})
	}
}
