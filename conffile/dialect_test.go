package conffile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialectNames(t *testing.T) {
	a, err := ParseAssignment("equals, colon")
	require.NoError(t, err)
	assert.Equal(t, AssignmentEquals|AssignmentColon, a)

	c, err := ParseComment("shell,save")
	require.NoError(t, err)
	assert.Equal(t, CommentShell|CommentSave, c)

	s, err := ParseSection("INI,cpp")
	require.NoError(t, err)
	assert.Equal(t, SectionINI|SectionCPP, s)

	s, err = ParseSection("none")
	require.NoError(t, err)
	assert.Zero(t, s)

	lc, err := ParseContinuation("rfc-822")
	require.NoError(t, err)
	assert.Equal(t, ContinuationRFC822, lc)

	ns, err := ParseNameSeparator("underscores")
	require.NoError(t, err)
	assert.Equal(t, NameSeparatorUnderscores, ns)

	_, err = ParseComment("perl")
	assert.ErrorIs(t, err, ErrInvalidSetup)
	_, err = ParseContinuation("cobol")
	assert.ErrorIs(t, err, ErrInvalidSetup)
	_, err = ParseNameSeparator("spaces")
	assert.ErrorIs(t, err, ErrInvalidSetup)
}
