package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameSetAssign(t *testing.T) {
	t.Run("CollisionsGetIncreasingSuffix", func(t *testing.T) {
		s := NewNameSet()
		for _, want := range []string{"report", "report (1)", "report (2)"} {
			got, err := s.Assign("report")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("SuffixGoesBeforeExtension", func(t *testing.T) {
		s := NewNameSet()
		_, _ = s.Assign("a.tar.gz")
		got, err := s.Assign("a.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, "a.tar (1).gz", got)
	})

	t.Run("LeadingDotIsNotExtension", func(t *testing.T) {
		s := NewNameSet()
		_, _ = s.Assign(".profile")
		got, err := s.Assign(".profile")
		require.NoError(t, err)
		assert.Equal(t, ".profile (1)", got)
	})

	t.Run("SkipsVariantsAlreadyTaken", func(t *testing.T) {
		s := NewNameSet()
		_, _ = s.Assign("x (1)")
		_, _ = s.Assign("x")
		got, err := s.Assign("x")
		require.NoError(t, err)
		assert.Equal(t, "x (2)", got)
	})

	t.Run("Exhausted", func(t *testing.T) {
		s := newNameSet(2)
		for i := 0; i < 3; i++ {
			_, err := s.Assign("x")
			require.NoError(t, err)
		}
		_, err := s.Assign("x")
		assert.ErrorIs(t, err, ErrNameSpaceExhausted)
	})
}

func TestDeduplicate(t *testing.T) {
	entries := []Entry{
		{Name: "report", URL: "http://h/1"},
		{Name: "other", URL: "http://h/2"},
		{Name: "report", URL: "http://h/3"},
		{Name: "report", URL: "http://h/4"},
	}

	got := newNameSet(1).Deduplicate(entries)

	require.Len(t, got, 3)
	assert.Equal(t, "report", got[0].Name)
	assert.Equal(t, "other", got[1].Name)
	assert.Equal(t, "report (1)", got[2].Name)
	assert.Equal(t, "http://h/3", got[2].URL)
}
