package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" reports/cv.pdf ")
	require.NoError(t, err)
	require.Equal(t, "reports_cv.pdf", got)

	got, err = SanitizeFileName("Jane \"JD\" Doe\n.pdf")
	require.NoError(t, err)
	require.Equal(t, "Jane JD Doe.pdf", got)

	for _, bad := range []string{"", "   ", "../secret.pdf", "\"\""} {
		_, err := SanitizeFileName(bad)
		require.ErrorIs(t, err, ErrInvalidFileName, bad)
	}
}

func TestSanitizeFileNameTrimsLongNamesKeepingExtension(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("é", 200) + ".pdf")
	require.NoError(t, err)
	require.Equal(t, MaxFileNameRunes, utf8.RuneCountInString(got))
	require.True(t, strings.HasSuffix(got, ".pdf"))
}
