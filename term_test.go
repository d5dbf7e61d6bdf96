package ftgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntTerm(t *testing.T) {
	term := NewIntTerm(-42)
	require.Equal(t, TermInt, term.Type())
	require.Equal(t, int64(-42), term.IntValue())
	require.Equal(t, "int", term.Type().String())
}

func TestStringTermBoundedCopy(t *testing.T) {
	buf := []byte("united states")
	term, err := NewStringTerm(buf, 6)
	require.NoError(t, err)
	require.Equal(t, TermString, term.Type())
	require.Equal(t, []byte("united"), term.StringValue())

	// The term owns its bytes; mutating the source must not leak in.
	buf[0] = 'X'
	require.Equal(t, []byte("united"), term.StringValue())
}

func TestStringTermLengthValidation(t *testing.T) {
	_, err := NewStringTerm([]byte("abc"), 4)
	require.Error(t, err)

	_, err = NewStringTerm([]byte("abc"), -1)
	require.Error(t, err)

	term, err := NewStringTerm([]byte("abc"), 0)
	require.NoError(t, err)
	require.Empty(t, term.StringValue())
}
