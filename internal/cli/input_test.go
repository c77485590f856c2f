package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleText_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetWithDefault(t *testing.T) {
	var out bytes.Buffer
	got, err := GetWithDefault(rdr("\n"), "Machine", "M1", &out)
	require.NoError(t, err)
	assert.Equal(t, "M1", got)
	assert.Contains(t, out.String(), "Machine [M1]")

	got, err = GetWithDefault(rdr("M2\n"), "Machine", "M1", &out)
	require.NoError(t, err)
	assert.Equal(t, "M2", got)
}

func TestGetLines(t *testing.T) {
	var out bytes.Buffer
	got, err := GetLines(rdr("a\n b \n\nc\n"), "Lines", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = GetLines(rdr("x\ny"), "Lines", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestGetPIN(t *testing.T) {
	oldTerm, oldRead := stdinIsTerminal, readPassword
	t.Cleanup(func() { stdinIsTerminal, readPassword = oldTerm, oldRead })

	var out bytes.Buffer
	stdinIsTerminal = func() bool { return false }
	pin, err := GetPIN(rdr("1234\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), pin)

	stdinIsTerminal = func() bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("9876"), nil }
	pin, err = GetPIN(rdr(""), &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("9876"), pin)

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPIN(rdr(""), &out)
	require.Error(t, err)
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{"y\n": true, "DA\n": true, "yes\n": true, "n\n": false, "\n": false} {
		var out bytes.Buffer
		got, err := Confirm(rdr(in), "Sure?", &out)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, "NUJNO", string(parseStatus("nujno")))
	assert.Equal(t, "CAKA_DELE", string(parseStatus("čaka dele")))
	assert.Equal(t, "CAKA_DELE", string(parseStatus("CAKA_DELE")))
	assert.Equal(t, "OK", string(parseStatus("whatever")))
}
