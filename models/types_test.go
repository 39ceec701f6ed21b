package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestStringArray_ValueAndScan(t *testing.T) {
	v, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	tests := []struct {
		name  string
		input any
		want  StringArray
	}{
		{"nil", nil, StringArray{}},
		{"empty string", "", StringArray{}},
		{"json bytes", []byte(`["x","y"]`), StringArray{"x", "y"}},
		{"json string", `["only"]`, StringArray{"only"}},
		{"oracle clob", stringer(`["clob"]`), StringArray{"clob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a StringArray
			require.NoError(t, a.Scan(tt.input))
			assert.Equal(t, tt.want, a)
		})
	}

	var a StringArray
	assert.Error(t, a.Scan(42))
}

func TestStringMap_ValueAndScan(t *testing.T) {
	v, err := StringMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	var m StringMap
	require.NoError(t, m.Scan(`{"fetchCron":"*/5 * * * *"}`))
	assert.Equal(t, "*/5 * * * *", m["fetchCron"])

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)
}

func TestDBText_Scan(t *testing.T) {
	var txt DBText
	require.NoError(t, txt.Scan([]byte("content")))
	assert.Equal(t, "content", txt.String())
	require.NoError(t, txt.Scan(nil))
	assert.Equal(t, "", txt.String())
	assert.Error(t, txt.Scan(3.5))
}

func TestDBBool_Scan(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{nil, false},
		{true, true},
		{int64(1), true},
		{int64(0), false},
		{float64(1), true},
		{[]byte("1"), true},
		{[]byte("0"), false},
		{stringer("1"), true},
		{stringer("0"), false},
	}
	for _, tt := range tests {
		var b DBBool
		require.NoError(t, b.Scan(tt.input))
		assert.Equal(t, tt.want, b.Bool(), "input %v", tt.input)
	}

	v, err := DBBool(true).Value()
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestHooks_RejectUnknownEnums(t *testing.T) {
	err := (&Tag{ReferenceType: "NAMESPACE"}).BeforeSave(nil)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	assert.NoError(t, (&Tag{ReferenceType: "ORGANIZATION"}).BeforeSave(nil))
	assert.ErrorIs(t, (&Page{ReferenceType: "API", Visibility: "SECRET"}).BeforeSave(nil), ErrInvalidValue)
	assert.NoError(t, (&Page{ReferenceType: "API"}).BeforeSave(nil))
	assert.ErrorIs(t, (&AsyncJob{Status: "RUNNING"}).BeforeSave(nil), ErrInvalidValue)
	assert.ErrorIs(t, (&Metadata{ReferenceType: "API", Format: "XML"}).BeforeSave(nil), ErrInvalidValue)
	assert.ErrorIs(t, (&PortalNavigationItem{Type: "PAGE", Area: "FOOTER"}).BeforeSave(nil), ErrInvalidValue)
}

func TestTableNames_ChildrenFirst(t *testing.T) {
	names := TableNames()
	require.Len(t, names, len(AllModels()))
	assert.Equal(t, "node_monitoring", names[0])
	assert.Equal(t, "organizations", names[len(names)-1])

	index := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, index("event_properties"), index("events"))
}
