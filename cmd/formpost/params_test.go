package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParams_Empty(t *testing.T) {
	values, err := buildParams("", "", nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestBuildParams_MergeOrder(t *testing.T) {
	values, err := buildParams("k=data", `{"k":"json"}`, []string{"k=param"})
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "json", "param"}, values["k"])
}

func TestBuildParams_ParamKeepsEquals(t *testing.T) {
	values, err := buildParams("", "", []string{"q=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "a=b", values.Get("q"))
	assert.Contains(t, values, "empty")
	assert.Equal(t, "", values.Get("empty"))
}

func TestBuildParams_InvalidParam(t *testing.T) {
	for _, pair := range []string{"novalue", "=v"} {
		_, err := buildParams("", "", []string{pair})
		assert.Error(t, err, pair)
	}
}

func TestBuildParams_InvalidJSON(t *testing.T) {
	_, err := buildParams("", `["not","an","object"]`, nil)
	assert.Error(t, err)
}

func TestFlattenInto_Nested(t *testing.T) {
	values, err := buildParams("", `{"a":{"b":{"c":"deep"}},"list":["x",{"y":"z"}],"nothing":null}`, nil)
	require.NoError(t, err)

	assert.Equal(t, "deep", values.Get("a[b][c]"))
	assert.Equal(t, []string{"x"}, values["list[]"])
	assert.Equal(t, "z", values.Get("list[][y]"))
	assert.Contains(t, values, "nothing")
	assert.Equal(t, "", values.Get("nothing"))
}

func TestFlattenInto_Scalars(t *testing.T) {
	values, err := buildParams("", `{"count":42}`, nil)
	require.NoError(t, err)
	assert.Contains(t, values.Get("count"), "42")
}
