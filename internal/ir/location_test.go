package ir

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationDefaultsToPop(t *testing.T) {
	loc := NewLocation("/inbox")
	assert.Equal(t, "/inbox", loc.Pathname)
	assert.Equal(t, NavPop, loc.Action)
}

func TestWithActionAllocatesNewLocation(t *testing.T) {
	loc := &Location{Pathname: "/a", Search: "?x=1", Key: "k1", Action: NavPop, State: IRObject{"n": IRInt(1)}}

	pushed := loc.WithAction(NavPush)

	assert.NotSame(t, loc, pushed)
	assert.Equal(t, NavPush, pushed.Action)
	assert.Equal(t, NavPop, loc.Action, "original must not change")
	assert.True(t, SamePlace(loc, pushed))

	pushed.State["n"] = IRInt(2)
	assert.Equal(t, IRInt(1), loc.State["n"], "state must be deep copied")
}

func TestSamePlace(t *testing.T) {
	a := &Location{Pathname: "/a", Key: "k1"}
	assert.True(t, SamePlace(a, &Location{Pathname: "/a", Key: "k1", Action: NavPush}))
	assert.False(t, SamePlace(a, &Location{Pathname: "/a", Key: "k2"}))
	assert.False(t, SamePlace(a, &Location{Pathname: "/a", Hash: "#top", Key: "k1"}))
	assert.False(t, SamePlace(a, nil))
	assert.True(t, SamePlace(nil, nil))
}

func TestLocationPathAndString(t *testing.T) {
	loc := &Location{Pathname: "/search", Search: "?q=go", Hash: "#r", Action: NavPush, Key: "abc"}
	assert.Equal(t, "/search?q=go#r", loc.Path())
	assert.Equal(t, "PUSH /search?q=go#r (abc)", loc.String())
	assert.Equal(t, "<nil>", (*Location)(nil).String())
}

func TestDecodeLocation(t *testing.T) {
	orig := &Location{Pathname: "/a", Search: "?b", State: IRObject{"modal": IRBool(true)}, Action: NavReplace, Key: "k"}
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	decoded, err := DecodeLocation(data)
	require.NoError(t, err)
	assert.NotSame(t, orig, decoded)
	if diff := cmp.Diff(orig, decoded); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLocationDefaultsAndErrors(t *testing.T) {
	loc, err := DecodeLocation([]byte(`{"pathname":"/x"}`))
	require.NoError(t, err)
	assert.Equal(t, NavPop, loc.Action)

	_, err = DecodeLocation([]byte(`{"pathname":"/x","action":"JUMP"}`))
	assert.Error(t, err)

	_, err = DecodeLocation([]byte(`not json`))
	assert.Error(t, err)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in                     string
		pathname, search, hash string
	}{
		{"/", "/", "", ""},
		{"/users?page=2", "/users", "?page=2", ""},
		{"/users#top", "/users", "", "#top"},
		{"/users?page=2#top", "/users", "?page=2", "#top"},
		{"/a#frag?not-query", "/a", "", "#frag?not-query"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc := ParsePath(tt.in)
			assert.Equal(t, tt.pathname, loc.Pathname)
			assert.Equal(t, tt.search, loc.Search)
			assert.Equal(t, tt.hash, loc.Hash)
			assert.Equal(t, NavPop, loc.Action)
			assert.Equal(t, tt.in, loc.Path())
		})
	}
}
