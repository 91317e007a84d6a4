// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

func TestFromOrderedKeepsDeclarationOrder(t *testing.T) {
	raw := `
languages:
  zulu: http://z
  arabic: http://a
countries:
  morocco: http://ma
  algeria: http://dz
`
	dims := orderedmap.New[string, *orderedmap.OrderedMap[string, string]]()
	require.NoError(t, yaml.Unmarshal([]byte(raw), dims))

	cat := FromOrdered(dims)
	groups := cat.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, Languages, groups[0].Dimension)
	assert.Equal(t, []Descriptor{{Name: "zulu", URL: "http://z"}, {Name: "arabic", URL: "http://a"}}, groups[0].Sources)
	assert.Equal(t, Countries, groups[1].Dimension)
	assert.Equal(t, 4, cat.Len())

	st := cat.Structure()
	keys, ok := st.Get(Countries)
	require.True(t, ok)
	assert.Equal(t, []string{"morocco", "algeria"}, keys)
	assert.Equal(t, Languages, st.Oldest().Key)
}

func TestLookup(t *testing.T) {
	cat := NewCatalog(Group{Dimension: Categories, Sources: []Descriptor{{Name: "news", URL: "http://n"}}})

	d, ok := cat.Lookup(Categories, "news")
	require.True(t, ok)
	assert.Equal(t, "http://n", d.URL)

	_, ok = cat.Lookup(Categories, "kids")
	assert.False(t, ok)
	_, ok = cat.Lookup(Languages, "news")
	assert.False(t, ok)
}

func TestFromOrderedNil(t *testing.T) {
	assert.Empty(t, FromOrdered(nil).Groups())
}

func TestKeywordsFor(t *testing.T) {
	set := SportsSet{Keywords: []string{"bein"}}
	assert.Equal(t, []string{"bein"}, set.KeywordsFor(Descriptor{}))
	assert.Equal(t, []string{"bein", "ssc"}, set.KeywordsFor(Descriptor{Categories: []string{"ssc"}}))
}
