package cache

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemberSortsLikeID(t *testing.T) {
	members := []string{member(9), member(10), member(101), member(1)}
	sort.Sort(sort.Reverse(sort.StringSlice(members)))

	assert.Equal(t, []string{member(101), member(10), member(9), member(1)}, members)
	assert.Equal(t, "0000000000000000042", member(42))
}
