package util_test

import (
	"testing"

	"github.com/hktouw/formtree/internal/util"
)

func TestFastEqual(t *testing.T) {
	calls := 0
	eq := func(a, b *int) bool {
		calls++
		return *a == *b
	}
	one, other := 1, 1
	two := 2

	cases := []struct {
		note  string
		a, b  *int
		exp   bool
		calls int
	}{
		{note: "both nil", exp: true},
		{note: "one nil", a: &one, exp: false},
		{note: "same pointer", a: &one, b: &one, exp: true},
		{note: "equal values", a: &one, b: &other, exp: true, calls: 1},
		{note: "different values", a: &one, b: &two, exp: false, calls: 1},
	}
	for _, tc := range cases {
		calls = 0
		if got := util.FastEqual(tc.a, tc.b, eq); got != tc.exp {
			t.Errorf("%s: expected %v, got %v", tc.note, tc.exp, got)
		}
		if calls != tc.calls {
			t.Errorf("%s: expected %d calls, got %d", tc.note, tc.calls, calls)
		}
	}
}
