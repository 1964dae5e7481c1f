package tree

import "fmt"

// Condition is an equality test between a node attribute and an expected
// string. Key is a canonical attribute name (see Keys.Canonical).
type Condition struct {
	Key   string `json:"key"`
	Match string `json:"match"`
}

func (c Condition) String() string {
	return fmt.Sprintf("%s == %q", c.Key, c.Match)
}

// Matches reports whether n satisfies every condition. Absent attributes
// stringify to "", so they only match an explicit empty-string condition.
// An empty condition list matches every node.
func Matches(conds []Condition, n *RawNode) bool {
	for _, c := range conds {
		if n.Attr(c.Key) != c.Match {
			return false
		}
	}
	return true
}
