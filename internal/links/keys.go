package links

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Policy decides where Save puts a new record.
type Policy string

const (
	// PolicyAppend stores the new record under the lowest unused key,
	// which is N+1 whenever the keys are dense.
	PolicyAppend Policy = "append"
	// PolicyPrepend stores the new record under "1" and shifts every
	// existing record up by one.
	PolicyPrepend Policy = "prepend"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAppend, PolicyPrepend:
		return p, nil
	case "":
		return PolicyAppend, nil
	default:
		return "", fmt.Errorf("unknown insert policy %q", s)
	}
}

// keyIndex returns the positive integer a key encodes, or 0.
func keyIndex(key string) int {
	n, err := strconv.Atoi(key)
	if err != nil || n <= 0 || strconv.Itoa(n) != key {
		return 0
	}
	return n
}

// compareKeys orders numeric keys by value and puts any other key after
// them in lexicographic order.
func compareKeys(a, b string) int {
	ia, ib := keyIndex(a), keyIndex(b)
	switch {
	case ia > 0 && ib > 0:
		return ia - ib
	case ia > 0:
		return -1
	case ib > 0:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func sortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return compareKeys(a.Key, b.Key)
	})
}

// renumber assigns keys first, first+1, ... to entries in their current
// order.
func renumber(entries []Entry, first int) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Key: strconv.Itoa(first + i), Record: e.Record}
	}
	return out
}

// firstFreeKey scans upward from "1" so a gap left behind by an older
// writer is filled instead of trusting len+1.
func firstFreeKey(entries []Entry) string {
	used := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		used[e.Key] = struct{}{}
	}
	n := 1
	for {
		k := strconv.Itoa(n)
		if _, ok := used[k]; !ok {
			return k
		}
		n++
	}
}
