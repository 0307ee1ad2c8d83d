// Package alphanum compares names the way people expect file listings to be
// ordered: runs of ASCII digits compare by numeric value ("file2" < "file10"),
// everything else compares with a locale-aware collator.
package alphanum

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// comparator orders strings alphanumerically. Collators are not safe for
// concurrent use, so access is serialized.
type comparator struct {
	mu       sync.Mutex
	collator *collate.Collator
}

var defaultComparator = &comparator{collator: collate.New(language.Und)}

// Compare returns a negative number when a sorts before b, a positive number
// when it sorts after, and zero when they are equivalent. Text runs are
// collated with the root locale, which is case-sensitive only as a final
// tie-breaker.
func Compare(a, b string) int {
	return defaultComparator.compare(a, b)
}

func (c *comparator) compare(a, b string) int {
	if a == "" || b == "" {
		return compareEmpty(a, b)
	}

	var result int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		aDigit := isDigit(a[i])
		bDigit := isDigit(b[j])

		var aRun, bRun string
		switch {
		case aDigit && bDigit:
			aRun = run(a, i, true)
			bRun = run(b, j, true)
			result = compareNumbers(aRun, bRun)
		case aDigit:
			result = -1
		case bDigit:
			result = 1
		default:
			aRun = run(a, i, false)
			bRun = run(b, j, false)
			result = c.collate(aRun, bRun)
		}

		if result != 0 {
			return result
		}

		i += len(aRun)
		j += len(bRun)
	}

	return len(a) - len(b)
}

func (c *comparator) collate(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}

func compareEmpty(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// compareNumbers compares two digit runs by value without converting them,
// so runs of any length are ordered correctly.
func compareNumbers(a, b string) int {
	an := strings.TrimLeft(a, "0")
	bn := strings.TrimLeft(b, "0")
	if len(an) != len(bn) {
		return len(an) - len(bn)
	}
	return strings.Compare(an, bn)
}

// run returns the maximal run starting at index whose characters are all
// digits (digit == true) or all non-digits.
func run(s string, index int, digit bool) string {
	end := index + 1
	for end < len(s) && isDigit(s[end]) == digit {
		end++
	}
	return s[index:end]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
