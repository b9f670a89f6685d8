// Package names derives the set of slave names for a create request.
package names

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"multislave-config/internal/common"
	"multislave-config/internal/features/fleet/domain"
)

// DeriveNames returns the sorted union of the whitespace separated
// explicit names and the numbered names prefix+first .. prefix+last. The
// numbers are zero padded to the width first was written with. Names
// that are already registered fail the whole request.
func DeriveNames(reg domain.Registry, explicit, prefix, first, last string) ([]string, error) {
	set := make(map[string]struct{})

	for _, name := range strings.Fields(explicit) {
		if err := domain.CheckGoodName(name); err != nil {
			return nil, err
		}
		set[name] = struct{}{}
	}

	if prefix != "" {
		if err := domain.CheckGoodName(prefix); err != nil {
			return nil, err
		}
		from, errFirst := strconv.Atoi(first)
		to, errLast := strconv.Atoi(last)
		if errFirst != nil || errLast != nil || from > to {
			return nil, common.NewInvalidIntervalError(prefix, first, last)
		}
		width := len(first)
		for i := from; i <= to; i++ {
			set[fmt.Sprintf("%s%0*d", prefix, width, i)] = struct{}{}
		}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	var existing []string
	if reg != nil {
		for _, name := range names {
			if _, ok := reg.Get(name); ok {
				existing = append(existing, name)
			}
		}
	}
	if len(existing) > 0 {
		return nil, common.NewNameConflictError(existing)
	}
	return names, nil
}
