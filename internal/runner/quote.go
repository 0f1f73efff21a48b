// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"strings"

	"github.com/invowk/rtprov/pkg/platform"

	"mvdan.cc/sh/v3/syntax"
)

// Quote quotes s as a single argument for the profile's command syntax.
func Quote(p platform.Profile, s string) string {
	if p.Invocation == platform.InvokeBatchScript {
		// Windows paths cannot contain double quotes.
		return `"` + s + `"`
	}
	if q, err := syntax.Quote(s, syntax.LangPOSIX); err == nil {
		return q
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
