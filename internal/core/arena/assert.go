package arena

import "fmt"

// Assert panics with the formatted message when cond is false. Programmer
// misuse is fatal in regular builds; with -tags release it is ignored.
func Assert(cond bool, format string, args ...any) {
	if cond || !assertionsEnabled {
		return
	}
	panic(fmt.Sprintf(format, args...))
}

// AssertionsEnabled reports whether failed assertions panic in this build.
func AssertionsEnabled() bool { return assertionsEnabled }
