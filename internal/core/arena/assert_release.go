//go:build release

package arena

const assertionsEnabled = false
