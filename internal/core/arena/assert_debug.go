//go:build !release

package arena

const assertionsEnabled = true
