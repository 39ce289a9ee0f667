//go:build !tlbcache_debug

package tlbcache

const debugging = false

func assert(bool, string) {}
