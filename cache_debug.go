//go:build tlbcache_debug

package tlbcache

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
