// Command verikit runs constrained-random self-checking benches against the
// bundled device models.
package main

func main() {
	Execute()
}
