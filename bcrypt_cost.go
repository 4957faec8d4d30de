//go:build !race

package taskmate

func passwordHashCost() int {
	return 14
}
