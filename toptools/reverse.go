package toptools

// Reverse returns a reversed copy of input, leaving input untouched.
func Reverse[T any](input []T) []T {
	result := make([]T, len(input))
	for i, item := range input {
		result[len(input)-1-i] = item
	}

	return result
}
