package address

import "strings"

// Matches reports whether a normalized address is the same as the input,
// ignoring case and surrounding whitespace. Country is not compared.
func Matches(in Input, n Normalized) bool {
	return same(in.Street1, n.Street1) &&
		same(in.Street2, n.Street2) &&
		same(in.City, n.City) &&
		same(in.State, n.State) &&
		same(in.PostalCode, n.PostalCode)
}

func same(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
