// Package workload generates the key sequences fed to trees by the CLI and benchmarks.
package workload

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	ErrUnknownOrder = errors.New("unknown order")
	ErrInvalidKey   = errors.New("invalid key")
)

// Order is the arrangement of generated keys.
type Order int

// Supported orders.
const (
	Ascending Order = iota
	Descending
	Shuffled
)

var orderNames = [...]string{
	Ascending:  "ascending",
	Descending: "descending",
	Shuffled:   "shuffled",
}

func (o Order) String() string {
	if o < 0 || int(o) >= len(orderNames) {
		return "Order(" + strconv.Itoa(int(o)) + ")"
	}

	return orderNames[o]
}

// Orders lists every supported order.
func Orders() []Order {
	return []Order{Ascending, Descending, Shuffled}
}

// ParseOrder resolves an order name, case-insensitively.
func ParseOrder(name string) (Order, error) {
	for idx, known := range orderNames {
		if strings.EqualFold(name, known) {
			return Order(idx), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownOrder, name)
}

// Generate returns the keys 1..count arranged by order. Shuffled output is
// deterministic for a given seed.
func Generate(order Order, count int, seed int64) []int64 {
	if count <= 0 {
		return nil
	}

	keys := make([]int64, count)

	for idx := range keys {
		keys[idx] = int64(idx + 1)
	}

	switch order {
	case Descending:
		for idx := range keys {
			keys[idx] = int64(count - idx)
		}
	case Shuffled:
		rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible workloads, not security.
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	case Ascending:
	}

	return keys
}

// ParseKeys converts decimal arguments into keys.
func ParseKeys(args []string) ([]int64, error) {
	keys := make([]int64, 0, len(args))

	for _, arg := range args {
		key, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, arg)
		}

		keys = append(keys, key)
	}

	return keys, nil
}
