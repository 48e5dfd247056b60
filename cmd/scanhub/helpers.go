package main

import (
	"fmt"
	"strconv"
)

func parseID(value, label string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", label, value)
	}
	return id, nil
}

func readinessLabel(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
