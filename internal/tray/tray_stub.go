//go:build !tray

package tray

import (
	"context"
	"fmt"
)

func Run(_ context.Context, _ Deps) int {
	fmt.Println("glucobar: tray mode not available in this build")
	fmt.Println("rebuild with: go build -tags tray ./cmd/glucobar")
	return 1
}
