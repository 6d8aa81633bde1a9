package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sketchwall-server-go/internal/bootstrap"
)

func main() {
	fmt.Printf("[%s] [INFO] [Bootstrap] starting sketchwall-server...\n", time.Now().Format("2006-01-02 15:04:05.000"))
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "sketchwall-server failed: %v\n", err)
		os.Exit(1)
	}
}
