package main

import (
	"fmt"
	"os"

	"github.com/marcelsud/webhook-guard/dependency"
)

/* validate-deps - Standalone CLI tool to validate dependencies.yaml
 * Usage: go run cmd/validate-deps/main.go [dependencies.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	depsFile := "dependencies.yaml"
	if len(os.Args) > 1 {
		depsFile = os.Args[1]
	}

	fmt.Printf("Validating dependencies file: %s\n\n", depsFile)

	loader := dependency.NewLoader()
	if err := loader.Load(depsFile); err != nil {
		fmt.Fprintf(os.Stderr, "VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	deps := loader.List()
	fmt.Printf("VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d dependenc(ies):\n", len(deps))

	for i, dep := range deps {
		fmt.Printf("\n%d. Dependency: %s\n", i+1, dep.Name)
		fmt.Printf("   Timeout: %s\n", dep.Timeout)
		fmt.Printf("   Max retries: %d\n", dep.MaxRetries)
		fmt.Printf("   Failure threshold: %d\n", dep.FailureThreshold)
		fmt.Printf("   Reset timeout: %s\n", dep.ResetTimeout)
		fmt.Printf("   Half-open requests: %d\n", dep.HalfOpenRequests)
		fmt.Printf("   Dedup TTL: %s\n", dep.DedupTTL)
	}
}
