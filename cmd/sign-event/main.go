package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-guard/webhook/signature"
)

/* sign-event - Standalone CLI tool to sign a payload file for testing
 * Prints the header set a sender would attach to the delivery
 * Usage: go run cmd/sign-event/main.go -secret <secret> [-legacy] payload.json
 */

func main() {
	secret := flag.String("secret", "", "signing secret")
	legacy := flag.Bool("legacy", false, "use the legacy HMAC-SHA1 scheme")
	flag.Parse()

	if *secret == "" || flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: sign-event -secret <secret> [-legacy] payload.json")
		os.Exit(1)
	}

	body, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading payload file: %v\n", err)
		os.Exit(1)
	}

	if *legacy {
		fmt.Printf("%s: %s\n", signature.HeaderSignature1, signature.Sign1(*secret, body))
		return
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	fmt.Printf("%s: %s\n", signature.HeaderTimestamp, timestamp)
	fmt.Printf("%s: %s\n", signature.HeaderSignature256, signature.Sign256(*secret, timestamp, body))
}
