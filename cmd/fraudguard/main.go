package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/securetrust-dev/fraudguard/internal/api"
	"github.com/securetrust-dev/fraudguard/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	command := strings.ToUpper(os.Args[1])
	args := os.Args[2:]

	// TOKEN is local-only: it mints an API credential from the shared secret.
	if command == "TOKEN" {
		if len(args) < 1 {
			log.Fatal("Usage: fraudguard TOKEN <subject>")
		}
		token, err := api.GenerateToken([]byte(os.Getenv("FRAUDGUARD_API_SECRET")), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	addr := os.Getenv("FRAUDGUARD_ADDR")
	if addr == "" {
		addr = "localhost:7101"
	}

	client, err := sdk.Connect(addr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer client.Close()

	switch command {
	case "LIST":
		names, err := client.ListCases()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(names)

	case "GET":
		if len(args) < 1 {
			log.Fatal("Usage: fraudguard GET <customer name>")
		}
		found, err := client.GetCase(strings.Join(args, " "))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(found)

	case "PING":
		if err := client.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("PONG")

	case "CALL":
		runCall(client, args)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

// runCall drives one interactive verification conversation: the connection
// holds the session, so LOAD/ANSWER/CONFIRM lines typed here walk the same
// workflow the voice runtime does.
func runCall(client *sdk.Client, args []string) {
	if len(args) > 0 {
		result, err := client.LoadCase(strings.Join(args, " "))
		if err != nil {
			log.Fatal(err)
		}
		printResult(result)
	}

	fmt.Println("Interactive call. Commands: LOAD <name>, ANSWER <text>, DETAILS, CONFIRM, DENY, CLOSE, QUIT.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "QUIT") {
			return
		}

		payload, err := client.Send(line)
		if err != nil {
			fmt.Println("ERR:", err)
			continue
		}
		prettyPrint(payload)
	}
}

func printUsage() {
	fmt.Println("FraudGuard CLI - operator console for the fraud desk")
	fmt.Println("\nUsage:")
	fmt.Println("  fraudguard CALL [customer name]   start an interactive verification call")
	fmt.Println("  fraudguard LIST                   list stored fraud cases")
	fmt.Println("  fraudguard GET <customer name>    show one fraud case")
	fmt.Println("  fraudguard PING                   check the daemon is reachable")
	fmt.Println("  fraudguard TOKEN <subject>        mint an HTTP API bearer token")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  FRAUDGUARD_ADDR           Console address (default: localhost:7101)")
	fmt.Println("  FRAUDGUARD_DISABLE_TLS    Set to true to disable TLS")
	fmt.Println("  FRAUDGUARD_API_SECRET     Shared secret for TOKEN")
}

func printResult(v any) {
	printJSON(v)
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}

func prettyPrint(payload string) {
	if payload == "PONG" {
		fmt.Println(payload)
		return
	}
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		fmt.Println(payload)
		return
	}
	printJSON(v)
}
