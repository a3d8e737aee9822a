// eventhub is a command line client for the EventHub API.
//
// Usage:
//
//	eventhub [--api URL] [--token-file PATH] <command> [flags]
//
// Commands: login, logout, tickets, stats, cancel, avatar, notifications,
// read.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robertarktes/eventhub/internal/client"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	api    *client.Client
	tokens client.FileTokenStore
	out    io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = map[string]command{
	"login":         {"log in and store the session token", runLogin},
	"logout":        {"forget the stored session token", runLogout},
	"tickets":       {"list your tickets", runTickets},
	"stats":         {"show your ticket statistics", runStats},
	"cancel":        {"cancel an upcoming ticket", runCancel},
	"avatar":        {"upload a profile picture", runAvatar},
	"notifications": {"list your notifications", runNotifications},
	"read":          {"mark a notification as read (or --all)", runRead},
}

var commandOrder = []string{"login", "logout", "tickets", "stats", "cancel", "avatar", "notifications", "read"}

func run(ctx context.Context, args []string, out io.Writer) error {
	defaultAPI := os.Getenv("EVENTHUB_API")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	defaultTokenPath, err := client.DefaultTokenPath()
	if err != nil {
		defaultTokenPath = ".eventhub-token"
	}

	var apiURL, tokenPath string
	flagSet := pflag.NewFlagSet("eventhub", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(out)
	flagSet.StringVar(&apiURL, "api", defaultAPI, "EventHub API base URL (env EVENTHUB_API)")
	flagSet.StringVar(&tokenPath, "token-file", defaultTokenPath, "where the session token is stored")
	flagSet.Usage = func() { printUsage(out, flagSet) }
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(out, flagSet)
		return nil
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	tokens := client.FileTokenStore{Path: tokenPath}
	e := &env{api: client.New(apiURL, tokens), tokens: tokens, out: out}
	return cmd.run(ctx, e, rest[1:])
}

func printUsage(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "usage: eventhub [flags] <command> [command flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(out, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}
