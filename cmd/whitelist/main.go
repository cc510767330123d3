package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-whitelist/adapters/gologger"
	"github.com/goliatone/go-whitelist/core"
)

const usage = `usage: whitelist [-config path] <command> [mail]

commands:
  add <mail>      admit a member, evicting the oldest one when full
  remove <mail>   remove a member
  list            list members, oldest first
  refresh         force a credential refresh
  state           print whether the stored credential is valid
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, wiring{}); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", core.KindOf(err), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, deps wiring) error {
	flags := flag.NewFlagSet("whitelist", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	configPath := flags.String("config", os.Getenv("WHITELIST_CONFIG"), "path to a yaml config file")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}
	rest := flags.Args()
	if len(rest) == 0 {
		return errors.New(usage)
	}

	fc, err := readFileConfig(*configPath)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(ctx, fc)
	if err != nil {
		return err
	}

	if deps.loggerProvider == nil {
		zapLogger, err := gologger.NewZap(fc.Runtime.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = zapLogger.Sync() }()
		deps.loggerProvider = gologger.NewZapProvider(zapLogger)
	}

	application, err := buildApp(ctx, cfg, fc.Runtime, deps)
	if err != nil {
		return err
	}
	defer application.Close()

	return dispatch(ctx, application, rest, stdout)
}

func dispatch(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	command, operands := args[0], args[1:]
	switch command {
	case "add":
		mail, err := singleMail(command, operands)
		if err != nil {
			return err
		}
		user, err := a.serialized.AddUser(ctx, mail)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "admitted %s at %s\n", user.Mail, user.CreationDate.UTC().Format(time.RFC3339))
	case "remove":
		mail, err := singleMail(command, operands)
		if err != nil {
			return err
		}
		user, err := a.serialized.RemoveUser(ctx, mail)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "removed %s\n", user.Mail)
	case "list":
		users, err := a.serialized.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, user := range users {
			fmt.Fprintf(stdout, "%s\t%s\n", user.Mail, user.CreationDate.UTC().Format(time.RFC3339))
		}
	case "refresh":
		token, err := a.serialized.RefreshCredential(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "credential refreshed, expires %s\n", token.ExpiresAt.UTC().Format(time.RFC3339))
	case "state":
		state, err := a.serialized.CredentialState(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, state)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	return nil
}

func singleMail(command string, operands []string) (string, error) {
	if len(operands) != 1 {
		return "", fmt.Errorf("%s expects exactly one mail\n%s", command, usage)
	}
	return operands[0], nil
}
