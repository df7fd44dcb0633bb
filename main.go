package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/cli-runtime/pkg/genericiooptions"

	"github.com/hashmap-kz/kubiq/cmd"
	kqerr "github.com/hashmap-kz/kubiq/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streams := genericiooptions.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}

	rootCmd := cmd.NewRootCmd(streams)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		code, hint := kqerr.ExitCode(err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if hint != "" {
			fmt.Fprintf(os.Stderr, "tip: %s\n", hint)
		}
		os.Exit(code)
	}
}
