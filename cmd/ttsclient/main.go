// Command ttsclient synthesizes one text with the Polyglot TTS API and
// saves the resulting WAV file.
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

	"go.opentelemetry.io/otel"

	"github.com/vnmchuo/polyglot-tts/config"
	"github.com/vnmchuo/polyglot-tts/internal/job"
	"github.com/vnmchuo/polyglot-tts/internal/lifecycle"
	"github.com/vnmchuo/polyglot-tts/internal/log"
	"github.com/vnmchuo/polyglot-tts/internal/polyglot"
	"github.com/vnmchuo/polyglot-tts/internal/telemetry"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ttsclient", flag.ContinueOnError)
	gender := fs.String("gender", "female", "voice gender (female or male)")
	language := fs.String("language", "English (en)", "language of the text, used to tune status polling")
	text := fs.String("text", "", "text to synthesize")
	textFile := fs.String("text-file", "", "read the text from a file (- for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input, err := readText(*text, *textFile, stdin)
	if err != nil {
		return err
	}
	req, err := job.NewRequest(*gender, input, *language)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Service: "ttsclient"})

	shutdownTracer, err := telemetry.InitTracer("ttsclient", version, cfg)
	if err != nil {
		return err
	}
	defer shutdownTracer()

	client := polyglot.New(polyglot.Options{
		BaseURL:        cfg.BaseURL,
		OutputDir:      cfg.OutputDir,
		RequestTimeout: cfg.RequestTimeout,
	})
	runner := lifecycle.NewRunner(client, cfg.MaxWait, otel.GetTracerProvider().Tracer("polyglot-tts"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifact, err := runner.Run(ctx, req, func(ev job.Event) {
		fmt.Fprintf(stdout, "[%s] %s\n", ev.Level, ev.Message)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, artifact.Path)
	return nil
}

func readText(text, file string, stdin io.Reader) (string, error) {
	switch {
	case text != "" && file != "":
		return "", errors.New("use either -text or -text-file, not both")
	case text != "":
		return text, nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(b), nil
	default:
		return "", job.ErrEmptyText
	}
}
