// Testpages serves generated chapters in the reading service's format, with
// an artificial delay, for trying the reader without a real library.
//
//	go run ./cmd/testpages [-addr :1122] [-delay 800ms] [-chapters 50]
package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pageahead/logging"
	"pageahead/session"
)

func main() {
	addr := ":1122"
	delay := 800 * time.Millisecond
	chapters := 50

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		next := func() string {
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "missing value for %s\n", args[i])
				os.Exit(2)
			}
			i++
			return args[i]
		}
		var err error
		switch args[i] {
		case "-addr":
			addr = next()
		case "-delay":
			delay, err = time.ParseDuration(next())
		case "-chapters":
			chapters, err = strconv.Atoi(next())
		default:
			err = fmt.Errorf("unknown flag %s", args[i])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	}

	logger := logging.New(os.Stderr, slog.LevelInfo, os.Getenv("NO_COLOR") == "")
	endpoint := session.DefaultEndpoint("http://localhost" + addr)

	mux := http.NewServeMux()
	mux.HandleFunc(endpoint.Path, func(w http.ResponseWriter, r *http.Request) {
		book, index, ok := endpoint.Parse(r.URL.String())
		if !ok || index >= chapters {
			http.NotFound(w, r)
			logger.Warn("no such chapter", "url", r.URL.String())
			return
		}
		time.Sleep(delay)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, chapterPage(book, index))
		logger.Info("served", "index", index)
	})

	logger.Log(context.Background(), logging.LevelSuccess, "listening", "addr", addr, "delay", delay, "chapters", chapters)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func chapterPage(book string, index int) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Reader</title></head><body>")
	fmt.Fprintf(&sb, `<div chapterindex="%d"><div class="title">Chapter %d</div>`, index, index+1)
	for p := 1; p <= 12; p++ {
		fmt.Fprintf(&sb, "<p>Paragraph %d of chapter %d from %s. ", p, index+1, html.EscapeString(book))
		sb.WriteString(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4))
		sb.WriteString("</p>")
	}
	sb.WriteString("</div></body></html>")
	return sb.String()
}
