package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"nodesync/graph"
	"nodesync/httpapi"
	"nodesync/logger"
	"nodesync/nodes"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/store"

	"github.com/hako/durafmt"
	"github.com/schollz/progressbar/v3"
)

func main() {
	config, err := settings.LoadConfig()
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		os.Exit(1)
	}
	logger.Init(config.Logging)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "warm":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		warm(config, os.Args[2])
	case "watch":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		watch(config, os.Args[2])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: nodesync warm <lora-list-file>")
	fmt.Println("       nodesync watch <workflow.json>")
}

func apiClient(config *settings.Config) *httpapi.Client {
	return httpapi.New(config.Backend.Url, config.Backend.Port)
}

func openStore(config *settings.Config) *store.Store {
	cache, err := store.Open(config.Cache.Path)
	if err != nil {
		logger.Fatal("Failed to open cache database", "path", config.Cache.Path, "error", err)
	}
	return cache
}

// warm prefetches the trigger keywords for every lora named in the given
// file (one per line), filling the on-disk cache so graph loads do not pay
// for the backend's keyword search.
func warm(config *settings.Config, listFile string) {
	data, err := os.ReadFile(listFile)
	if err != nil {
		logger.Fatal("Failed to read lora list", "file", listFile, "error", err)
	}

	var loraNames []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			loraNames = append(loraNames, line)
		}
	}
	if len(loraNames) == 0 {
		logger.Fatal("Lora list is empty", "file", listFile)
	}

	cache := openStore(config)
	defer cache.Close()

	source := remote.NewKeywordSource(apiClient(config), cache, keywordTTL(config))
	timeout := time.Duration(config.Sync.FetchTimeout()) * time.Second

	started := time.Now()
	found, missing, failed := 0, 0, 0
	bar := progressbar.Default(int64(len(loraNames)), "warming keyword cache")
	for _, name := range loraNames {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		keywords, err := source.Keywords(ctx, name)
		cancel()
		switch {
		case err != nil:
			logger.Warn("Keyword fetch failed", "lora", name, "error", err)
			failed++
		case len(keywords) == 0:
			missing++
		default:
			found++
		}
		bar.Add(1)
	}

	elapsed := durafmt.Parse(time.Since(started).Truncate(time.Second)).String()
	logger.Info("Keyword cache warmed", "loras", len(loraNames), "found", found, "missing", missing, "failed", failed, "elapsed", elapsed)
}

// watch binds every supported node in a workflow file and replays widget
// edits from stdin against the live backend, printing the refreshed option
// sets. A diagnostic harness for the bindings; the production host is the
// graph editor itself.
func watch(config *settings.Config, workflowFile string) {
	host, port := backendHostPort(config)

	editor, err := graph.Load(host, port, workflowFile)
	if err != nil {
		logger.Fatal("Failed to load workflow", "file", workflowFile, "error", err)
	}

	cache := openStore(config)
	defer cache.Close()
	go cache.MergeEvery(24 * time.Hour)

	api := apiClient(config)
	sources := nodes.Sources{
		Characters:  remote.NewCharacterSource(api, cache, characterTTL(config)),
		Directories: remote.NewDirectorySource(api),
		Filenames:   remote.NewFilenameSource(api),
		Keywords:    remote.NewKeywordSource(api, cache, keywordTTL(config)),
		Booru:       remote.NewBooruSource(api, config.Booru.Websites),
	}

	var bindings []nodes.Binding
	bound := editor.Bound()
	for _, b := range bound {
		nodeBinding, supported, err := nodes.Bind(b.NodeType, b.Node, sources, config.Sync)
		if err != nil {
			logger.Error("Failed to bind node", "type", b.NodeType, "title", b.Node.Title(), "error", err)
			continue
		}
		if supported {
			bindings = append(bindings, nodeBinding)
			logger.Info("Bound node", "type", b.NodeType, "title", b.Node.Title())
		}
	}
	defer func() {
		for _, b := range bindings {
			b.Close()
		}
	}()

	if len(bindings) == 0 {
		logger.Fatal("Workflow has no supported nodes", "file", workflowFile)
	}

	fmt.Println("Commands: <widget>=<value>, <title>.<widget>=<value>, show, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit":
			editor.Flush()
			return
		case line == "show":
			show(bound)
			continue
		}

		target, value, ok := strings.Cut(line, "=")
		if !ok {
			fmt.Println("expected <widget>=<value>")
			continue
		}
		title, widgetName, scoped := strings.Cut(target, ".")
		if !scoped {
			widgetName = target
			title = ""
		}

		edited := 0
		for _, b := range bound {
			if title != "" && b.Node.Title() != title {
				continue
			}
			if w, found := b.Node.Find(widgetName); found {
				w.Edit(value)
				edited++
			}
		}
		if edited == 0 {
			fmt.Println("no widget matched", target)
		}
	}
}

func show(bound []*graph.Bound) {
	for _, b := range bound {
		fmt.Printf("%s (%s)\n", b.Node.Title(), b.NodeType)
		for _, w := range b.Node.Widgets() {
			state := ""
			if !w.Enabled() {
				state = " [disabled]"
			}
			fmt.Printf("  %s = %q%s\n", w.Name(), w.Value(), state)
			if options := w.Options(); len(options) > 0 {
				limit := len(options)
				if limit > 8 {
					limit = 8
				}
				for _, option := range options[:limit] {
					fmt.Printf("    - %s\n", option)
				}
				if len(options) > limit {
					fmt.Printf("    ... %d more\n", len(options)-limit)
				}
			}
		}
	}
}

func backendHostPort(config *settings.Config) (string, int) {
	host := config.Backend.Url
	port := config.Backend.Port
	if parsed, err := url.Parse(config.Backend.Url); err == nil && parsed.Host != "" {
		host = parsed.Hostname()
		if port == 0 && parsed.Port() != "" {
			if p, err := strconv.Atoi(parsed.Port()); err == nil {
				port = p
			}
		}
	}
	return host, port
}

func characterTTL(config *settings.Config) time.Duration {
	return time.Duration(config.Cache.CharacterTTLHrs) * time.Hour
}

func keywordTTL(config *settings.Config) time.Duration {
	return time.Duration(config.Cache.KeywordTTLHrs) * time.Hour
}
