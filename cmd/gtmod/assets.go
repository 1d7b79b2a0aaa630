package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gtmod/gtmod/pkg/gtmod/workspace"
)

var assetsWatch bool

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List prepared assets ready for packaging",
	Long: `Scan the prepared asset folders (prepared_textures, prepared_sounds)
and list every file that the package command would include.

With --watch, keep running and re-list whenever a prepared folder changes.`,
	RunE: runAssets,
}

func init() {
	assetsCmd.Flags().BoolVarP(&assetsWatch, "watch", "w", false, "watch prepared folders and re-list on changes")
	rootCmd.AddCommand(assetsCmd)
}

// runAssets lists prepared assets, optionally watching for changes.
func runAssets(cmd *cobra.Command, args []string) error {
	cfg, ws, _, err := bootstrap(false)
	if err != nil {
		return err
	}

	cats := ws.Categories(cfg.Categories)
	if err := listAssets(cats); err != nil {
		return err
	}

	if !assetsWatch {
		return nil
	}
	return watchAssets(cats)
}

// listAssets prints one line per prepared asset.
func listAssets(cats []workspace.Category) error {
	assets, err := workspace.ScanAll(cats)
	if err != nil {
		return fmt.Errorf("failed to scan prepared assets: %w", err)
	}

	if len(assets) == 0 {
		printInfo("No prepared assets found.")
		printInfo("Run 'gtmod convert' to produce .texture and sound files, or copy them in by hand.")
		return nil
	}

	var total int64
	for _, a := range assets {
		fmt.Printf("[%s] %-40s %10s\n", a.Category, a.Name, humanize.Bytes(uint64(a.Size)))
		total += a.Size
	}
	printInfo("\n%d assets, %s total", len(assets), humanize.Bytes(uint64(total)))
	return nil
}

// watchAssets re-lists the prepared assets whenever one of the category
// folders changes, until interrupted.
func watchAssets(cats []workspace.Category) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, cat := range cats {
		if err := os.MkdirAll(cat.Dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", cat.Dir, err)
		}
		if err := watcher.Add(cat.Dir); err != nil {
			return fmt.Errorf("watching %q: %w", cat.Dir, err)
		}
		printVerbose("Watching %s", cat.Dir)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	printInfo("\nWatching prepared folders. Press Ctrl-C to stop.")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			printInfo("\n%s changed:", event.Name)
			if err := listAssets(cats); err != nil {
				printError("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError("watch error: %v", err)
		case <-sig:
			printInfo("Stopped watching.")
			return nil
		}
	}
}
