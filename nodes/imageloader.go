package nodes

import (
	"context"
	"sync"
	"time"

	"nodesync/binding"
	"nodesync/logger"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// ImageLoaderBinding keeps the filename dropdown in step with the selected
// directory and makes sure a selected image has a previewable copy.
type ImageLoaderBinding struct {
	dirCtrl  *binding.Controller
	fileCtrl *binding.Controller
	files    *remote.FilenameSource
	filename *widgets.Widget
	timeout  time.Duration

	mu         sync.Mutex
	lastListed string // directory value of the latest filename fetch
}

// BindImageLoader wires an ImageLoaderEnhanced node. Directory edits refresh
// the filename list after a short quiet period; the directory list itself is
// refreshed once at bind time. A "Random" mode disables the filename widget
// without clearing the remembered selection.
func BindImageLoader(n *widgets.Node, dirs *remote.DirectorySource, files *remote.FilenameSource, sync settings.Sync) (*ImageLoaderBinding, error) {
	directory, err := n.MustFind("directory")
	if err != nil {
		return nil, err
	}
	mode, err := n.MustFind("mode")
	if err != nil {
		return nil, err
	}
	filename, err := n.MustFind("filename")
	if err != nil {
		return nil, err
	}

	timeout := fetchTimeout(sync)
	b := &ImageLoaderBinding{files: files, filename: filename, timeout: timeout}

	b.fileCtrl = binding.New("image_loader", files, filename, func() binding.Params {
		dir := directory.Value()
		b.mu.Lock()
		b.lastListed = dir
		b.mu.Unlock()
		return binding.Params{"directory": dir}
	}, n.Surface(), binding.Options{
		Debounce: listingDebounce(sync),
		Timeout:  timeout,
		OnApplied: func(res binding.Result, value string) {
			b.ensurePreview(value, res.Meta)
		},
		OnSelected: func(value string) {
			b.ensurePreview(value, b.fileCtrl.Meta())
		},
		Disallowed: func() bool {
			return mode.Value() == "Random"
		},
	})

	// The directory widget is both the target of its own one-shot refresh
	// and the driver of the filename list, so the filename trigger hangs off
	// the directory controller's selection hook rather than a second change
	// handler.
	b.dirCtrl = binding.New("image_loader_dirs", dirs, directory, func() binding.Params {
		return binding.Params{}
	}, n.Surface(), binding.Options{
		Timeout: timeout,
		OnApplied: func(_ binding.Result, value string) {
			// The saved directory may have vanished from the refreshed
			// list. The fallback assignment is programmatic and fires no
			// change handler, so the filename list must be refetched here.
			if value != b.listedDirectory() {
				b.fileCtrl.Trigger()
			}
		},
		OnSelected: func(string) {
			b.fileCtrl.Trigger()
		},
	})

	mode.OnChange(func(value string) {
		if value == "Random" {
			filename.SetEnabled(false)
			return
		}
		filename.SetEnabled(true)
		b.fileCtrl.Trigger()
	})

	// Populate with the saved directory value before the directory list
	// itself starts reloading.
	b.fileCtrl.Refresh()
	b.dirCtrl.Refresh()

	if mode.Value() == "Random" {
		filename.SetEnabled(false)
	}

	return b, nil
}

func (b *ImageLoaderBinding) listedDirectory() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastListed
}

func (b *ImageLoaderBinding) ensurePreview(filename string, meta map[string]string) {
	if filename == "" || !b.filename.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		created, err := b.files.EnsurePreview(ctx, filename, meta["subfolder"], meta["type"])
		if err != nil {
			logger.Warn("Preview copy failed", "filename", filename, "error", err)
			return
		}
		if created {
			logger.Debug("Preview copy created", "filename", filename, "subfolder", meta["subfolder"])
		}
	}()
}

func (b *ImageLoaderBinding) Files() *binding.Controller       { return b.fileCtrl }
func (b *ImageLoaderBinding) Directories() *binding.Controller { return b.dirCtrl }

func (b *ImageLoaderBinding) Close() {
	b.fileCtrl.Close()
	b.dirCtrl.Close()
}
