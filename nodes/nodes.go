// Package nodes wires the option-binding engine to the four node families
// that need remote option data: the character selector, the enhanced image
// loader, the lora keyword loader and the booru search. Each binding is
// constructed per node instance and closed with it.
package nodes

import (
	"time"

	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// Binding is the common teardown surface of all node bindings.
type Binding interface {
	Close()
}

// Sources bundles the remote adapters the bindings draw from.
type Sources struct {
	Characters  *remote.CharacterSource
	Directories *remote.DirectorySource
	Filenames   *remote.FilenameSource
	Keywords    *remote.KeywordSource
	Booru       *remote.BooruSource
}

// Bind wires a node of the given type to its binding. The boolean reports
// whether the type is one of the supported families.
func Bind(nodeType string, n *widgets.Node, src Sources, sync settings.Sync) (Binding, bool, error) {
	switch nodeType {
	case "AnimeCharacterSelector":
		b, err := BindCharacterSelector(n, src.Characters, sync)
		return b, true, err
	case "ImageLoaderEnhanced":
		b, err := BindImageLoader(n, src.Directories, src.Filenames, sync)
		return b, true, err
	case "LoraLoaderAndKeywords":
		b, err := BindLoraKeywords(n, src.Keywords, sync)
		return b, true, err
	case "BooruImageLoader":
		b, err := BindBooruSearch(n, src.Booru, sync)
		return b, true, err
	}
	return nil, false, nil
}

func fetchTimeout(sync settings.Sync) time.Duration {
	return time.Duration(sync.FetchTimeout()) * time.Second
}

func listingDebounce(sync settings.Sync) time.Duration {
	return time.Duration(sync.ListingDebounce()) * time.Millisecond
}

func searchDebounce(sync settings.Sync) time.Duration {
	return time.Duration(sync.SearchDebounce()) * time.Millisecond
}
