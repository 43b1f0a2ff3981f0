package nodes

import (
	"nodesync/binding"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// BooruBinding keeps the image URL selector in step with the tag search
// inputs.
type BooruBinding struct {
	ctrl *binding.Controller
}

// BindBooruSearch wires a BooruImageLoader node. Edits to tags, page_number
// or website all feed the same debounced search; within one quiet period
// only the last edit's snapshot reaches the backend. A "random" mode makes
// the URL selector meaningless and disables it, keeping the remembered
// selection for when selective mode returns.
func BindBooruSearch(n *widgets.Node, source *remote.BooruSource, sync settings.Sync) (*BooruBinding, error) {
	tags, err := n.MustFind("tags")
	if err != nil {
		return nil, err
	}
	page, err := n.MustFind("page_number")
	if err != nil {
		return nil, err
	}
	website, err := n.MustFind("website")
	if err != nil {
		return nil, err
	}
	mode, err := n.MustFind("mode")
	if err != nil {
		return nil, err
	}
	selector, err := n.MustFind("selected_image_url")
	if err != nil {
		return nil, err
	}

	ctrl := binding.New("booru_search", source, selector, func() binding.Params {
		return binding.Params{
			"tags":    tags.Value(),
			"page":    page.Value(),
			"website": website.Value(),
		}
	}, n.Surface(), binding.Options{
		Debounce: searchDebounce(sync),
		Timeout:  fetchTimeout(sync),
		Disallowed: func() bool {
			return mode.Value() == "random"
		},
	})
	ctrl.BindTrigger(tags)
	ctrl.BindTrigger(page)
	ctrl.BindTrigger(website)

	mode.OnChange(func(value string) {
		if value == "random" {
			selector.SetEnabled(false)
			return
		}
		selector.SetEnabled(true)
		ctrl.Trigger()
	})

	ctrl.Refresh()
	if mode.Value() == "random" {
		selector.SetEnabled(false)
	}

	return &BooruBinding{ctrl: ctrl}, nil
}

func (b *BooruBinding) Controller() *binding.Controller { return b.ctrl }

func (b *BooruBinding) Close() {
	b.ctrl.Close()
}
