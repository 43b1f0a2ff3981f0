package nodes

import (
	"nodesync/binding"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// CharacterBinding keeps the character dropdown in step with the selected
// category.
type CharacterBinding struct {
	ctrl *binding.Controller
}

// BindCharacterSelector wires an AnimeCharacterSelector node: edits to
// characters_from refresh the character option list.
func BindCharacterSelector(n *widgets.Node, source *remote.CharacterSource, sync settings.Sync) (*CharacterBinding, error) {
	category, err := n.MustFind("characters_from")
	if err != nil {
		return nil, err
	}
	character, err := n.MustFind("character")
	if err != nil {
		return nil, err
	}

	ctrl := binding.New("character_selector", source, character, func() binding.Params {
		return binding.Params{"characters_from": category.Value()}
	}, n.Surface(), binding.Options{
		Timeout: fetchTimeout(sync),
	})
	ctrl.BindTrigger(category)
	ctrl.Refresh()

	return &CharacterBinding{ctrl: ctrl}, nil
}

func (b *CharacterBinding) Controller() *binding.Controller { return b.ctrl }

func (b *CharacterBinding) Close() {
	b.ctrl.Close()
}
