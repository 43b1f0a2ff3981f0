package nodes

import (
	"nodesync/binding"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// LoraBinding keeps the trigger word combo in step with the selected lora.
type LoraBinding struct {
	ctrl    *binding.Controller
	trigger *widgets.Widget
}

// BindLoraKeywords wires a LoraLoaderAndKeywords node. The serialized
// trigger_word widget is a plain text field; it is swapped for an enumerable
// combo (keeping name, position and saved value) before the first keyword
// refresh. The swap happens once per node lifetime, re-entering the creation
// hook returns the existing combo.
func BindLoraKeywords(n *widgets.Node, source *remote.KeywordSource, sync settings.Sync) (*LoraBinding, error) {
	lora, err := n.MustFind("lora_name")
	if err != nil {
		return nil, err
	}

	trigger, err := n.Replace("trigger_word", widgets.ComboFactory())
	if err != nil {
		return nil, err
	}

	ctrl := binding.New("lora_keywords", source, trigger, func() binding.Params {
		return binding.Params{"lora_name": lora.Value()}
	}, n.Surface(), binding.Options{
		Debounce: listingDebounce(sync),
		Timeout:  fetchTimeout(sync),
	})
	ctrl.BindTrigger(lora)
	ctrl.Refresh()

	return &LoraBinding{ctrl: ctrl, trigger: trigger}, nil
}

// Trigger returns the combo widget that replaced the text field.
func (b *LoraBinding) Trigger() *widgets.Widget { return b.trigger }

func (b *LoraBinding) Controller() *binding.Controller { return b.ctrl }

func (b *LoraBinding) Close() {
	b.ctrl.Close()
}
