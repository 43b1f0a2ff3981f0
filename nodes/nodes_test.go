package nodes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"nodesync/httpapi"
	"nodesync/remote"
	"nodesync/settings"
	"nodesync/widgets"
)

// testSync keeps the quiet periods short enough to exercise in a test.
var testSync = settings.Sync{
	ListingDebounceMs: 40,
	SearchDebounceMs:  40,
	FetchTimeoutSec:   5,
}

type fakeSurface struct {
	mu       sync.Mutex
	repaints int
}

func (s *fakeSurface) MarkDirty() {}

func (s *fakeSurface) RequestRepaint() {
	s.mu.Lock()
	s.repaints++
	s.mu.Unlock()
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// imageBackend is a fake listing backend that counts filename fetches per
// directory and records preview requests. A non-nil gate blocks every
// filename response until the channel is closed, to hold fetches in flight.
type imageBackend struct {
	directories []string
	listings    map[string][]string
	gate        chan struct{}

	mu       sync.Mutex
	fetches  map[string]int
	previews []map[string]string
}

func (b *imageBackend) fetchCount(directory string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[directory]
}

func (b *imageBackend) previewCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.previews)
}

func (b *imageBackend) serve() *httptest.Server {
	b.fetches = make(map[string]int)
	if b.directories == nil {
		b.directories = []string{"[INPUT]", "renders", "outputs"}
	}
	if b.listings == nil {
		b.listings = map[string][]string{
			"[INPUT]": {"start.png"},
			"renders": {"render.png"},
			"outputs": {"a.png", "b.png"},
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ril/get_directories", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(b.directories)
	})
	mux.HandleFunc("/ril/get_filenames", func(w http.ResponseWriter, r *http.Request) {
		directory := r.URL.Query().Get("directory")
		b.mu.Lock()
		b.fetches[directory]++
		b.mu.Unlock()
		if b.gate != nil {
			<-b.gate
		}

		subfolder, imageType := "", "input"
		if directory == "outputs" {
			subfolder, imageType = "outputs", "output"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"filenames": b.listings[directory],
			"subfolder": subfolder,
			"type":      imageType,
		})
	})
	mux.HandleFunc("/ril/ensure_input_preview", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.previews = append(b.previews, req)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"filename": req["filename"], "created": true})
	})
	return httptest.NewServer(mux)
}

func imageLoaderNode(surface widgets.Surface) *widgets.Node {
	n := widgets.NewNode("Image Loader", surface)
	n.AddWidget("directory", widgets.Enumerable, "[INPUT]", []string{"[INPUT]"})
	n.AddWidget("mode", widgets.Enumerable, "Selective", []string{"Selective", "Random"})
	n.AddWidget("filename", widgets.Enumerable, "", nil)
	return n
}

func TestImageLoaderCoalescesDirectoryEdits(t *testing.T) {
	backend := &imageBackend{}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := imageLoaderNode(&fakeSurface{})
	b, err := BindImageLoader(n, remote.NewDirectorySource(api), remote.NewFilenameSource(api), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	directory, _ := n.Find("directory")
	filename, _ := n.Find("filename")

	// Bind time refreshes both lists once: the saved directory drives the
	// first filename fetch, and the directory options arrive from the backend.
	waitFor(t, "initial lists", func() bool {
		return directory.HasOption("outputs") && filename.Value() == "start.png"
	})
	if got := backend.fetchCount("[INPUT]"); got != 1 {
		t.Errorf("expected 1 initial filename fetch, got %d", got)
	}
	if directory.Value() != "[INPUT]" {
		t.Errorf("saved directory lost across refresh, got %q", directory.Value())
	}

	// Two edits inside one quiet period collapse into a single fetch carrying
	// the last snapshot.
	directory.Edit("renders")
	time.Sleep(10 * time.Millisecond)
	directory.Edit("outputs")

	waitFor(t, "outputs listing applied", func() bool {
		return filename.Value() == "a.png"
	})
	options := filename.Options()
	if len(options) != 2 || options[0] != "a.png" || options[1] != "b.png" {
		t.Errorf("unexpected filename options %v", options)
	}
	if !filename.Enabled() {
		t.Error("filename widget should be enabled after a successful refresh")
	}
	if got := backend.fetchCount("outputs"); got != 1 {
		t.Errorf("expected 1 fetch for the final directory, got %d", got)
	}
	if got := backend.fetchCount("renders"); got != 0 {
		t.Errorf("superseded edit reached the backend %d times", got)
	}
}

func TestImageLoaderEnsuresPreviewWithListingMeta(t *testing.T) {
	backend := &imageBackend{}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := imageLoaderNode(&fakeSurface{})
	directory, _ := n.Find("directory")
	directory.SetOptions([]string{"[INPUT]", "outputs"})
	directory.SetValue("outputs")

	b, err := BindImageLoader(n, remote.NewDirectorySource(api), remote.NewFilenameSource(api), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	// The applied listing triggers a preview check for the selected file,
	// carrying the subfolder and type the backend resolved.
	waitFor(t, "preview request", func() bool {
		return backend.previewCount() >= 1
	})
	backend.mu.Lock()
	req := backend.previews[0]
	backend.mu.Unlock()
	if req["filename"] != "a.png" || req["subfolder"] != "outputs" || req["type"] != "output" {
		t.Errorf("unexpected preview request %v", req)
	}
}

func TestImageLoaderRandomModeDisablesFilename(t *testing.T) {
	backend := &imageBackend{}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := imageLoaderNode(&fakeSurface{})
	b, err := BindImageLoader(n, remote.NewDirectorySource(api), remote.NewFilenameSource(api), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	mode, _ := n.Find("mode")
	filename, _ := n.Find("filename")
	waitFor(t, "initial listing", func() bool { return filename.Value() == "start.png" })

	mode.Edit("Random")
	if filename.Enabled() {
		t.Error("random mode should disable the filename widget")
	}
	if filename.Value() != "start.png" {
		t.Errorf("random mode must not clear the selection, got %q", filename.Value())
	}

	mode.Edit("Selective")
	if !filename.Enabled() {
		t.Error("leaving random mode should re-enable the filename widget")
	}
}

func TestImageLoaderRandomDuringFetchKeepsFilenameDisabled(t *testing.T) {
	backend := &imageBackend{gate: make(chan struct{})}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := imageLoaderNode(&fakeSurface{})
	b, err := BindImageLoader(n, remote.NewDirectorySource(api), remote.NewFilenameSource(api), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	directory, _ := n.Find("directory")
	mode, _ := n.Find("mode")
	filename, _ := n.Find("filename")

	waitFor(t, "directory list", func() bool { return directory.HasOption("outputs") })
	directory.Edit("outputs")
	waitFor(t, "fetch in flight", func() bool { return backend.fetchCount("outputs") == 1 })

	// The mode switches while the listing is still in flight. The late
	// result must not undo the disable.
	mode.Edit("Random")
	if filename.Enabled() {
		t.Fatal("random mode should disable the filename widget immediately")
	}
	close(backend.gate)

	waitFor(t, "listing applied", func() bool { return filename.HasOption("a.png") })
	if filename.Enabled() {
		t.Error("in-flight result re-enabled the filename widget despite random mode")
	}

	mode.Edit("Selective")
	if !filename.Enabled() {
		t.Error("leaving random mode should re-enable the filename widget")
	}
}

func TestImageLoaderRefetchesWhenSavedDirectoryVanishes(t *testing.T) {
	backend := &imageBackend{}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	// The serialized graph names a directory the backend no longer has.
	n := widgets.NewNode("Image Loader", &fakeSurface{})
	n.AddWidget("directory", widgets.Enumerable, "archive", []string{"archive"})
	n.AddWidget("mode", widgets.Enumerable, "Selective", []string{"Selective", "Random"})
	n.AddWidget("filename", widgets.Enumerable, "", nil)

	b, err := BindImageLoader(n, remote.NewDirectorySource(api), remote.NewFilenameSource(api), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	directory, _ := n.Find("directory")
	filename, _ := n.Find("filename")

	// The directory list refresh falls back to its first option, and the
	// filename list follows even though no user edit fired.
	waitFor(t, "fallback listing", func() bool { return filename.Value() == "start.png" })
	if got := directory.Value(); got != "[INPUT]" {
		t.Errorf("expected fallback directory, got %q", got)
	}
	if !filename.Enabled() {
		t.Error("expected filename enabled after the fallback listing")
	}
	if got := backend.fetchCount("archive"); got != 1 {
		t.Errorf("expected 1 fetch for the vanished directory, got %d", got)
	}
	if got := backend.fetchCount("[INPUT]"); got != 1 {
		t.Errorf("expected 1 fetch for the fallback directory, got %d", got)
	}
}

func TestLoraBindingReplacesTriggerWord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]string{"flat colors", "sketch style"})
	}))
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := widgets.NewNode("Lora Loader", &fakeSurface{})
	n.AddWidget("lora_name", widgets.Enumerable, "style.safetensors", []string{"style.safetensors"})
	n.AddWidget("lora_strength", widgets.FreeText, "1.0", nil)
	n.AddWidget("trigger_word", widgets.FreeText, "sketch style", nil)

	b, err := BindLoraKeywords(n, remote.NewKeywordSource(api, nil, 0), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	trigger := b.Trigger()
	if trigger.Kind() != widgets.Enumerable {
		t.Error("trigger_word should have become enumerable")
	}
	if got := n.IndexOf("trigger_word"); got != 2 {
		t.Errorf("replacement moved trigger_word to index %d", got)
	}

	// The serialized value survives both the type swap and the refresh when
	// the backend still offers it.
	waitFor(t, "keyword refresh", func() bool { return trigger.HasOption("flat colors") })
	if trigger.Value() != "sketch style" {
		t.Errorf("saved trigger word lost, got %q", trigger.Value())
	}
}

func TestBooruBindingSearchFlow(t *testing.T) {
	var hits int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"values": []map[string]string{{"url": "https://img/1.png", "tags": "1girl"}},
		})
	}))
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := widgets.NewNode("Booru Loader", &fakeSurface{})
	n.AddWidget("website", widgets.Enumerable, "Safebooru", []string{"Safebooru"})
	n.AddWidget("mode", widgets.Enumerable, "selective", []string{"selective", "random"})
	n.AddWidget("tags", widgets.FreeText, "", nil)
	n.AddWidget("page_number", widgets.FreeText, "0", nil)
	n.AddWidget("selected_image_url", widgets.Enumerable, "", nil)

	b, err := BindBooruSearch(n, remote.NewBooruSource(api, []string{"Safebooru"}), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	selector, _ := n.Find("selected_image_url")

	// With no tags the initial refresh resolves locally to a prompt.
	waitFor(t, "blank-tags prompt", func() bool {
		return selector.Value() == "Enter tags to search"
	})
	if selector.Enabled() {
		t.Error("selector should be disabled while there is nothing to select")
	}
	mu.Lock()
	if hits != 0 {
		t.Errorf("blank tags reached the backend %d times", hits)
	}
	mu.Unlock()

	tags, _ := n.Find("tags")
	tags.Edit("1girl solo")
	waitFor(t, "search result", func() bool {
		return selector.Value() == "https://img/1.png|1girl"
	})
	if !selector.Enabled() {
		t.Error("selector should be enabled after a successful search")
	}
}

func TestBooruRandomModeDisablesSelector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "values": []map[string]string{{"url": "u"}}})
	}))
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := widgets.NewNode("Booru Loader", &fakeSurface{})
	n.AddWidget("website", widgets.Enumerable, "", nil)
	n.AddWidget("mode", widgets.Enumerable, "random", []string{"selective", "random"})
	n.AddWidget("tags", widgets.FreeText, "", nil)
	n.AddWidget("page_number", widgets.FreeText, "0", nil)
	n.AddWidget("selected_image_url", widgets.Enumerable, "", nil)

	b, err := BindBooruSearch(n, remote.NewBooruSource(api, nil), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	selector, _ := n.Find("selected_image_url")
	if selector.Enabled() {
		t.Error("selector should start disabled in random mode")
	}
}

func TestCharacterBindingFollowsCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{
			"Gacha":   {"random", "alice"},
			"Fantasy": {"random", "mira"},
		})
	}))
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	n := widgets.NewNode("Character Selector", &fakeSurface{})
	n.AddWidget("characters_from", widgets.Enumerable, "Gacha", []string{"Gacha", "Fantasy"})
	n.AddWidget("character", widgets.Enumerable, "", nil)

	b, err := BindCharacterSelector(n, remote.NewCharacterSource(api, nil, 0), testSync)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	character, _ := n.Find("character")
	waitFor(t, "initial category", func() bool { return character.HasOption("alice") })

	category, _ := n.Find("characters_from")
	category.Edit("Fantasy")
	waitFor(t, "category switch", func() bool { return character.HasOption("mira") })
}

func TestBindDispatch(t *testing.T) {
	backend := &imageBackend{}
	server := backend.serve()
	defer server.Close()
	api := httpapi.New(server.URL, 0)

	src := Sources{
		Directories: remote.NewDirectorySource(api),
		Filenames:   remote.NewFilenameSource(api),
	}

	n := imageLoaderNode(&fakeSurface{})
	b, ok, err := Bind("ImageLoaderEnhanced", n, src, testSync)
	if err != nil || !ok || b == nil {
		t.Fatalf("expected a binding, got ok=%v err=%v", ok, err)
	}
	b.Close()

	if _, ok, _ := Bind("KSampler", widgets.NewNode("KSampler", &fakeSurface{}), src, testSync); ok {
		t.Error("unsupported node types must not bind")
	}
}
