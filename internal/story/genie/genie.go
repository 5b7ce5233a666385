package genie

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"storygenie/internal/cli/scheme/colours"
	"storygenie/internal/config"
	"storygenie/internal/domain/library"
	"storygenie/internal/domain/library/generator"
	"storygenie/internal/domain/story"
	"storygenie/internal/story/images"
	"storygenie/internal/story/music"
	"storygenie/internal/story/playback"
	"storygenie/internal/story/tts"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StoryGenie main application structure
type StoryGenie struct {
	cfg       config.Config
	Narrator  tts.Narrator
	generator generator.StoryGenerator
	store     library.Store
	music     playback.MusicPlayer
	images    images.Deriver

	in     *bufio.Reader
	ctx    context.Context
	Cancel context.CancelFunc

	mu      sync.Mutex
	session *playback.Orchestrator
}

func NewStoryGenie(cfg config.Config) *StoryGenie {
	engine, err := tts.NewEngine(tts.Config{
		Type:      cfg.TTSType,
		Volume:    cfg.TTSVolume,
		Voice:     cfg.TTSVoice,
		CachePath: cfg.TTSCachePath,
	})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create tts engine")
	}

	musicOpts := []music.Option{music.WithVolume(cfg.MusicVolume)}
	if !cfg.MusicEnabled {
		musicOpts = append(musicOpts, music.Disabled())
	}

	return newStoryGenie(cfg, engine,
		generator.NewStoryGenie(cfg.StoryEndpoint, cfg.StoryTimeout),
		library.NewFileStore(cfg.LibraryPath),
		music.NewController(music.BeepLoader{Dir: cfg.MusicAssetsDir}, musicOpts...),
		os.Stdin,
	)
}

func newStoryGenie(cfg config.Config, narrator tts.Narrator, gen generator.StoryGenerator,
	store library.Store, player playback.MusicPlayer, in io.Reader) *StoryGenie {

	ctx, cancel := context.WithCancel(context.Background())
	return &StoryGenie{
		cfg:       cfg,
		Narrator:  narrator,
		generator: gen,
		store:     store,
		music:     player,
		images:    images.NewDeriver(cfg.ImageBaseURL),
		in:        bufio.NewReader(in),
		ctx:       ctx,
		Cancel:    cancel,
	}
}

// Shutdown cancels pending work and ends the open story session, if any.
func (sg *StoryGenie) Shutdown() {
	sg.Cancel()

	sg.mu.Lock()
	session := sg.session
	sg.mu.Unlock()

	if session != nil {
		session.Unmount()
	}
}

func (sg *StoryGenie) ShowWelcome() {
	fmt.Println()
	colours.Title.Println("🌟 Welcome to StoryGenie! 🌟")
	fmt.Println()
	colours.Info.Println("📚 Available commands:")
	fmt.Println("  • storygenie tell        - Make up a brand new story")
	fmt.Println("  • storygenie saved list  - Browse your saved stories")
	fmt.Println("  • storygenie saved play  - Open a saved story again")
	fmt.Println("  • storygenie tracks      - See which music plays with each story type")
	fmt.Println("  • storygenie languages   - Languages stories can be told in")
	fmt.Println("  • storygenie settings    - Voice and cache settings")
	fmt.Println()
	colours.Prompt.Println("✨ Ready for a magical story adventure? ✨")
}

// TellStory generates a new story from the command's flags, asking for anything missing.
func (sg *StoryGenie) TellStory(cmd *cobra.Command, args []string) {
	req, err := requestFromFlags(cmd)
	if err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}

	req, err = sg.completeRequest(req)
	if err != nil {
		if !errors.Is(err, errQuit) {
			colours.Error.Printf("❌ %v\n", err)
		}
		return
	}

	readNow, _ := cmd.Flags().GetBool("read")
	saveNow, _ := cmd.Flags().GetBool("save")

	session := sg.open(req)
	defer sg.close(session)

	fmt.Println()
	colours.Info.Printf("🪄 Creating a %s story about %s...\n", req.Category, req.Character)

	if err := session.Mount(sg.ctx); err != nil {
		if !errors.Is(err, playback.ErrUnmounted) {
			colours.Error.Printf("❌ %v\n", err)
		}
		return
	}

	sg.showSession(session, readNow, saveNow)
}

// PlaySaved replays a saved story by id, or lets the user pick one.
func (sg *StoryGenie) PlaySaved(cmd *cobra.Command, args []string) {
	records, err := sg.store.LoadAll()
	if err != nil {
		colours.Error.Printf("❌ Failed to load saved stories: %v\n", err)
		return
	}
	if len(records) == 0 {
		colours.Warning.Println("📭 No saved stories yet. Try 'storygenie tell --save'!")
		return
	}

	var rec story.Record
	if len(args) > 0 {
		found, ok := library.Shelf(records).Find(args[0])
		if !ok {
			colours.Error.Printf("❌ Saved story with ID '%s' not found!\n", args[0])
			return
		}
		rec = found
	} else {
		printRecords(records)
		choice, err := sg.choose("🌟 Enter the number of the story to open (or 'q' to quit): ", len(records))
		if err != nil {
			if !errors.Is(err, errQuit) {
				colours.Error.Println("❌ Invalid selection! Please try again.")
			}
			return
		}
		rec = records[choice]
	}

	readNow, _ := cmd.Flags().GetBool("read")

	session := sg.open(rec.Request())
	defer sg.close(session)

	if err := session.MountRecord(rec); err != nil {
		colours.Error.Printf("❌ %v\n", err)
		return
	}
	sg.showSession(session, readNow, false)
}

func (sg *StoryGenie) ListSaved(cmd *cobra.Command, args []string) {
	records, err := sg.store.LoadAll()
	if err != nil {
		colours.Error.Printf("❌ Failed to load saved stories: %v\n", err)
		return
	}

	fmt.Println()
	colours.Title.Println("📚 Saved Stories 📚")
	fmt.Println()

	if len(records) == 0 {
		colours.Warning.Println("📭 No saved stories yet.")
		return
	}
	printRecords(records)
	colours.Success.Printf("✨ %d saved stories ✨\n", len(records))
}

func (sg *StoryGenie) ClearSaved(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		colours.Prompt.Print("🗑️  Delete all saved stories? (y/N): ")
		input, _ := sg.in.ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(input)); answer != "y" && answer != "yes" {
			colours.Info.Println("👍 Nothing deleted")
			return
		}
	}

	if err := sg.store.ClearAll(); err != nil {
		colours.Error.Printf("❌ Failed to clear saved stories: %v\n", err)
		return
	}
	colours.Success.Println("✅ All saved stories cleared")
}

func (sg *StoryGenie) ShowTracks(cmd *cobra.Command, args []string) {
	fmt.Println()
	colours.Title.Println("🎵 Background Music 🎵")
	fmt.Println()

	for _, m := range music.Mapping() {
		keyword := m[0]
		if keyword == "*" {
			keyword = "anything else"
		}
		fmt.Printf("  • %-15s → ", keyword)
		colours.Author.Println(m[1])
	}

	fmt.Println()
	if sg.cfg.MusicEnabled {
		colours.Info.Printf("📁 Tracks are loaded from %s at %.0f%% volume\n", sg.cfg.MusicAssetsDir, sg.cfg.MusicVolume*100)
	} else {
		colours.Warning.Println("🔇 Background music is turned off")
	}
}

func (sg *StoryGenie) ShowLanguages(cmd *cobra.Command, args []string) {
	fmt.Println()
	colours.Title.Println("🌍 Story Languages 🌍")
	fmt.Println()
	for _, l := range story.Languages {
		fmt.Printf("  • %-8s ", l)
		colours.Info.Println(l.Code())
	}
}

func (sg *StoryGenie) ConfigureSettings(cmd *cobra.Command, args []string) {
	fmt.Println()
	colours.Title.Println("⚙️ TTS Settings ⚙️")
	fmt.Println()

	colours.Prompt.Println("🎤 Voice Settings:")
	fmt.Printf("  • Engine: %T\n", sg.Narrator)
	fmt.Printf("  • Voice: %s\n", sg.cfg.TTSVoice)
	fmt.Printf("  • Rate: %.2fx\n", sg.cfg.TTSRate)
	fmt.Printf("  • Pitch: %.2fx\n", sg.cfg.TTSPitch)
	fmt.Printf("  • Volume: %.0f%%\n", sg.cfg.TTSVolume*100)
	fmt.Println()

	colours.Prompt.Println("🔌 Available engines:")
	for _, e := range tts.GetAvailableEngines() {
		fmt.Printf("  • %s\n", e)
	}
	fmt.Println()

	cacheable, ok := sg.Narrator.(tts.CacheableEngine)
	if !ok {
		return
	}

	if clearCache, _ := cmd.Flags().GetBool("clear-cache"); clearCache {
		if err := cacheable.ClearCache(); err != nil {
			colours.Error.Printf("❌ Failed to clear speech cache: %v\n", err)
			return
		}
		colours.Success.Println("✅ Speech cache cleared")
	}

	stats, err := cacheable.GetCacheStats()
	if err != nil {
		colours.Error.Printf("❌ Failed to read speech cache: %v\n", err)
		return
	}
	colours.Prompt.Println("💾 Speech cache:")
	if path, ok := stats["cache_directory"].(string); ok {
		fmt.Printf("  • Location: %s\n", path)
	}
	if files, ok := stats["cached_files"].(int64); ok {
		fmt.Printf("  • Files: %d\n", files)
	}
	if mb, ok := stats["total_size_mb"].(float64); ok {
		fmt.Printf("  • Size: %s\n", humanize.Bytes(uint64(mb*1024*1024)))
	}
}

func (sg *StoryGenie) open(req story.Request) *playback.Orchestrator {
	session := playback.New(req,
		playback.Deps{
			Generator: sg.generator,
			Narrator:  sg.Narrator,
			Music:     sg.music,
			Store:     sg.store,
		},
		playback.WithVoice(sg.cfg.TTSRate, sg.cfg.TTSPitch),
		playback.WithImages(sg.images),
		playback.OnChange(phaseAnnouncer()),
	)

	sg.mu.Lock()
	sg.session = session
	sg.mu.Unlock()
	return session
}

func (sg *StoryGenie) close(session *playback.Orchestrator) {
	session.Unmount()

	sg.mu.Lock()
	if sg.session == session {
		sg.session = nil
	}
	sg.mu.Unlock()
}

func (sg *StoryGenie) showSession(session *playback.Orchestrator, readNow, saveNow bool) {
	snap := session.Snapshot()
	displayStory(snap)

	if saveNow {
		sg.saveStory(session)
	}
	if readNow {
		sg.readAloud(session)
	}
	sg.waitForUserInput(session)
}

// waitForUserInput runs the viewer controls until the user quits or the app is cancelled.
func (sg *StoryGenie) waitForUserInput(session *playback.Orchestrator) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			input, err := sg.in.ReadString('\n')
			if input != "" || err == nil {
				select {
				case lines <- input:
				case <-sg.ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		printControls(session.Snapshot())

		var input string
		select {
		case <-sg.ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			input = strings.TrimSpace(strings.ToLower(line))
		}

		switch input {
		case "r", "read":
			sg.readAloud(session)
		case "s", "stop":
			if !session.Snapshot().NarrationActive {
				colours.Info.Println("ℹ️  Nothing is being read right now")
				continue
			}
			session.Stop()
		case "v", "save":
			sg.saveStory(session)
		case "t", "text":
			displayStory(session.Snapshot())
		case "q", "quit":
			colours.Warning.Println("👋 Maybe next time! Sweet dreams! 🌙")
			return
		case "":
			continue
		default:
			colours.Info.Println("ℹ️  Use 'r' to read aloud, 's' to stop, 'v' to save, 't' for the text, 'q' to quit")
		}
	}
}

func (sg *StoryGenie) readAloud(session *playback.Orchestrator) {
	err := session.ReadAloud()
	switch {
	case err == nil:
	case errors.Is(err, playback.ErrAlreadyNarrating), errors.Is(err, playback.ErrBusy):
		colours.Warning.Println("🔊 Already reading! Press 's' to stop first")
	case errors.Is(err, story.ErrSpeech):
		colours.Error.Printf("❌ Could not start reading: %v\n", err)
	default:
		colours.Error.Printf("❌ %v\n", err)
	}
}

func (sg *StoryGenie) saveStory(session *playback.Orchestrator) {
	rec, err := session.Save()
	if err != nil {
		if errors.Is(err, playback.ErrNothingToSave) {
			colours.Warning.Println("📭 There is no story to save yet")
			return
		}
		colours.Error.Println("❌ Failed to save story.")
		return
	}
	colours.Success.Printf("💾 Story saved! (ID: %s)\n", rec.ID)
}

var errQuit = errors.New("quit")

// completeRequest prompts for whatever the flags left out.
func (sg *StoryGenie) completeRequest(req story.Request) (story.Request, error) {
	if strings.TrimSpace(req.Character) == "" {
		colours.Prompt.Print("🧒 Who is the story about? ")
		input, _ := sg.in.ReadString('\n')
		req.Character = strings.TrimSpace(input)
		if req.Character == "" || req.Character == "q" {
			return req, errQuit
		}
	}

	if strings.TrimSpace(req.Category) == "" {
		fmt.Println()
		colours.Title.Println("🎭 Choose a story type:")
		for i, c := range story.Categories {
			fmt.Printf("  %d. %s\n", i+1, c)
		}
		choice, err := sg.choose("🌟 Enter a number (or 'q' to quit): ", len(story.Categories))
		if err != nil {
			return req, err
		}
		req.Category = story.Categories[choice]
	}

	if req.Language == "" {
		req.Language = story.English
	}

	return req, req.Validate()
}

// choose reads a 1-based menu choice and returns it 0-based.
func (sg *StoryGenie) choose(prompt string, n int) (int, error) {
	fmt.Println()
	colours.Prompt.Print(prompt)
	input, _ := sg.in.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "q" || input == "quit" {
		colours.Warning.Println("👋 Maybe next time! Sweet dreams! 🌙")
		return 0, errQuit
	}

	choice, err := strconv.Atoi(input)
	if err != nil || choice < 1 || choice > n {
		return 0, fmt.Errorf("invalid selection %q", input)
	}
	return choice - 1, nil
}

func requestFromFlags(cmd *cobra.Command) (story.Request, error) {
	character, _ := cmd.Flags().GetString("character")
	category, _ := cmd.Flags().GetString("type")
	ageGroup, _ := cmd.Flags().GetString("age")
	lang, _ := cmd.Flags().GetString("language")

	language, err := story.ParseLanguage(lang)
	if err != nil {
		return story.Request{}, err
	}

	return story.Request{
		Character: strings.TrimSpace(character),
		Category:  strings.TrimSpace(category),
		AgeGroup:  strings.TrimSpace(ageGroup),
		Language:  language,
	}, nil
}

// phaseAnnouncer tells the listener when narration starts and ends.
func phaseAnnouncer() func(playback.Snapshot) {
	var mu sync.Mutex
	last := playback.PhaseIdle

	return func(snap playback.Snapshot) {
		mu.Lock()
		prev := last
		last = snap.Phase
		mu.Unlock()

		switch {
		case snap.Phase == playback.PhaseNarrating:
			if snap.MusicPlaying {
				colours.Success.Printf("\n🎵 Reading aloud with %s music... 🎵\n", snap.Track)
			} else {
				colours.Success.Println("\n🎵 Reading aloud... 🎵")
			}
		case prev == playback.PhaseNarrating && snap.Phase == playback.PhaseReady:
			colours.Success.Println("\n✅ Narration finished! 🌟")
		}
	}
}

func displayStory(snap playback.Snapshot) {
	req := snap.Request

	fmt.Println()
	colours.Title.Printf("📖 A %s story about %s\n", req.Category, req.Character)
	if req.AgeGroup != "" {
		fmt.Printf("🎯 Age Group: %s | ", req.AgeGroup)
	}
	fmt.Printf("🌍 Language: %s\n", req.Language)
	fmt.Println()

	if snap.Degraded {
		colours.Error.Println(snap.StoryText)
	} else {
		colours.Story.Println(snap.StoryText)
	}

	if len(snap.ImageURLs) > 0 {
		fmt.Println()
		colours.Info.Println("🖼️  Illustrations:")
		for i, url := range snap.ImageURLs {
			fmt.Printf("  %d. ", i+1)
			colours.Link.Println(url)
		}
	}
}

func printControls(snap playback.Snapshot) {
	var opts []string
	if snap.CanReadAloud() {
		opts = append(opts, "'r' to read aloud")
	}
	if snap.NarrationActive {
		opts = append(opts, "'s' to stop")
	}
	if snap.CanSave() {
		opts = append(opts, "'v' to save")
	}
	opts = append(opts, "'q' to quit")
	fmt.Printf("\n⏯️  Press %s: ", strings.Join(opts, ", "))
}

func printRecords(records []story.Record) {
	for i, rec := range records {
		fmt.Printf("  %d. ", i+1)
		colours.Title.Printf("%s", rec.Character)
		fmt.Printf(" · ")
		colours.Author.Printf("%s", rec.Category)
		fmt.Printf("\n     🌍 %s | 🎯 %s | 🕐 %s\n", rec.Language, orDash(rec.AgeGroup), humanize.Time(rec.CreatedAt))
		colours.Muted.Printf("     ID: %s\n", rec.ID)
		fmt.Println()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
