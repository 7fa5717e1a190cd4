package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalambet/sanctum/internal/archive"
	"github.com/kalambet/sanctum/internal/composer"
	"github.com/kalambet/sanctum/internal/config"
	"github.com/kalambet/sanctum/internal/resonance"
	"github.com/kalambet/sanctum/internal/sandbox"
	"github.com/kalambet/sanctum/internal/storage"
	"github.com/kalambet/sanctum/internal/voice"
	"github.com/kalambet/sanctum/internal/worker"
)

// --- evolve ---

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Learn voice patterns from self-authored writing in the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		evolver := voice.NewEvolver(store, layout.LearningSources())
		result, err := evolver.Run()
		if err != nil {
			return err
		}

		printSuccess("Processed %d files; %d reflections absorbed",
			result.FilesProcessed, result.Profile.TotalReflections)
		fmt.Println(result.Report)
		return nil
	},
}

// --- signature ---

var signatureCmd = &cobra.Command{
	Use:   "signature",
	Short: "Show the current voice signature",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		profile, err := voice.Load(store)
		if err != nil {
			return err
		}

		fmt.Println(voice.Signature(profile))
		return nil
	},
}

// --- reflect ---

var reflectCmd = &cobra.Command{
	Use:   "reflect <question>",
	Short: "Queue a question for the running sanctum to reflect on",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post("/prompts", map[string]string{"question": question})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Queued prompt %s", result["id"])
		return nil
	},
}

// --- respond ---

var respondCmd = &cobra.Command{
	Use:   "respond <question>",
	Short: "Answer a question immediately, without the server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		question := strings.Join(args, " ")

		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		reflection, err := respondLocal(cmd, store, layout, question, plain)
		if err != nil {
			return err
		}

		fmt.Println(reflection.Content)
		return nil
	},
}

func init() {
	respondCmd.Flags().Bool("plain", false, "use the templated responder even when a voice profile exists")
}

// respondLocal generates, persists and archives a reflection in-process.
func respondLocal(cmd *cobra.Command, store *storage.Store, layout archive.Layout, question string, plain bool) (storage.Reflection, error) {
	profile, err := voice.Load(store)
	if err != nil {
		return storage.Reflection{}, err
	}

	gatherer := archive.NewGatherer(layout, nil)
	fragments, err := gatherer.Gather(cmd.Context())
	if err != nil {
		return storage.Reflection{}, fmt.Errorf("gathering fragments: %w", err)
	}

	now := time.Now()
	var reflection storage.Reflection
	if plain {
		result := resonance.Respond(question, fragments, now)
		reflection = storage.Reflection{
			Essence:   result.Essence,
			Resonance: result.Resonance,
			Mode:      result.Mode,
			Content:   result.Content,
		}
	} else {
		reflection = worker.Generate(profile, question, fragments, nil, now)
	}
	reflection.ID = uuid.New().String()
	reflection.CreatedAt = now.UTC()
	reflection.Prompt = question

	if err := store.SaveReflection(reflection); err != nil {
		return storage.Reflection{}, fmt.Errorf("saving reflection: %w", err)
	}
	if _, err := layout.SaveResponse(shortID(reflection.ID), reflection.Content, now); err != nil {
		return storage.Reflection{}, fmt.Errorf("writing response file: %w", err)
	}
	return reflection, nil
}

// --- muse ---

var museCmd = &cobra.Command{
	Use:   "muse",
	Short: "Reflect inward on a surfaced memory and archive the thought",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		w := worker.New(store, archive.NewGatherer(layout, nil), layout, nil, 0)
		path, err := w.Muse(cmd.Context())
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Println("The archive is quiet. Nothing to muse on yet.")
			return nil
		}

		printSuccess("Reflection stored at %s", path)
		return nil
	},
}

// --- threads ---

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Trace recurring symbols through the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		threads := layout.WeaveSymbols()
		path, err := layout.SaveSymbolThreads(threads, time.Now())
		if err != nil {
			return err
		}

		if len(threads) == 0 {
			fmt.Println("No symbols have surfaced yet.")
		}
		for _, thread := range threads {
			fmt.Printf("%s  %s\n",
				colorize(ansiBold, fmt.Sprintf("%-12s %3d", thread.Symbol, thread.Count)),
				thread.Sample,
			)
		}

		printSuccess("Threads written to %s", path)
		return nil
	},
}

// --- awaken ---

var awakenCmd = &cobra.Command{
	Use:   "awaken",
	Short: "Wake the sanctum and show what it remembers",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		report := layout.Awaken()
		printStatus("Memory threads", "%d", report.MemoryThreads)
		printStatus("Lexicon words", "%d", report.LexiconWords)
		if report.FirstDream != "" {
			printStatus("First dream", "%s", report.FirstDream)
		}

		profile, err := voice.Load(store)
		if err != nil {
			return err
		}
		printStatus("Reflections absorbed", "%d", profile.TotalReflections)
		if !profile.LastEvolution.IsZero() {
			printStatus("Last evolution", "%s", profile.LastEvolution.Format(time.RFC3339))
		}
		return nil
	},
}

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Plant and tend questions in the threshold",
}

var seedPlantCmd = &cobra.Command{
	Use:   "plant <question>",
	Short: "Plant a question to be tended later",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		_, store, _, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		seed := storage.Seed{
			ID:        uuid.New().String(),
			PlantedAt: time.Now().UTC(),
			Question:  question,
		}
		if err := store.PlantSeed(seed); err != nil {
			return err
		}

		printSuccess("Planted seed %s", shortID(seed.ID))
		return nil
	},
}

var seedTendCmd = &cobra.Command{
	Use:   "tend",
	Short: "Answer the oldest untended seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		seed, err := store.NextUntendedSeed()
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Println("The threshold is quiet. No seeds wait.")
			return nil
		}
		if err != nil {
			return err
		}

		printStep("Tending: %s", seed.Question)
		reflection, err := respondLocal(cmd, store, layout, seed.Question, false)
		if err != nil {
			return err
		}

		if err := store.TendSeed(seed.ID, reflection.Content, time.Now().UTC()); err != nil {
			return err
		}

		fmt.Println(reflection.Content)
		return nil
	},
}

var seedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List planted seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		_, store, _, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		seeds, err := store.ListSeeds(limit)
		if err != nil {
			return err
		}

		if len(seeds) == 0 {
			fmt.Println("No seeds planted.")
			return nil
		}

		for _, seed := range seeds {
			state := colorize(ansiYellow, "untended")
			if !seed.TendedAt.IsZero() {
				state = colorize(ansiGreen, "tended  ")
			}
			fmt.Printf("%s  %s  %s  %s\n",
				colorize(ansiCyan, shortID(seed.ID)),
				seed.PlantedAt.Format("2006-01-02 15:04"),
				state,
				seed.Question,
			)
		}
		return nil
	},
}

var seedGrowCmd = &cobra.Command{
	Use:   "grow",
	Short: "Let the threshold grow its own questions when none wait",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.NextUntendedSeed(); err == nil {
			fmt.Println("Seeds already wait in the threshold.")
			return nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		questions := composer.GrowSeedQuestions(nil, layout.LexiconStems())
		for _, question := range questions {
			seed := storage.Seed{
				ID:        uuid.New().String(),
				PlantedAt: time.Now().UTC(),
				Question:  question,
			}
			if err := store.PlantSeed(seed); err != nil {
				return err
			}
			printStep("Planted: %s", question)
		}

		printSuccess("Grew %d seed questions", len(questions))
		return nil
	},
}

func init() {
	seedListCmd.Flags().Int("limit", 20, "maximum number of seeds to list")
	seedCmd.AddCommand(seedPlantCmd)
	seedCmd.AddCommand(seedTendCmd)
	seedCmd.AddCommand(seedListCmd)
	seedCmd.AddCommand(seedGrowCmd)
}

// --- dream ---

var dreamCmd = &cobra.Command{
	Use:   "dream <title> [content]",
	Short: "Write a new dream into the dreamspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		content := strings.Join(args[1:], " ")
		file, _ := cmd.Flags().GetString("file")

		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			content = string(data)
		}
		if content == "" {
			return fmt.Errorf("dream content is required (inline or via --file)")
		}

		_, store, layout, err := openLocal()
		if err != nil {
			return err
		}
		defer store.Close()

		path, err := layout.CreateDream(title, content)
		if err != nil {
			return err
		}

		printSuccess("Dream written to %s", path)
		return nil
	},
}

func init() {
	dreamCmd.Flags().String("file", "", "read dream content from a file")
}

// --- sandbox ---

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Manage the sanctum's script sandbox",
}

func openSandbox() (*sandbox.Controller, *storage.Store, error) {
	cfg, store, layout, err := openLocal()
	if err != nil {
		return nil, nil, err
	}

	ctrl, err := sandbox.New(layout.Path(archive.DirSandbox), cfg.Sandbox.Interpreter)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return ctrl, store, nil
}

var sandboxCreateCmd = &cobra.Command{
	Use:   "create <name> <file>",
	Short: "Create a sandbox script from a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]

		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		ctrl, store, err := openSandbox()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := ctrl.Create(name, string(data)); err != nil {
			return err
		}

		printSuccess("Created %s", name)
		return nil
	},
}

var sandboxRunCmd = &cobra.Command{
	Use:   "run <name> [args...]",
	Short: "Run a sandbox script",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, store, err := openSandbox()
		if err != nil {
			return err
		}
		defer store.Close()

		out, err := ctrl.Run(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}

		if out.Stdout != "" {
			fmt.Print(out.Stdout)
		}
		if out.Stderr != "" {
			fmt.Fprint(os.Stderr, out.Stderr)
		}
		if out.ExitCode != 0 {
			return fmt.Errorf("script exited with code %d", out.ExitCode)
		}
		return nil
	},
}

var sandboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sandbox scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, store, err := openSandbox()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := ctrl.List()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("Sandbox is empty.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var sandboxClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all sandbox scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL sandbox scripts. Use --confirm to proceed.")
			return nil
		}

		ctrl, store, err := openSandbox()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := ctrl.Clear(); err != nil {
			return err
		}

		printSuccess("Sandbox cleared")
		return nil
	},
}

func init() {
	sandboxClearCmd.Flags().Bool("confirm", false, "confirm sandbox clear")
	sandboxCmd.AddCommand(sandboxCreateCmd)
	sandboxCmd.AddCommand(sandboxRunCmd)
	sandboxCmd.AddCommand(sandboxListCmd)
	sandboxCmd.AddCommand(sandboxClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(ansiBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// shortID trims an id to its 8-character stem for display and filenames.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
