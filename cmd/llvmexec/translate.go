package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"llvmexec/internal/bitcode"
	"llvmexec/internal/config"
	"llvmexec/internal/diag"
	"llvmexec/internal/exec"
	"llvmexec/internal/image"
	"llvmexec/internal/intrinsics"
	"llvmexec/internal/pipeline"
	"llvmexec/internal/registry"
	"llvmexec/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate FILE...",
	Short: "Translate IR modules (files, or directories of .ll files)",
	Long: `Translate parses each textual IR module and translates it against one
shared function registry. With --inspect the arguments are program images
written earlier by --emit=image, and they are printed instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

func init() {
	addTranslateFlags(translateCmd)
}

func addTranslateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("emit", "dump", "what to produce (none|dump|image)")
	f.StringP("out", "o", "", "directory for images (default: beside each input)")
	f.Bool("inspect", false, "read program images and print them")
	f.IntP("jobs", "j", 0, "files translated in parallel (0 = GOMAXPROCS)")
	f.Bool("keep-going", false, "translate every file even after a failure")
	f.Bool("lifetime", false, "annotate blocks with registers that die in them")
	f.String("alias-policy", "", "what an unresolved alias does (warn|error)")
	f.String("data-layout", "", "override the modules' target datalayout")
	f.String("ui", "auto", "progress UI for several files (auto|on|off)")
	f.Bool("timings", false, "print per-file stage timings")
	f.String("records", "", "constant record file whose symbols initialize globals")
	f.StringToInt("init", nil, "bind a global to a record symbol (@name=index)")
}

type emitMode string

const (
	emitNone  emitMode = "none"
	emitDump  emitMode = "dump"
	emitImage emitMode = "image"
)

func readEmitMode(s string) (emitMode, error) {
	switch m := emitMode(strings.ToLower(strings.TrimSpace(s))); m {
	case emitNone, emitDump, emitImage:
		return m, nil
	default:
		return "", fmt.Errorf("invalid --emit value %q (expected none|dump|image)", s)
	}
}

func runTranslate(cmd *cobra.Command, args []string) (err error) {
	flags := cmd.Flags()
	if inspect, _ := flags.GetBool("inspect"); inspect {
		return inspectImages(cmd, args)
	}

	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err) }()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfgBag := diag.NewBag(0)
	cfg.Report(diag.BagReporter{Bag: cfgBag})
	printDiagnostics(cmd.ErrOrStderr(), cfgBag.Items())

	opts, err := translateOptions(cmd, cfg)
	if err != nil {
		return err
	}
	emitStr, _ := flags.GetString("emit")
	emit, err := readEmitMode(emitStr)
	if err != nil {
		return err
	}
	uiStr, _ := flags.GetString("ui")
	ui, err := readUIMode(uiStr)
	if err != nil {
		return err
	}
	jobs := cfg.Translate.Jobs
	if flags.Changed("jobs") {
		jobs, _ = flags.GetInt("jobs")
	}
	keepGoing := cfg.Translate.KeepGoing
	if flags.Changed("keep-going") {
		keepGoing, _ = flags.GetBool("keep-going")
	}
	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	outDir, _ := flags.GetString("out")

	files, err := pipeline.ExpandInputs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files in %s", pipeline.IRExt, strings.Join(args, ", "))
	}

	reg, err := registry.New(intrinsics.Substitutions())
	if err != nil {
		return err
	}
	tctx := translate.NewContext(reg, opts)
	tctx.Natives = cfg.NativeTable()

	req := &pipeline.Request{
		Files:          files,
		Context:        tctx,
		Jobs:           jobs,
		KeepGoing:      keepGoing,
		MaxDiagnostics: maxDiags,
	}
	if emit == emitImage {
		req.Emit = func(file string, p *exec.Program) error {
			return image.WriteFile(imagePath(file, outDir), p)
		}
	}

	var results []pipeline.Result
	if shouldUseTUI(ui) && len(files) > 1 && emit != emitDump {
		results, err = runTranslateWithUI(cmd.Context(), "translate", files, req)
	} else {
		results, err = pipeline.Translate(cmd.Context(), req)
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Diags != nil {
			r.Diags.Sort()
			printFileDiagnostics(cmd.ErrOrStderr(), r.File, r.Diags.Items())
		}
		if r.Err != nil {
			failed++
			continue
		}
		if emit == emitDump && r.Program != nil {
			if dumpErr := exec.Dump(out, r.Program); dumpErr != nil {
				return dumpErr
			}
		}
	}
	if timings, _ := flags.GetBool("timings"); timings {
		printTimings(cmd.ErrOrStderr(), results)
	}
	printSummary(cmd.ErrOrStderr(), len(results), failed, reg)
	return err
}

func translateOptions(cmd *cobra.Command, cfg *config.Config) (translate.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return opts, err
	}
	flags := cmd.Flags()
	if flags.Changed("lifetime") {
		opts.LifetimeAnalysis, _ = flags.GetBool("lifetime")
	}
	if flags.Changed("alias-policy") {
		s, _ := flags.GetString("alias-policy")
		if opts.AliasPolicy, err = translate.ParseAliasPolicy(s); err != nil {
			return opts, err
		}
	}
	if flags.Changed("data-layout") {
		opts.DataLayout, _ = flags.GetString("data-layout")
	}
	if path, _ := flags.GetString("records"); path != "" {
		st, err := bitcode.ParseRecordsFile(path)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", path, err)
		}
		bind, _ := flags.GetStringToInt("init")
		opts.Records = &translate.Records{Stream: st, Bind: bind}
	} else if flags.Changed("init") {
		return opts, fmt.Errorf("--init needs --records")
	}
	return opts, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(path)
}

// imagePath is the input path with its extension replaced by .img, moved
// into outDir when one is given.
func imagePath(file, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + ".img"
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(filepath.Dir(file), base)
}

func inspectImages(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()
	for _, path := range paths {
		p, h, err := image.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(out, "; %s (schema %d, written by llvmexec %s)\n", path, h.Schema, h.Tool)
		if err := exec.Dump(out, p); err != nil {
			return err
		}
	}
	return nil
}
