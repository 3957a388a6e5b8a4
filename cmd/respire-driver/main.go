// Command respire-driver is the user-facing entry point (spec §6 "CLI
// (driver)"): it parses the build request, bootstraps the root subrespire
// invocation, spawns respire-engine to execute it, and relays the
// resulting JSONL event stream into a human-readable progress view.
package main

import (
	"fmt"
	stdlog "log"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/aabtop/respire-go/internal/codec"
	"github.com/aabtop/respire-go/internal/fingerprint"
	"github.com/aabtop/respire-go/internal/progress"
	"github.com/aabtop/respire-go/internal/registry"
	"github.com/aabtop/respire-go/internal/registrybuilder"
	"github.com/aabtop/respire-go/internal/respireerrors"
	"github.com/aabtop/respire-go/internal/subrespire"
	"github.com/aabtop/respire-go/pkg/config"
	"github.com/aabtop/respire-go/pkg/i18n"
	resplog "github.com/aabtop/respire-go/pkg/log"
	"github.com/aabtop/respire-go/pkg/utils"
)

const DEFAULT_VERSION = "unversioned"

var (
	commit      string
	version     = DEFAULT_VERSION
	date        string
	buildSource = "unknown"

	outDirFlag      string
	jobsFlag        int
	verboseFlag     bool
	graphViewFlag   bool
	rawLogsFlag     bool
	debuggingFlag   bool
	printConfigFlag bool
)

func main() {
	os.Exit(run())
}

func run() int {
	updateBuildInfo()

	info := fmt.Sprintf("%s\nDate: %s\nBuildSource: %s\nCommit: %s\nOS: %s\nArch: %s",
		version, date, buildSource, commit, runtime.GOOS, runtime.GOARCH)

	flaggy.SetName("respire-driver")
	flaggy.SetDescription("Entry point to a respire build")
	flaggy.DefaultParser.AdditionalHelpPrepend = "respire-driver -o OUT_DIR [-j N] [-v] [-g] [-r] <script> <function> [key=value ...]"

	flaggy.String(&outDirFlag, "o", "out", "The directory where all generated files will be placed")
	flaggy.Int(&jobsFlag, "j", "jobs", "Maximum number of commands to run in parallel (0 = config jobs, else number of CPUs)")
	flaggy.Bool(&verboseFlag, "v", "verbose", "Echo the engine's raw JSONL event stream")
	flaggy.Bool(&graphViewFlag, "g", "graph", "Render an ASCII timeline of completed commands")
	flaggy.Bool(&rawLogsFlag, "r", "raw-logs", "Dump the raw unparsed JSON log output")
	flaggy.Bool(&debuggingFlag, "d", "debug", "a boolean")
	flaggy.Bool(&printConfigFlag, "c", "print-default-config", "Print the current default config")
	flaggy.SetVersion(info)

	script := ""
	function := ""
	flaggy.AddPositionalValue(&script, "script", 1, true, "Path to the build script")
	flaggy.AddPositionalValue(&function, "function", 2, true, "Build function to invoke")

	flaggy.Parse()

	// The trailing key=value parameter list is of unknown length, which
	// flaggy's fixed-position positional values don't model; pull those
	// tokens directly out of os.Args instead of declaring a third
	// positional.
	extra := extractParamPairs(os.Args[1:])

	if printConfigFlag {
		data, err := utils.MarshalIntoYaml(config.GetDefaultConfig())
		if err != nil {
			stdlog.Fatal(err.Error())
		}
		fmt.Print(string(data))
		return 0
	}

	appConfig, err := config.NewAppConfig("respire", version, commit, date, buildSource, debuggingFlag)
	if err != nil {
		stdlog.Fatal(err.Error())
	}

	logger := resplog.NewLogger(appConfig)
	tr := i18n.NewTranslationSetFromConfig(logger, appConfig.UserConfig.Language)

	if outDirFlag == "" {
		outDirFlag = appConfig.UserConfig.OutDirName
	}
	if outDirFlag == "" || script == "" || function == "" {
		fmt.Fprintln(os.Stderr, "respire-driver: -o, <script>, and <function> are required")
		return 2
	}

	params, err := parseParams(extra)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	jobs := jobsFlag
	if jobs == 0 {
		jobs = appConfig.UserConfig.Jobs
	}
	if jobs == 0 {
		counts, err := cpu.Counts(true)
		if err != nil || counts < 1 {
			counts = 1
		}
		jobs = counts
	}

	outDir, err := filepath.Abs(outDirFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	scriptAbs, err := filepath.Abs(script)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	rootRegistry, err := bootstrapRoot(outDir, scriptAbs, function, params)
	if err != nil {
		reportFailure(err, tr)
		return 1
	}

	selfDir, err := selfExecutableDir()
	if err != nil {
		reportFailure(err, tr)
		return 1
	}
	enginePath, err := resolveSiblingBinary(selfDir, "respire-engine")
	if err != nil {
		reportFailure(err, tr)
		return 1
	}

	cmd := exec.Command(enginePath, "-o", outDir, "-j", fmt.Sprintf("%d", jobs), rootRegistry)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		reportFailure(err, tr)
		return 1
	}
	cmd.Stderr = os.Stderr

	if verboseFlag {
		fmt.Printf("respire-engine command line:\n%s\n\n", strings.Join(cmd.Args, " "))
	}

	if err := cmd.Start(); err != nil {
		reportFailure(err, tr)
		return 1
	}

	lastErr, relayErr := progress.Relay(stdout, os.Stdout, progress.Options{
		Verbose:         verboseFlag || rawLogsFlag,
		GraphView:       graphViewFlag || appConfig.UserConfig.Gui.GraphView,
		Color:           appConfig.UserConfig.Gui.Color,
		RefreshInterval: time.Duration(appConfig.UserConfig.Gui.RefreshIntervalMs) * time.Millisecond,
		Tr:              tr,
		StatusColors: map[string]string{
			"pending": appConfig.UserConfig.Gui.StatusColors.Pending,
			"running": appConfig.UserConfig.Gui.StatusColors.Running,
			"done":    appConfig.UserConfig.Gui.StatusColors.Done,
			"failed":  appConfig.UserConfig.Gui.StatusColors.Failed,
		},
	})
	if relayErr != nil {
		reportFailure(relayErr, tr)
	}

	waitErr := cmd.Wait()

	if lastErr != "" {
		fmt.Fprintln(os.Stderr, lastErr)
	}
	if waitErr != nil {
		if lastErr == "" {
			fmt.Fprintln(os.Stderr, tr.BuildFailed)
		}
		return 1
	}

	fmt.Println(tr.BuildSucceeded)
	return 0
}

// bootstrapRoot stages the root subrespire invocation exactly as any
// nested subrespire call would (internal/subrespire.Call), then wraps its
// generated include in a small top-level registry declaring the root
// output as a build target (spec §2's control-flow bootstrap chain,
// generalized by internal/subrespire/coalesce.go to every call; the
// driver only needs to supply the outermost include + build wrapper).
func bootstrapRoot(outDir, scriptAbs, function string, params map[string]interface{}) (string, error) {
	selfDir, err := selfExecutableDir()
	if err != nil {
		return "", err
	}
	hostPath, err := resolveSiblingBinary(selfDir, "respire-subrespire")
	if err != nil {
		return "", err
	}

	params["out_dir"] = outDir

	reg := codec.NewSchemaRegistry()
	b := registrybuilder.New(outDir)
	future, err := subrespire.Call(b, subrespire.CallContext{OutDir: outDir, SelfBinaryPath: hostPath}, scriptAbs, function, params, reg)
	if err != nil {
		return "", err
	}
	b.AddBuild(future.ValueFilepath)

	compiled := b.Compile()
	data, err := registry.Encode(compiled)
	if err != nil {
		return "", err
	}

	rootPath := filepath.Join(fingerprint.BuildFilesDir(outDir), "__root"+fingerprint.ExtRegistry)
	if err := writeRootRegistry(rootPath, data); err != nil {
		return "", err
	}
	return rootPath, nil
}

func writeRootRegistry(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func extractParamPairs(args []string) []string {
	var pairs []string
	for _, a := range args {
		if strings.Contains(a, "=") && !strings.HasPrefix(a, "-") {
			pairs = append(pairs, a)
		}
	}
	return pairs
}

func parseParams(pairs []string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("respire-driver: invalid parameter %q, want key=value", pair)
		}
		params[kv[0]] = kv[1]
	}
	return params, nil
}

func selfExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("respire-driver: resolving own executable path: %w", err)
	}
	return filepath.Dir(exe), nil
}

func resolveSiblingBinary(selfDir, name string) (string, error) {
	candidate := filepath.Join(selfDir, binaryName(name))
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("respire-driver: could not locate %q next to this binary or on PATH: %w", name, err)
	}
	return path, nil
}

func binaryName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

func reportFailure(err error, tr i18n.TranslationSet) {
	if code, ok := respireerrors.CodeOf(err); ok {
		label := code.String()
		if f := reflect.ValueOf(tr).FieldByName(label); f.IsValid() && f.String() != "" {
			label = f.String()
		}
		fmt.Fprintf(os.Stderr, "%s: %s\n", label, err.Error())
		return
	}
	newErr := errors.Wrap(err, 0)
	fmt.Fprintln(os.Stderr, newErr.ErrorStack())
}

func updateBuildInfo() {
	if version == DEFAULT_VERSION {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			if revision, ok := lo.Find(buildInfo.Settings, func(s debug.BuildSetting) bool { return s.Key == "vcs.revision" }); ok {
				commit = revision.Value
				version = commit
				if len(version) > 7 {
					version = version[:7]
				}
			}
			if t, ok := lo.Find(buildInfo.Settings, func(s debug.BuildSetting) bool { return s.Key == "vcs.time" }); ok {
				date = t.Value
			}
		}
	}
}
